package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/locust-proxy/locust/pkg/cli"
	"github.com/locust-proxy/locust/pkg/config"
	"github.com/locust-proxy/locust/pkg/store"
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Manage the upstream egress proxy fleet",
	Long: `Fleet-administration operations against the upstream proxy registry
(spec §6): add proxies, tag them for domain routing, list them, and retire
them.`,
}

var proxyAddFlags struct {
	scheme   string
	host     string
	port     int
	username string
	password string
	provider string
	tags     []string
}

var proxyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new upstream egress proxy",
	RunE:  runProxyAdd,
}

var proxyLsFlags struct {
	tag    string
	output string
}

// proxyRow is the JSON-formatted shape of a listed proxy, used with
// --output json.
type proxyRow struct {
	ID       int64  `json:"id"`
	Scheme   string `json:"scheme"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Provider string `json:"provider"`
	LastUsed string `json:"last_used"`
}

var proxyLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List upstream egress proxies",
	RunE:  runProxyLs,
}

var proxyRmFlags struct {
	id  int64
	tag string
}

var proxyRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Retire an upstream egress proxy by id or tag",
	RunE:  runProxyRm,
}

var proxyTagFlags struct {
	host string
	tag  string
}

var proxyTagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Associate a domain with a proxy tag for routing",
	RunE:  runProxyTag,
}

func init() {
	rootCmd.AddCommand(proxyCmd)
	proxyCmd.AddCommand(proxyAddCmd, proxyLsCmd, proxyRmCmd, proxyTagCmd)

	proxyAddCmd.Flags().StringVar(&proxyAddFlags.scheme, "scheme", "http", "upstream scheme (http, https)")
	proxyAddCmd.Flags().StringVar(&proxyAddFlags.host, "host", "", "upstream host (required)")
	proxyAddCmd.Flags().IntVar(&proxyAddFlags.port, "port", 0, "upstream port (required)")
	proxyAddCmd.Flags().StringVar(&proxyAddFlags.username, "username", "", "upstream basic-auth username")
	proxyAddCmd.Flags().StringVar(&proxyAddFlags.password, "password", "", "upstream basic-auth password")
	proxyAddCmd.Flags().StringVar(&proxyAddFlags.provider, "provider", "", "upstream provider label")
	proxyAddCmd.Flags().StringSliceVar(&proxyAddFlags.tags, "tag", nil, "tag to associate with the proxy (repeatable)")
	_ = proxyAddCmd.MarkFlagRequired("host")
	_ = proxyAddCmd.MarkFlagRequired("port")

	proxyLsCmd.Flags().StringVar(&proxyLsFlags.tag, "tag", "", "restrict to proxies carrying this tag")
	proxyLsCmd.Flags().StringVar(&proxyLsFlags.output, "output", "text", "output format (text, json)")

	proxyRmCmd.Flags().Int64Var(&proxyRmFlags.id, "id", 0, "proxy id to retire")
	proxyRmCmd.Flags().StringVar(&proxyRmFlags.tag, "tag", "", "retire every proxy carrying this tag")

	proxyTagCmd.Flags().StringVar(&proxyTagFlags.host, "host", "", "domain to tag (required)")
	proxyTagCmd.Flags().StringVar(&proxyTagFlags.tag, "tag", "", "tag to associate with the domain (required)")
	_ = proxyTagCmd.MarkFlagRequired("host")
	_ = proxyTagCmd.MarkFlagRequired("tag")
}

func openFleetStore() (*store.Store, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	s, err := store.Open(store.Config{
		Path:               cfg.Store.Path,
		BusyTimeout:        cfg.Store.BusyTimeout,
		CheckpointInterval: cfg.Store.CheckpointInterval,
	})
	if err != nil {
		return nil, cli.NewCommandError("proxy", fmt.Errorf("open store: %w", err))
	}
	return s, nil
}

func runProxyAdd(cmd *cobra.Command, args []string) error {
	s, err := openFleetStore()
	if err != nil {
		return err
	}
	defer s.Close()

	scheme := store.Scheme(strings.ToLower(proxyAddFlags.scheme))
	if scheme != store.SchemeHTTP && scheme != store.SchemeHTTPS {
		return cli.NewConfigError("scheme", fmt.Sprintf("unsupported scheme %q", proxyAddFlags.scheme))
	}

	p, err := s.AddProxy(context.Background(), store.NewProxy{
		Scheme:   scheme,
		Host:     proxyAddFlags.host,
		Port:     proxyAddFlags.port,
		Username: proxyAddFlags.username,
		Password: proxyAddFlags.password,
		Provider: proxyAddFlags.provider,
		Tags:     proxyAddFlags.tags,
	})
	if err != nil {
		return cli.NewCommandError("proxy add", err)
	}

	fmt.Printf("added proxy %d (%s://%s:%d)\n", p.ID, p.Scheme, p.Host, p.Port)
	return nil
}

func runProxyLs(cmd *cobra.Command, args []string) error {
	s, err := openFleetStore()
	if err != nil {
		return err
	}
	defer s.Close()

	proxies, err := s.ListProxiesByTag(context.Background(), proxyLsFlags.tag)
	if err != nil {
		return cli.NewCommandError("proxy ls", err)
	}

	if proxyLsFlags.output == "json" {
		rows := make([]proxyRow, len(proxies))
		for i, p := range proxies {
			rows[i] = proxyRow{
				ID:       p.ID,
				Scheme:   string(p.Scheme),
				Host:     p.Host,
				Port:     p.Port,
				Provider: p.Provider,
				LastUsed: p.LastUsed.Format("2006-01-02T15:04:05Z07:00"),
			}
		}
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCHEME\tHOST\tPORT\tPROVIDER\tLAST USED")
	for _, p := range proxies {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", p.ID, p.Scheme, p.Host, p.Port, p.Provider, p.LastUsed.Format("2006-01-02T15:04:05Z07:00"))
	}
	return w.Flush()
}

func runProxyRm(cmd *cobra.Command, args []string) error {
	if proxyRmFlags.id == 0 && proxyRmFlags.tag == "" {
		return cli.NewConfigError("id/tag", "one of --id or --tag is required")
	}

	s, err := openFleetStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if proxyRmFlags.tag != "" {
		n, err := s.DeleteProxiesByTag(context.Background(), proxyRmFlags.tag)
		if err != nil {
			return cli.NewCommandError("proxy rm", err)
		}
		fmt.Printf("retired %d proxies tagged %q\n", n, proxyRmFlags.tag)
		return nil
	}

	if err := s.DeleteProxyByID(context.Background(), proxyRmFlags.id); err != nil {
		return cli.NewCommandError("proxy rm", err)
	}
	fmt.Printf("retired proxy %d\n", proxyRmFlags.id)
	return nil
}

func runProxyTag(cmd *cobra.Command, args []string) error {
	s, err := openFleetStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.TagDomain(context.Background(), proxyTagFlags.host, proxyTagFlags.tag); err != nil {
		return cli.NewCommandError("proxy tag", err)
	}
	fmt.Printf("tagged %s with %q\n", proxyTagFlags.host, proxyTagFlags.tag)
	return nil
}
