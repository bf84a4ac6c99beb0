// Package ca implements the MITM certificate authority: it issues per-host
// leaf certificates signed by an operator-supplied root CA and caches the
// resulting TLS server configurations.
package ca

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	tlsutil "github.com/locust-proxy/locust/pkg/security/tls"
)

const (
	// notBeforeSkew tolerates clock drift between this host and the client.
	notBeforeSkew = -60 * time.Second
	// leafTTL is the lifetime of an issued leaf certificate.
	leafTTL = 365 * 24 * time.Hour

	// DefaultCacheCapacity is the default number of cached authorities.
	DefaultCacheCapacity = 1000
	// DefaultCacheTTL is the default cert-cache entry lifetime.
	DefaultCacheTTL = 12 * time.Hour
)

// Authority is the capability the request pipeline depends on: given a host
// authority, produce a TLS server configuration whose leaf certificate
// asserts that authority, signed by the configured root. Any implementation
// satisfying this single method can be substituted (spec §9, "dynamic
// dispatch over CA implementations") — a test double, or a differently
// backed signer.
type Authority interface {
	GenServerConfig(authority string) (*tls.Config, error)
}

// RootAuthority is the production Authority: it holds the root CA's private
// key and certificate in memory and signs leaves on demand, cached by
// authority with TTL/LRU eviction and at-most-one-in-flight-per-key
// collapsing.
type RootAuthority struct {
	mu          sync.RWMutex
	rootCert    *x509.Certificate
	rootKey     crypto.Signer
	cache       *configCache
	issuances   atomic.Int64
	watcher     *fsnotify.Watcher
	certPath    string
	keyPath     string
	enableHTTP2 bool
}

// Config configures a RootAuthority.
type Config struct {
	// RootCertPath and RootKeyPath point at PEM-encoded root material: an
	// RSA (PKCS#1 or PKCS#8) or ECDSA private key, and its self-signed
	// certificate. A mismatch between the two is a fatal startup error.
	RootCertPath string
	RootKeyPath  string

	// CacheCapacity and CacheTTL bound the issued-leaf cache (spec §4.A).
	CacheCapacity int
	CacheTTL      time.Duration

	// WatchForReload enables an fsnotify watch on RootCertPath/RootKeyPath
	// so an operator can rotate root material without a restart. Only new
	// issuances observe the new root; already-cached leaves are left alone
	// until their TTL expires.
	WatchForReload bool

	// EnableHTTP2 offers "h2" in the leaf's ALPN protocol list ahead of
	// "http/1.1", for deployments that terminate HTTP/2 on the MITM'd
	// connection. Disabled by default per spec §4.A's baseline of
	// http/1.1-only.
	EnableHTTP2 bool
}

// New loads root CA material from PEM files and constructs a RootAuthority.
func New(cfg Config) (*RootAuthority, error) {
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultCacheCapacity
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	cert, key, err := loadRootMaterial(cfg.RootCertPath, cfg.RootKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load CA material: %w", err)
	}

	a := &RootAuthority{
		rootCert:    cert,
		rootKey:     key,
		cache:       newConfigCache(cfg.CacheTTL, cfg.CacheCapacity),
		certPath:    cfg.RootCertPath,
		keyPath:     cfg.RootKeyPath,
		enableHTTP2: cfg.EnableHTTP2,
	}

	if cfg.WatchForReload {
		if err := a.watchForReload(); err != nil {
			return nil, fmt.Errorf("watch CA material: %w", err)
		}
	}

	return a, nil
}

// loadRootMaterial parses and cross-validates the PEM-encoded root key and
// certificate, grounded on cmd/mercator/certs_generate.go's key/cert
// construction but inverted to a loader: a key/cert mismatch is rejected at
// construction, per spec §4.A's failure-mode contract.
func loadRootMaterial(certPath, keyPath string) (*x509.Certificate, crypto.Signer, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read root cert: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read root key: %w", err)
	}

	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil {
		return nil, nil, fmt.Errorf("no PEM block in %s", certPath)
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse root cert: %w", err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, nil, fmt.Errorf("no PEM block in %s", keyPath)
	}

	signer, err := parsePrivateKey(keyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("parse root key: %w", err)
	}

	if !publicKeysEqual(cert.PublicKey, signer.Public()) {
		return nil, nil, fmt.Errorf("root key does not match root certificate")
	}

	if !cert.IsCA {
		return nil, nil, fmt.Errorf("root certificate is not marked as a CA")
	}

	if err := tlsutil.ValidateX509Certificate(cert); err != nil {
		return nil, nil, fmt.Errorf("root certificate: %w", err)
	}

	return cert, signer, nil
}

func parsePrivateKey(der []byte) (crypto.Signer, error) {
	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("PKCS#8 key is not a signer")
		}
		return signer, nil
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("unsupported private key encoding")
}

func publicKeysEqual(a, b crypto.PublicKey) bool {
	type equaler interface {
		Equal(crypto.PublicKey) bool
	}
	if ae, ok := a.(equaler); ok {
		return ae.Equal(b)
	}
	return false
}

// GenServerConfig implements Authority. It returns the same cached
// configuration for repeated calls on the same authority until eviction or
// TTL expiry (spec §4.A, and invariant 3 in spec §8).
func (a *RootAuthority) GenServerConfig(authority string) (*tls.Config, error) {
	cfg, err := a.cache.getOrIssue(authority, func() (*tls.Config, error) {
		return a.issue(authority)
	})
	if err != nil {
		return nil, &IssuanceError{Authority: authority, Err: err}
	}
	return cfg, nil
}

func (a *RootAuthority) issue(authority string) (*tls.Config, error) {
	a.issuances.Add(1)

	host := authority
	if h, _, err := net.SplitHostPort(authority); err == nil {
		host = h
	}

	leafKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generate leaf key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: host,
		},
		NotBefore:             now.Add(notBeforeSkew),
		NotAfter:              now.Add(notBeforeSkew).Add(leafTTL),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{host},
		SignatureAlgorithm:    x509.SHA256WithRSA,
	}
	if ip := net.ParseIP(host); ip != nil {
		template.IPAddresses = []net.IP{ip}
	}

	a.mu.RLock()
	rootCert, rootKey := a.rootCert, a.rootKey
	a.mu.RUnlock()
	if _, ok := rootKey.(*ecdsa.PrivateKey); ok {
		template.SignatureAlgorithm = x509.ECDSAWithSHA256
	}

	der, err := x509.CreateCertificate(rand.Reader, template, rootCert, &leafKey.PublicKey, rootKey)
	if err != nil {
		return nil, fmt.Errorf("sign leaf: %w", err)
	}

	leaf := tls.Certificate{
		Certificate: [][]byte{der, rootCert.Raw},
		PrivateKey:  leafKey,
	}

	nextProtos := []string{"http/1.1"}
	if a.enableHTTP2 {
		nextProtos = []string{"h2", "http/1.1"}
	}

	return &tls.Config{
		Certificates:           []tls.Certificate{leaf},
		NextProtos:             nextProtos,
		SessionTicketsDisabled: true,
	}, nil
}

// watchForReload starts an fsnotify watch on the root material directories
// and swaps the in-memory root on write/rename events. Grounded on
// pkg/policy/git/watcher.go's fsnotify-event-loop idiom.
func (a *RootAuthority) watchForReload() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, p := range []string{a.certPath, a.keyPath} {
		dir := p
		if idx := strings.LastIndex(p, "/"); idx >= 0 {
			dir = p[:idx]
		}
		if err := w.Add(dir); err != nil {
			w.Close()
			return err
		}
	}
	a.watcher = w

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				cert, key, err := loadRootMaterial(a.certPath, a.keyPath)
				if err != nil {
					continue
				}
				a.mu.Lock()
				a.rootCert, a.rootKey = cert, key
				a.mu.Unlock()
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}

// Stats reports cache occupancy and issuance counts.
func (a *RootAuthority) Stats() (cacheSize int, issuances int64) {
	return a.cache.size(), a.issuances.Load()
}

// Close stops the cache's background eviction loop and, if enabled, the
// material watcher.
func (a *RootAuthority) Close() error {
	a.cache.close()
	if a.watcher != nil {
		return a.watcher.Close()
	}
	return nil
}
