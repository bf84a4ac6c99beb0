/*
Package cli provides command-line interface utilities for the locust
command: output formatters and typed command/config errors.

Output Formatting:

The cli package defines text, JSON and CSV output formats for displaying
command results; the CSV formatter returns an error for every value:

	formatter := cli.NewFormatter(cli.FormatJSON)
	data := MyCommandResult{...}
	if err := formatter.FormatTo(os.Stdout, data); err != nil {
		return err
	}

Errors:

ConfigError and CommandError give subcommands a consistent way to report
configuration problems versus execution failures.
*/
package cli
