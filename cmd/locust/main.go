// Locust is a transparent, session-sticky HTTP/HTTPS forward proxy: it
// terminates client TLS with dynamically minted leaf certificates, learns
// which upstream egress proxy serves a given domain best, and pins a
// client's session to that proxy for its lifetime.
//
// Usage:
//
//	# Start the proxy with default configuration
//	locust run
//
//	# Start with a custom configuration file
//	locust run --config /path/to/config.yaml
//
//	# Manage the upstream proxy fleet
//	locust proxy add --host 10.0.0.5 --port 8080 --scheme http --tag residential
//	locust proxy ls --tag residential
//	locust proxy rm --id 12
//
//	# Show version information
//	locust version
package main

func main() {
	Execute()
}
