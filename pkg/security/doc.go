/*
Package security is the parent of pkg/security/tls, the certificate
validation helper pkg/ca uses to sanity-check root CA material at load
time. Locust has no inbound authentication or secret-manager surface of
its own to place alongside it (see DESIGN.md).
*/
package security
