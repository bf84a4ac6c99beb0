package tls

import (
	"crypto/x509"
	"fmt"
	"time"
)

// ValidateX509Certificate validates an x509 certificate for expiration,
// used by pkg/ca to reject a root certificate that is not yet valid or has
// already expired at load time.
func ValidateX509Certificate(cert *x509.Certificate) error {
	now := time.Now()

	if now.Before(cert.NotBefore) {
		return fmt.Errorf("certificate is not yet valid (valid from %s)", cert.NotBefore.Format(time.RFC3339))
	}

	if now.After(cert.NotAfter) {
		return fmt.Errorf("certificate expired on %s", cert.NotAfter.Format(time.RFC3339))
	}

	return nil
}
