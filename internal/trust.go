package internal

import (
	"crypto/x509"
	"sync"

	"github.com/breml/rootcerts/embedded"
)

var (
	mozillaOnce sync.Once
	mozillaPool *x509.CertPool
)

// mozillaRoots lazily parses the embedded Mozilla root bundle. The bundle is
// static, so one parse serves the process lifetime.
func mozillaRoots() *x509.CertPool {
	mozillaOnce.Do(func() {
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM([]byte(embedded.MozillaCACertificatesPEM())) {
			mozillaPool = pool
		}
	})
	return mozillaPool
}

// MozillaTrusted reports whether the certificate verifies as a root against
// the embedded Mozilla CA bundle. This is a display annotation for analyzed
// chains, not a trust decision: the assembled truststore defines what the
// client actually trusts.
func MozillaTrusted(cert *x509.Certificate) bool {
	pool := mozillaRoots()
	if pool == nil {
		return false
	}
	_, err := cert.Verify(x509.VerifyOptions{Roots: pool})
	return err == nil
}
