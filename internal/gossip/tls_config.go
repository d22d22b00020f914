package gossip

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig builds the mutual-TLS configuration every peer link uses:
// the server's own certificate/key plus a pool of the peer certificates
// it is willing to accept, since the gossip mesh is a closed set of
// known servers rather than a public-facing listener.
func TLSConfig(certFile, keyFile string, peerCertFiles []string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("gossip: load TLS certificate: %w", err)
	}

	pool := x509.NewCertPool()
	for _, path := range peerCertFiles {
		pem, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("gossip: read peer certificate %s: %w", path, err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("gossip: no certificates parsed from %s", path)
		}
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
