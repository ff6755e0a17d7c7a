package utils

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// GetSecureTLSConfig returns a TLS configuration with certificate
// validation against the system pool, extended with any custom CA
// certificates named by the CUSTOM_CA_CERTS_PATH environment variable
// (multiple files separated by ':').
func GetSecureTLSConfig() *tls.Config {
	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		log.Warnf("Failed to load system certificate pool, using empty pool: %v", err)
		rootCAs = x509.NewCertPool()
	}
	loadCustomCACerts(rootCAs)

	return &tls.Config{
		RootCAs:    rootCAs,
		MinVersion: tls.VersionTLS12,
	}
}

func loadCustomCACerts(pool *x509.CertPool) {
	customCAPath := os.Getenv("CUSTOM_CA_CERTS_PATH")
	if customCAPath == "" {
		return
	}
	for _, path := range strings.Split(customCAPath, ":") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("Failed to read certificate file %s: %v", path, err)
			continue
		}
		if ok := pool.AppendCertsFromPEM(data); !ok {
			log.Warnf("Failed to parse certificate from file %s", path)
		}
	}
}
