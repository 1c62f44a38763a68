package certstore

import (
	"crypto/tls"
	"os"
	"path/filepath"

	"github.com/bnema/gordon/pkg/logger"
)

// LoadFromDisk populates a Store from an on-disk layout:
//
//	<sslDir>/key.pem, <sslDir>/certificate.pem         -- default cert
//	<sslDir>/<hostname>/key.pem, .../certificate.pem   -- per-SNI cert
//
// This is a single synchronous directory walk: population order is
// deterministic and complete before the store is handed to the TLS
// listener, rather than racing an async per-entry stat scan against it.
func LoadFromDisk(sslDir string) (*Store, error) {
	s := New()

	if cert, err := loadPair(sslDir); err == nil {
		s.SetDefault(cert)
	} else {
		logger.Warn("no default certificate found", "dir", sslDir, "error", err)
	}

	entries, err := os.ReadDir(sslDir)
	if err != nil {
		return s, err
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		host := e.Name()
		cert, err := loadPair(filepath.Join(sslDir, host))
		if err != nil {
			logger.Warn("skipping certificate directory", "host", host, "error", err)
			continue
		}
		s.Put(host, cert)
		logger.Debug("loaded certificate", "host", host)
	}

	return s, nil
}

func loadPair(dir string) (*tls.Certificate, error) {
	certPath := filepath.Join(dir, "certificate.pem")
	keyPath := filepath.Join(dir, "key.pem")

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
