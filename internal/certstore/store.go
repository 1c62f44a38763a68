// Package certstore implements an SNI-driven certificate resolver: a map
// of lowercased host -> certificate, with a default fallback, safe for
// concurrent reads during a startup window where entries are still being
// populated.
package certstore

import (
	"crypto/tls"
	"strings"
	"sync"

	"golang.org/x/crypto/acme/autocert"

	"github.com/bnema/gordon/pkg/logger"
)

// Store resolves a TLS SNI host name to a certificate. Entries may be
// added concurrently during startup; once listening begins, the
// steady-state contract is read-only.
type Store struct {
	mu      sync.RWMutex
	certs   map[string]*tls.Certificate
	def     *tls.Certificate
	autocrt *autocert.Manager // optional fallback for unmapped SNI names
}

// New creates an empty store with no default certificate.
func New() *Store {
	return &Store{certs: make(map[string]*tls.Certificate)}
}

// Put registers a certificate under a lowercased host name.
func (s *Store) Put(host string, cert *tls.Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs[strings.ToLower(host)] = cert
}

// SetDefault registers the fallback certificate used when no SNI match
// is found and the autocert manager, if configured, yields no certificate.
func (s *Store) SetDefault(cert *tls.Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.def = cert
}

// SetAutocert wires an optional autocert.Manager as an additional
// certificate source for hosts not present in the static map.
func (s *Store) SetAutocert(m *autocert.Manager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autocrt = m
}

// GetCertificate implements tls.Config.GetCertificate. Matching is exact
// lowercase equality on SNI host name; it never returns an entry for an
// unrelated host.
func (s *Store) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	host := strings.ToLower(hello.ServerName)

	s.mu.RLock()
	cert, ok := s.certs[host]
	autocrt := s.autocrt
	def := s.def
	s.mu.RUnlock()

	if ok {
		return cert, nil
	}

	if autocrt != nil {
		if cert, err := autocrt.GetCertificate(hello); err == nil {
			return cert, nil
		}
		logger.Debug("autocert miss, falling back to default certificate", "host", host)
	}

	if def != nil {
		return def, nil
	}

	return nil, nil
}
