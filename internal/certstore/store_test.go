package certstore

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreExactHostMatch(t *testing.T) {
	s := New()
	cert := selfSignedCert(t)
	s.Put("Example.COM", &cert)

	got, err := s.GetCertificate(&tls.ClientHelloInfo{ServerName: "example.com"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Same(t, &cert, got)
}

func TestStoreFallsBackToDefault(t *testing.T) {
	s := New()
	def := selfSignedCert(t)
	s.SetDefault(&def)

	got, err := s.GetCertificate(&tls.ClientHelloInfo{ServerName: "unknown.example.com"})
	require.NoError(t, err)
	assert.Same(t, &def, got)
}

func TestStoreNoMatchNoDefaultReturnsNil(t *testing.T) {
	s := New()
	got, err := s.GetCertificate(&tls.ClientHelloInfo{ServerName: "unknown.example.com"})
	require.NoError(t, err)
	assert.Nil(t, got)
}
