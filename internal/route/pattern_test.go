package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileAndMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"exact match", "/api/health", "/api/health", true},
		{"exact mismatch", "/api/health", "/api/healthz", false},
		{"wildcard suffix", "/api/*", "/api/v1/users", true},
		{"wildcard suffix no match", "/api/*", "/other/v1/users", false},
		{"wildcard middle", "/api/*/users", "/api/v1/users", true},
		{"wildcard does not match empty differently", "/api/*", "/api/", true},
		{"regex metacharacters escaped", "/a.b", "/axb", false},
		{"regex metacharacters escaped literal dot matches", "/a.b", "/a.b", true},
		{"root wildcard matches everything", "*", "/anything/at/all", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compile(tt.pattern)
			assert.Equal(t, tt.want, p.Match(tt.path))
		})
	}
}

func TestPatternString(t *testing.T) {
	p := Compile("/api/*")
	assert.Equal(t, "/api/*", p.String())
}
