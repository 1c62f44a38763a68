package cidrguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBlacklist(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "blacklist.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestBlacklistMissingFileAllowsEverything(t *testing.T) {
	b := NewBlacklist(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	assert.False(t, b.Blocked("203.0.113.5"))
}

func TestBlacklistExactIPMatch(t *testing.T) {
	path := writeBlacklist(t, "ips:\n  - 203.0.113.5\n")
	b := NewBlacklist(path)
	assert.True(t, b.Blocked("203.0.113.5"))
	assert.False(t, b.Blocked("203.0.113.6"))
}

func TestBlacklistRangeMatch(t *testing.T) {
	path := writeBlacklist(t, "ranges:\n  - 198.51.100.0/24\n")
	b := NewBlacklist(path)
	assert.True(t, b.Blocked("198.51.100.42"))
	assert.False(t, b.Blocked("203.0.113.5"))
}

func TestBlacklistReloadsOnChange(t *testing.T) {
	path := writeBlacklist(t, "ips:\n  - 203.0.113.5\n")
	b := NewBlacklist(path)
	assert.True(t, b.Blocked("203.0.113.5"))
	assert.False(t, b.Blocked("198.51.100.1"))

	require.NoError(t, os.WriteFile(path, []byte("ips:\n  - 198.51.100.1\n"), 0o644))

	assert.True(t, b.Blocked("198.51.100.1"), "updated file content should take effect on next check")
}

func TestBlacklistLogBlockedDoesNotPanic(t *testing.T) {
	path := writeBlacklist(t, "ips:\n  - 203.0.113.5\n")
	b := NewBlacklist(path)
	assert.NotPanics(t, func() {
		b.LogBlocked("203.0.113.5", "/admin")
		b.LogBlocked("203.0.113.5", "/admin")
	})
}
