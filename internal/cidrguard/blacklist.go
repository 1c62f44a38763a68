package cidrguard

import (
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bnema/gordon/pkg/logger"
)

// Blacklist is a process-wide, optional deny-list layered in front of
// per-route allowedCidrs: a YAML document of exact IPs and CIDR ranges,
// reloaded from disk on a modification-time check, with throttled
// logging of blocked requests.
type Blacklist struct {
	path string

	mu       sync.RWMutex
	ips      map[string]struct{}
	networks []*net.IPNet
	lastMod  time.Time

	logMu         sync.Mutex
	lastBlockLog  time.Time
	blockedCounts map[string]int
}

type blacklistDoc struct {
	IPs    []string `yaml:"ips"`
	Ranges []string `yaml:"ranges"`
}

// NewBlacklist loads path if present; a missing file yields an empty,
// always-allowing blacklist rather than an error.
func NewBlacklist(path string) *Blacklist {
	b := &Blacklist{
		path:          path,
		ips:           map[string]struct{}{},
		blockedCounts: map[string]int{},
	}
	b.reload()
	return b
}

// reload re-reads the blacklist file if it changed since the last load.
// It tolerates a missing or malformed file by leaving the current state
// in place; when nothing has been loaded yet, that state blocks nothing.
func (b *Blacklist) reload() {
	info, err := os.Stat(b.path)
	if err != nil {
		return
	}

	b.mu.RLock()
	unchanged := info.ModTime().Equal(b.lastMod)
	b.mu.RUnlock()
	if unchanged {
		return
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		logger.Warn("failed to read blacklist file", "path", b.path, "error", err)
		return
	}

	var doc blacklistDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		logger.Warn("failed to parse blacklist file", "path", b.path, "error", err)
		return
	}

	ips := make(map[string]struct{}, len(doc.IPs))
	for _, ip := range doc.IPs {
		ips[ip] = struct{}{}
	}

	nets := make([]*net.IPNet, 0, len(doc.Ranges))
	for _, cidr := range doc.Ranges {
		if !strings.Contains(cidr, "/") {
			cidr += "/32"
		}
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, n)
		}
	}

	b.mu.Lock()
	b.ips = ips
	b.networks = nets
	b.lastMod = info.ModTime()
	b.mu.Unlock()
}

// Blocked reports whether ip is blacklisted, refreshing the on-disk
// document first (cheap: a single os.Stat on the unchanged path).
func (b *Blacklist) Blocked(ip string) bool {
	b.reload()

	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.ips[ip]; ok {
		return true
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return containsAny(b.networks, parsed)
}

// LogBlocked emits a throttled log line for a blocked request: at most one
// line every five minutes across all IPs. Blocks inside that window are
// counted per IP but not logged.
func (b *Blacklist) LogBlocked(ip, path string) {
	b.logMu.Lock()
	defer b.logMu.Unlock()

	now := time.Now()
	if b.lastBlockLog.IsZero() || now.Sub(b.lastBlockLog) > 5*time.Minute {
		logger.Info("blocked request from blacklisted ip", "ip", ip, "path", path)
		b.blockedCounts = map[string]int{ip: 1}
		b.lastBlockLog = now
		return
	}
	b.blockedCounts[ip]++
}
