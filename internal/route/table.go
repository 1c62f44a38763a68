package route

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/bnema/gordon/pkg/logger"
)

type entry struct {
	pattern Pattern
	key     string
	spec    Spec
	order   int
}

// Table is an ordered set of (pattern, spec) entries. It is rebuilt
// wholesale from a snapshot; lookups only take the read lock, so
// concurrent requests never block each other once a table is built.
type Table struct {
	mu      sync.RWMutex
	entries []entry
}

// NewTable builds a route table from a pattern->spec snapshot. Go map
// iteration order is random, so snapshot must supply insertion order
// explicitly via the keys slice; callers loading from an ordered document
// (JSON object preserves key order only via a slice) pass that order here.
func NewTable(keys []string, specs map[string]Spec) *Table {
	t := &Table{}
	t.Rebuild(keys, specs)
	return t
}

// Rebuild replaces the table contents, preserving the insertion order
// given by keys. Unknown keys in specs not present in keys are ignored;
// keys missing from specs are skipped.
func (t *Table) Rebuild(keys []string, specs map[string]Spec) {
	entries := make([]entry, 0, len(keys))
	for i, k := range keys {
		spec, ok := specs[k]
		if !ok {
			continue
		}
		entries = append(entries, entry{
			pattern: Compile(k),
			key:     k,
			spec:    spec,
			order:   i,
		})
	}

	t.mu.Lock()
	t.entries = entries
	t.mu.Unlock()

	logger.Debug("route table rebuilt", "routes", len(entries))
}

// AllowListed reports whether any pattern in the table matches path,
// ignoring hostnames. Used by admission before full route resolution.
func (t *Table) AllowListed(path string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, e := range t.entries {
		if e.pattern.Match(path) {
			return true
		}
	}
	return false
}

// Resolve collects candidates whose pattern matches the URL path and
// whose hostnames (if any) include the request's host, then returns the
// one with the smallest priority, breaking ties by insertion order.
// reqHost is the raw Host header value (e.g. "svc.example:443"); its port
// is stripped and it is compared case-insensitively.
func (t *Table) Resolve(reqURL *url.URL, reqHost string) (Spec, bool) {
	path := reqURL.Path
	host := normalizeHost(reqHost)

	t.mu.RLock()
	defer t.mu.RUnlock()

	var candidates []entry
	for _, e := range t.entries {
		if !e.pattern.Match(path) {
			continue
		}
		if len(e.spec.Hostnames) > 0 && !hostMatches(host, e.spec.Hostnames) {
			continue
		}
		candidates = append(candidates, e)
	}

	if len(candidates) == 0 {
		return Spec{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := priorityOf(candidates[i].spec), priorityOf(candidates[j].spec)
		if pi != pj {
			return pi < pj
		}
		return candidates[i].order < candidates[j].order
	})

	return candidates[0].spec, true
}

func hostMatches(host string, allowed []string) bool {
	for _, h := range allowed {
		if strings.EqualFold(host, h) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	if h, _, ok := strings.Cut(host, ":"); ok {
		return h
	}
	return host
}
