// Package routedoc loads the on-disk JSON route document into an
// ordered route.Table snapshot, so the binary is runnable end to end
// from a configuration file rather than requiring callers to build
// route.Spec values in code.
package routedoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bnema/gordon/internal/route"
	"github.com/bnema/gordon/pkg/logger"
)

// jsonSpec mirrors the wire shape of a route spec in the document: the
// target field is polymorphic (string, list of strings, or "file:" URL),
// so it is decoded into json.RawMessage and resolved separately.
type jsonSpec struct {
	To              json.RawMessage `json:"to"`
	Priority        *int            `json:"priority"`
	Hostnames       []string        `json:"hostnames"`
	Secure          bool            `json:"secure"`
	WebSocket       bool            `json:"websocket"`
	AllowedCidrs    *[]string       `json:"allowedCidrs"`
	IgnoreProxiedIP bool            `json:"ignoreProxiedIP"`
	ContentType     string          `json:"contentType"`
	EnableCors      bool            `json:"enableCors"`
}

// Document is an ordered pattern -> spec snapshot, ready to feed
// route.NewTable / route.Table.Rebuild.
type Document struct {
	Keys  []string
	Specs map[string]route.Spec
}

// Load reads the primary PATH_FILE document and merges any bundles found
// under pathsDir, later bundles overriding earlier ones (and the primary
// document) on pattern collision.
func Load(pathFile, pathsDir string) (Document, error) {
	doc, err := decodeFile(pathFile)
	if err != nil {
		return Document{}, fmt.Errorf("loading %s: %w", pathFile, err)
	}

	bundles, err := bundleFiles(pathsDir)
	if err != nil {
		logger.Warn("failed to list route bundles", "dir", pathsDir, "error", err)
		bundles = nil
	}

	for _, path := range bundles {
		bundle, err := decodeFile(path)
		if err != nil {
			logger.Warn("skipping malformed route bundle", "path", path, "error", err)
			continue
		}
		doc = merge(doc, bundle)
	}

	return doc, nil
}

func bundleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func merge(base, overlay Document) Document {
	keys := append([]string{}, base.Keys...)
	specs := make(map[string]route.Spec, len(base.Specs)+len(overlay.Specs))
	for k, v := range base.Specs {
		specs[k] = v
	}
	for _, k := range overlay.Keys {
		if _, exists := specs[k]; !exists {
			keys = append(keys, k)
		}
		specs[k] = overlay.Specs[k]
	}
	return Document{Keys: keys, Specs: specs}
}

func decodeFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Decode(data)
}

// Decode parses raw JSON document bytes into an ordered Document,
// preserving object key order via a manual token scan since
// encoding/json's map decoding does not expose it.
func Decode(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return Document{}, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Document{}, fmt.Errorf("route document must be a JSON object")
	}

	doc := Document{Specs: map[string]route.Spec{}}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Document{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Document{}, fmt.Errorf("route document key is not a string")
		}

		var raw jsonSpec
		if err := dec.Decode(&raw); err != nil {
			return Document{}, fmt.Errorf("decoding route %q: %w", key, err)
		}

		spec, err := raw.toSpec(key)
		if err != nil {
			return Document{}, err
		}

		if _, exists := doc.Specs[key]; !exists {
			doc.Keys = append(doc.Keys, key)
		}
		doc.Specs[key] = spec
	}

	return doc, nil
}

func (j jsonSpec) toSpec(pattern string) (route.Spec, error) {
	target, err := j.target()
	if err != nil {
		return route.Spec{}, fmt.Errorf("route %q: %w", pattern, err)
	}

	var cidrs []string
	if j.AllowedCidrs != nil {
		cidrs = *j.AllowedCidrs
	}

	return route.Spec{
		Pattern:         pattern,
		Target:          target,
		Priority:        j.Priority,
		Hostnames:       j.Hostnames,
		Secure:          j.Secure,
		WebSocket:       j.WebSocket,
		AllowedCIDRs:    cidrs,
		IgnoreProxiedIP: j.IgnoreProxiedIP,
		ContentType:     j.ContentType,
		EnableCORS:      j.EnableCors,
	}, nil
}

func (j jsonSpec) target() (route.Target, error) {
	if len(j.To) == 0 {
		return route.Target{}, nil
	}

	var single string
	if err := json.Unmarshal(j.To, &single); err == nil {
		if rest, ok := strings.CutPrefix(single, "file:"); ok {
			return route.Target{File: rest}, nil
		}
		return route.Target{Remote: single}, nil
	}

	var list []string
	if err := json.Unmarshal(j.To, &list); err == nil {
		return route.Target{RemotePool: list}, nil
	}

	return route.Target{}, fmt.Errorf("unsupported target shape: %s", string(j.To))
}
