package routedoc

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bnema/gordon/pkg/logger"
)

// LoadResponses reads ./responses/<code>.html files into the status-code
// keyed body map the error responder consumes.
func LoadResponses(dir string) map[string][]byte {
	bodies := map[string][]byte{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Debug("no static responses directory", "dir", dir, "error", err)
		return bodies
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		code := strings.TrimSuffix(name, filepath.Ext(name))
		if _, err := strconv.Atoi(code); err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("failed to read static response", "file", name, "error", err)
			continue
		}
		bodies[code] = data
	}

	return bodies
}
