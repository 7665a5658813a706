package script

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bft-labs/abacus/internal/command"
	"github.com/bft-labs/abacus/internal/registry"
	"github.com/bft-labs/abacus/pkg/log"
)

// loader builds the commands defined by one file.
type loader func(path string, env *command.Env) ([]command.Command, error)

var loaders = map[string]loader{
	".toml": loadTOMLDescriptor,
	".yaml": loadYAMLDescriptor,
	".yml":  loadYAMLDescriptor,
	".lua":  loadLua,
}

// Supported reports whether path has an extension the loader understands.
func Supported(path string) bool {
	_, ok := loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Sources returns one plugin source per supported file in dir, ordered by
// file name. A missing directory yields no sources.
func Sources(dir string, logger log.Logger) ([]registry.Source, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("plugin directory not found", log.String("dir", dir))
			return nil, nil
		}
		return nil, fmt.Errorf("read plugin dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var sources []registry.Source
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		load, ok := loaders[ext]
		if !ok {
			logger.Debug("ignoring plugin file", log.String("file", e.Name()))
			continue
		}
		path := filepath.Join(dir, e.Name())
		sources = append(sources, registry.SourceFunc(e.Name(), func(env *command.Env) ([]command.Command, error) {
			return load(path, env)
		}))
	}
	return sources, nil
}
