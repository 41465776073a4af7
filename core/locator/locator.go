package locator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdlkit/mdlkit/core/logger"
)

// Extensions are the recognized model file extensions, in probe order.
var Extensions = []string{".mdl", ".mdlx"}

// excludeDirs are never descended into when scanning for model files.
var excludeDirs = []string{".git", "node_modules", "vendor"}

// IsModelFile reports whether path carries a recognized model extension.
func IsModelFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ModelName derives the model name from a file path: the base name with
// the extension stripped.
func ModelName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Locator resolves model names to model files across a set of search
// paths.
type Locator struct {
	paths []string
}

func New(paths []string) *Locator {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return &Locator{paths: paths}
}

// Resolve finds the model file for a bare model name. Each search path
// is probed directly with every recognized extension first; only then
// does a recursive scan run, so a flat workspace never pays for a walk.
func (l *Locator) Resolve(name string) (string, error) {
	for _, root := range l.paths {
		for _, ext := range Extensions {
			candidate := filepath.Join(root, name+ext)
			if _, err := os.Stat(candidate); err == nil {
				logger.Debug("Resolved model %s to %s", name, candidate)
				return candidate, nil
			}
		}
	}

	for _, root := range l.paths {
		found, err := l.scan(root, name)
		if err != nil {
			logger.Debug("Scan of %s failed: %v", root, err)
			continue
		}
		if found != "" {
			logger.Debug("Resolved model %s to %s", name, found)
			return found, nil
		}
	}

	return "", fmt.Errorf("no model file for %q under %v", name, l.paths)
}

// Candidates lists every model file under the search paths, for the
// interactive picker and the watcher.
func (l *Locator) Candidates() ([]string, error) {
	var files []string
	for _, root := range l.paths {
		err := walkModels(root, func(path string) {
			files = append(files, path)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", root, err)
		}
	}
	return files, nil
}

// Roots returns the search paths themselves, for watch registration.
func (l *Locator) Roots() []string {
	return l.paths
}

func (l *Locator) scan(root, name string) (string, error) {
	var found string
	err := walkModels(root, func(path string) {
		if found == "" && ModelName(path) == name {
			found = path
		}
	})
	return found, err
}

func walkModels(root string, visit func(path string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, ex := range excludeDirs {
				if d.Name() == ex {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if IsModelFile(path) {
			visit(path)
		}
		return nil
	})
}
