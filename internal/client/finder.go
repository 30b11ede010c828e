package client

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrExecutableNotFound indicates the provider's CLI binary could not be
// located in any known path or on PATH.
var ErrExecutableNotFound = errors.New("executable not found")

// ExecutableFinder locates a CLI binary. Known paths are checked first
// (in order), then PATH. Path templates may contain "~" for the home
// directory and "{name}" for the executable name; ".exe" is appended on
// Windows automatically.
type ExecutableFinder struct {
	name       string
	knownPaths []string
}

// FinderOption configures an ExecutableFinder.
type FinderOption func(*ExecutableFinder)

// WithKnownPaths sets the priority-ordered path templates to check
// before falling back to PATH lookup.
func WithKnownPaths(paths ...string) FinderOption {
	return func(f *ExecutableFinder) {
		f.knownPaths = append(f.knownPaths, paths...)
	}
}

// NewExecutableFinder creates a finder for the named executable.
func NewExecutableFinder(name string, opts ...FinderOption) *ExecutableFinder {
	f := &ExecutableFinder{name: name}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns the absolute path of the executable, checking known paths
// first and PATH last.
func (f *ExecutableFinder) Find() (string, error) {
	name := f.name
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		name += ".exe"
	}

	for _, tmpl := range f.knownPaths {
		path := strings.ReplaceAll(tmpl, "{name}", name)
		if strings.HasPrefix(path, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				continue
			}
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	if path, err := exec.LookPath(f.name); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("%w: %q not found in known paths %v or on PATH",
		ErrExecutableNotFound, f.name, f.knownPaths)
}
