// Package dotdir resolves the .aish/ directory that holds config.toml.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the aish directory.
	DirName = ".aish"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .aish/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.aish/ dir
//  3. Home ~/.aish/ dir
//
// The resolved directory is created if it does not exist yet.
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, DirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, DirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating aish directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// Local creates ./.aish/ in the current working directory and returns its
// absolute path. Used by "aish init" to pin configuration to a project.
func (m *Manager) Local() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating aish directory %s: %w", dir, err)
	}
	return dir, nil
}

// localDirExists checks whether a .aish/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, DirName))
	return err == nil && info.IsDir()
}
