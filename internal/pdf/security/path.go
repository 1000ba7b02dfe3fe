// Package security confines file access to the configured PDF directory.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathValidator checks that paths stay inside a root directory, after
// resolving symlinks on both sides.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at directory
func NewPathValidator(directory string) (*PathValidator, error) {
	if directory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	root, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	return &PathValidator{root: filepath.Clean(root)}, nil
}

// ValidatePath returns an error unless path resolves inside the root.
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	within, err := v.IsPathWithinDirectory(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// IsPathWithinDirectory reports whether path, once made absolute and
// stripped of symlinks, is the root or lies below it.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}

	root := resolve(v.root)
	target := resolve(filepath.Clean(absPath))

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false, nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}
	return true, nil
}

// Resolve joins a relative path onto the root; absolute paths are returned cleaned.
func (v *PathValidator) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(v.root, path)
}

// GetConfiguredDirectory returns the absolute root directory
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.root
}

// resolve evaluates symlinks on the longest existing prefix of path.
func resolve(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(resolve(parent), filepath.Base(path))
}
