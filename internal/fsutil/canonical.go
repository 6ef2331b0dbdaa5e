package fsutil

import (
	"fmt"
	"path/filepath"
)

// CanonicalPath returns the absolute, symlink-resolved form of path. The
// path itself need not exist: the deepest existing ancestor is resolved and
// the remaining components are joined onto it, so an output file that has
// not been written yet still canonicalises through a symlinked directory.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	check := abs
	for {
		parent := filepath.Dir(check)
		if parent == check {
			// Nothing on the way up exists.
			return abs, nil
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rel, err := filepath.Rel(parent, abs)
			if err != nil {
				return "", err
			}
			return filepath.Join(resolved, rel), nil
		}
		check = parent
	}
}

// SamePath reports whether a and b name the same file once made absolute
// and symlinks are resolved.
func SamePath(a, b string) (bool, error) {
	ca, err := CanonicalPath(a)
	if err != nil {
		return false, err
	}
	cb, err := CanonicalPath(b)
	if err != nil {
		return false, err
	}
	return ca == cb, nil
}
