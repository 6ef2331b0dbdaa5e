package fsutil

import (
	"errors"
	"fmt"
	"io"
)

// PartialSuffix is appended to the destination name while output is being
// written. The file is renamed into place only by Commit.
const PartialSuffix = ".partial"

// AtomicFile writes to a temporary sibling of its destination and either
// renames it into place (Commit) or deletes it (Abort). Readers of the
// destination never observe a truncated file.
type AtomicFile struct {
	fsys    FileSystem
	path    string
	tmpPath string
	w       io.WriteCloser
	done    bool
}

// AtomicCreate opens a pending file that will replace path on Commit.
func AtomicCreate(fsys FileSystem, path string) (*AtomicFile, error) {
	if path == "" {
		return nil, fmt.Errorf("empty output path")
	}
	tmp := path + PartialSuffix
	w, err := fsys.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", tmp, err)
	}
	return &AtomicFile{fsys: fsys, path: path, tmpPath: tmp, w: w}, nil
}

// Write implements io.Writer.
func (a *AtomicFile) Write(p []byte) (int, error) {
	if a.done {
		return 0, errors.New("write to finished atomic file")
	}
	return a.w.Write(p)
}

// Path returns the final destination path.
func (a *AtomicFile) Path() string { return a.path }

// Commit closes the temporary file and renames it over the destination.
func (a *AtomicFile) Commit() error {
	if a.done {
		return errors.New("atomic file already finished")
	}
	a.done = true
	if err := a.w.Close(); err != nil {
		_ = a.fsys.Remove(a.tmpPath)
		return fmt.Errorf("close %s: %w", a.tmpPath, err)
	}
	if err := a.fsys.Rename(a.tmpPath, a.path); err != nil {
		_ = a.fsys.Remove(a.tmpPath)
		return fmt.Errorf("rename %s to %s: %w", a.tmpPath, a.path, err)
	}
	return nil
}

// Abort discards everything written so far. It is safe to call after
// Commit, in which case it does nothing, so callers can defer it.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	closeErr := a.w.Close()
	if err := a.fsys.Remove(a.tmpPath); err != nil {
		return fmt.Errorf("remove %s: %w", a.tmpPath, err)
	}
	return closeErr
}
