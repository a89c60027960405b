package host

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Filesystem is the file access the module layer needs from its host.
type Filesystem interface {
	// Fs exposes the underlying afero filesystem for manifest IO.
	Fs() afero.Fs
	Glob(pattern string) ([]string, error)
	Exists(path string) bool
	IsDir(path string) bool
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	DeleteDirectory(path string) error
	// RealPath returns the canonical absolute form of path, or "" when
	// path does not exist.
	RealPath(path string) string
}

// AferoFilesystem implements Filesystem on top of an afero.Fs.
type AferoFilesystem struct {
	fs afero.Fs
}

var _ Filesystem = (*AferoFilesystem)(nil)

// NewFilesystem wraps fs.
func NewFilesystem(fs afero.Fs) *AferoFilesystem {
	return &AferoFilesystem{fs: fs}
}

// NewOsFilesystem returns a Filesystem backed by the real disk.
func NewOsFilesystem() *AferoFilesystem {
	return NewFilesystem(afero.NewOsFs())
}

func (f *AferoFilesystem) Fs() afero.Fs {
	return f.fs
}

// Glob returns the names of all files matching pattern, sorted.
func (f *AferoFilesystem) Glob(pattern string) ([]string, error) {
	matches, err := afero.Glob(f.fs, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	return matches, nil
}

func (f *AferoFilesystem) Exists(path string) bool {
	ok, err := afero.Exists(f.fs, path)
	return err == nil && ok
}

func (f *AferoFilesystem) IsDir(path string) bool {
	ok, err := afero.IsDir(f.fs, path)
	return err == nil && ok
}

func (f *AferoFilesystem) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(f.fs, path)
}

// WriteFile writes data to path, creating parent directories.
func (f *AferoFilesystem) WriteFile(path string, data []byte) error {
	if err := f.fs.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	return afero.WriteFile(f.fs, path, data, 0644)
}

// DeleteDirectory removes path and everything below it.
func (f *AferoFilesystem) DeleteDirectory(path string) error {
	if !f.IsDir(path) {
		return fmt.Errorf("delete %s: %w", path, os.ErrNotExist)
	}
	return f.fs.RemoveAll(path)
}

func (f *AferoFilesystem) RealPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	if _, ok := f.fs.(*afero.OsFs); ok {
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return ""
		}
		return resolved
	}
	if !f.Exists(abs) {
		return ""
	}
	return abs
}
