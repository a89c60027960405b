package host

import (
	"errors"
	"fmt"
	"os"
)

// UsedModule persists the "currently used" module name for CLI sessions.
//
// The whole file content is the name, written and read back verbatim.
// There is no locking: with two concurrent writers the last write wins.
type UsedModule struct {
	files Filesystem
	path  string
}

// NewUsedModule stores the used module name in the file at path.
func NewUsedModule(files Filesystem, path string) *UsedModule {
	return &UsedModule{files: files, path: path}
}

// Path returns the sentinel file location.
func (u *UsedModule) Path() string {
	return u.path
}

// Set records name as the used module.
func (u *UsedModule) Set(name string) error {
	if err := u.files.WriteFile(u.path, []byte(name)); err != nil {
		return fmt.Errorf("store used module: %w", err)
	}
	return nil
}

// Get returns the stored name, or "" when nothing is stored.
func (u *UsedModule) Get() (string, error) {
	data, err := u.files.ReadFile(u.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read used module: %w", err)
	}
	return string(data), nil
}

// Forget removes the stored name. Forgetting when nothing is stored is not
// an error.
func (u *UsedModule) Forget() error {
	if !u.files.Exists(u.path) {
		return nil
	}
	if err := u.files.Fs().Remove(u.path); err != nil {
		return fmt.Errorf("forget used module: %w", err)
	}
	return nil
}
