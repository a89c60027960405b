// Package paths resolves the project root and the paths configured relative
// to it.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfigDirName is the per-project config directory.
const ConfigDirName = ".modhost"

// ConfigFileName is the config file inside ConfigDirName.
const ConfigFileName = "config.yaml"

// FindRoot walks up from start to the first directory holding a
// ConfigDirName directory. Returns start (cleaned) when none is found.
func FindRoot(start string) string {
	if start == "" {
		start = "."
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return filepath.Clean(start)
	}

	for dir := abs; ; {
		if info, err := os.Stat(filepath.Join(dir, ConfigDirName)); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		dir = parent
	}
}

// ResolveConfigDir resolves the config directory from user input.
//
// Input normalization:
//   - "/path/to/project" -> "/path/to/project/.modhost"
//   - "/path/to/project/.modhost" -> "/path/to/project/.modhost"
//   - "/path/to/shared" (containing config.yaml) -> "/path/to/shared"
//   - "" -> "./.modhost"
//
// A redirect file inside the directory points at a shared config directory,
// relative to the directory holding it.
func ResolveConfigDir(path string) string {
	if path == "" {
		path = "."
	}
	path = filepath.Clean(path)

	if filepath.Base(path) == ConfigDirName {
		return followRedirect(path)
	}
	if _, err := os.Stat(filepath.Join(path, ConfigFileName)); err == nil {
		return followRedirect(path)
	}
	return followRedirect(filepath.Join(path, ConfigDirName))
}

func followRedirect(dir string) string {
	content, err := os.ReadFile(filepath.Join(dir, "redirect")) //nolint:gosec // redirect path is within the config dir
	if err != nil {
		return dir
	}
	target := strings.TrimSpace(string(content))
	if target == "" {
		return dir
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(dir, target))
}

// Resolve joins a configured path onto root unless it is already absolute.
// "~/" is expanded to the user's home directory. Empty stays empty.
func Resolve(root, p string) string {
	if p == "" {
		return ""
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
