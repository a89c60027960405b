// Package module describes one discovered module: a directory holding a
// module.json manifest, plus the register/boot/enable/disable lifecycle that
// hands the module off to the host's container, router, translations and
// event broker.
package module

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zjrosen/modhost/internal/host"
	"github.com/zjrosen/modhost/internal/log"
	"github.com/zjrosen/modhost/internal/manifest"
)

// ErrNoPath is returned when a module was built for a directory that does
// not exist.
var ErrNoPath = errors.New("module directory does not exist")

// Module is one discovered module. Manifest documents are parsed on first
// use and cached per file name, as are read failures.
type Module struct {
	host *host.Host
	name string
	path string

	mu     sync.Mutex
	docs   map[string]*manifest.Document
	failed map[string]error
}

var _ host.Subject = (*Module)(nil)

// New builds the module name living in dir. dir is resolved to its canonical
// absolute path; when it does not exist the path is left empty and every
// manifest lookup falls back to its default.
func New(h *host.Host, name, dir string) *Module {
	m := &Module{
		host:   h,
		name:   name,
		path:   h.Files.RealPath(dir),
		docs:   make(map[string]*manifest.Document),
		failed: make(map[string]error),
	}
	if m.path == "" {
		log.Debug(log.CatModule, "module directory not found", "module", name, "path", dir)
	}
	return m
}

// Name returns the name the module was registered under.
func (m *Module) Name() string {
	return m.name
}

func (m *Module) LowerName() string {
	return strings.ToLower(m.name)
}

func (m *Module) StudlyName() string {
	return Studly(m.name)
}

func (m *Module) SnakeName() string {
	return Snake(m.name)
}

func (m *Module) String() string {
	return m.StudlyName()
}

// Path returns the module directory, or "" if it did not exist at
// construction.
func (m *Module) Path() string {
	return m.path
}

// SetPath points the module at another directory and drops parsed
// manifests.
func (m *Module) SetPath(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = dir
	m.docs = make(map[string]*manifest.Document)
	m.failed = make(map[string]error)
}

// ExtraPath joins rel onto the module directory.
func (m *Module) ExtraPath(rel string) string {
	return filepath.Join(m.path, rel)
}

// Json returns the parsed manifest file, reading it on first use. A file
// that could not be read is not retried until SetPath.
func (m *Module) Json(file string) (*manifest.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc, ok := m.docs[file]; ok {
		return doc, nil
	}
	if err, ok := m.failed[file]; ok {
		return nil, err
	}
	if m.path == "" {
		return nil, fmt.Errorf("module %s: %w", m.name, ErrNoPath)
	}

	doc, err := manifest.Load(m.host.Files.Fs(), filepath.Join(m.path, file))
	if err != nil {
		m.failed[file] = err
		return nil, err
	}
	m.docs[file] = doc
	return doc, nil
}

// document returns file, or an empty document when it cannot be read.
func (m *Module) document(file string) *manifest.Document {
	doc, err := m.Json(file)
	if err == nil {
		return doc
	}
	if !errors.Is(err, os.ErrNotExist) && !errors.Is(err, ErrNoPath) {
		log.Warn(log.CatModule, "unreadable manifest", "module", m.name, "file", file, "error", err)
	}
	return manifest.Empty(m.host.Files.Fs(), filepath.Join(m.path, file))
}

// Get looks up a dotted key in module.json, returning def when absent.
func (m *Module) Get(key string, def any) any {
	return m.document(manifest.ModuleFile).Get(key, def)
}

// ComposerAttr looks up a dotted key in composer.json.
func (m *Module) ComposerAttr(key string, def any) any {
	return m.document(manifest.ComposerFile).Get(key, def)
}

func (m *Module) Alias() string {
	return m.document(manifest.ModuleFile).String("alias", "")
}

func (m *Module) Description() string {
	return m.document(manifest.ModuleFile).String("description", "")
}

// Priority is informational only; ordering uses Order.
func (m *Module) Priority() int {
	return m.document(manifest.ModuleFile).Int("priority", 0)
}

// Order is the sort key used by the registry. Missing means 0.
func (m *Module) Order() int {
	return m.document(manifest.ModuleFile).Int("order", 0)
}

// Requires lists the aliases of modules this one depends on.
func (m *Module) Requires() []string {
	return m.document(manifest.ModuleFile).Strings("requires")
}

// Providers lists service provider ids registered with the container.
func (m *Module) Providers() []string {
	return m.document(manifest.ModuleFile).Strings("providers")
}

// Files lists the init hooks run at registration.
func (m *Module) Files() []string {
	return m.document(manifest.ModuleFile).Strings("files")
}

// Routes maps route file names to their middleware.
func (m *Module) Routes() map[string][]string {
	return m.document(manifest.ModuleFile).StringSliceMap("routes")
}

// RouteFiles returns the keys of Routes, sorted.
func (m *Module) RouteFiles() []string {
	routes := m.Routes()
	files := make([]string, 0, len(routes))
	for file := range routes {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// Namespace defaults to Modules\{StudlyName}.
func (m *Module) Namespace() string {
	return m.document(manifest.ModuleFile).String("namespace", `Modules\`+m.StudlyName())
}

func (m *Module) Keywords() []string {
	return m.document(manifest.ModuleFile).Strings("keywords")
}

// Version comes from composer.json.
func (m *Module) Version() string {
	return m.document(manifest.ComposerFile).String("version", "")
}

// IsStatus reports whether the manifest "active" value is the JSON integer
// status. "1" and true are not 1.
func (m *Module) IsStatus(status int) bool {
	active, ok := m.document(manifest.ModuleFile).IntValue("active")
	return ok && active == status
}

func (m *Module) Enabled() bool {
	return m.IsStatus(1)
}

func (m *Module) Disabled() bool {
	return !m.Enabled()
}

// SetActive writes active into module.json and saves it.
//
// This is a read-modify-write of the file with no locking: a concurrent
// writer (another CLI run) between our read and our write is lost.
func (m *Module) SetActive(active int) (bool, error) {
	doc, err := m.Json(manifest.ModuleFile)
	if err != nil {
		return false, err
	}
	if err := doc.Set("active", active); err != nil {
		return false, err
	}
	if err := doc.Save(); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the module directory tree.
func (m *Module) Delete() (bool, error) {
	if m.path == "" {
		return false, fmt.Errorf("module %s: %w", m.name, ErrNoPath)
	}
	if err := m.host.Files.DeleteDirectory(m.path); err != nil {
		return false, err
	}
	log.Info(log.CatModule, "module deleted", "module", m.name, "path", m.path)
	return true, nil
}

// Snapshot returns the manifest attributes plus name and path.
func (m *Module) Snapshot() map[string]any {
	attrs := m.document(manifest.ModuleFile).Map()
	attrs["name"] = m.name
	attrs["path"] = m.path
	return attrs
}
