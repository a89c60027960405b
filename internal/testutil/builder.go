// Package testutil builds module fixtures for tests.
package testutil

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/modhost/internal/config"
	"github.com/zjrosen/modhost/internal/host"
)

// BasePath is where NewHost expects modules.
const BasePath = "/app/modules"

// TB is what the builder needs from a test. *testing.T and *rapid.T both
// satisfy it.
type TB = require.TestingT

// Builder accumulates module fixtures and writes them to a filesystem.
type Builder struct {
	t       TB
	files   host.Filesystem
	base    string
	modules []moduleData
}

// NewBuilder creates a builder writing modules below base.
func NewBuilder(t TB, files host.Filesystem, base string) *Builder {
	return &Builder{t: t, files: files, base: base}
}

// WithModule adds a module fixture.
func (b *Builder) WithModule(name string, opts ...ModuleOption) *Builder {
	m := defaultModule(name)
	for _, opt := range opts {
		opt(&m)
	}
	b.modules = append(b.modules, m)
	return b
}

// Build writes every fixture.
func (b *Builder) Build() {
	for _, m := range b.modules {
		dir := filepath.Join(b.base, m.dir)
		b.write(filepath.Join(dir, "module.json"), m.manifestBytes(b.t))
		if m.composer != nil {
			b.write(filepath.Join(dir, "composer.json"), mustJSON(b.t, m.composer))
		}
		for file, content := range m.translations {
			b.write(filepath.Join(dir, "Resources", "lang", file), []byte(content))
		}
	}
}

func (b *Builder) write(path string, data []byte) {
	require.NoError(b.t, b.files.WriteFile(path, data))
}

func (m moduleData) manifestBytes(t TB) []byte {
	if m.raw != "" {
		return []byte(m.raw)
	}
	return mustJSON(t, m.manifest)
}

func mustJSON(t TB, v any) []byte {
	data, err := json.MarshalIndent(v, "", "    ")
	require.NoError(t, err)
	return data
}

func lower(s string) string {
	return strings.ToLower(s)
}

// Config returns a config rooted at BasePath with cfg applied on top
// of the defaults.
func Config(cfg ...func(*config.Config)) *config.Config {
	c := config.Defaults()
	c.Paths.Modules = BasePath
	c.Paths.Assets = "/app/public/modules"
	c.Paths.Used = "/app/storage/app/modules/modules.used"
	for _, fn := range cfg {
		fn(&c)
	}
	return &c
}

// NewHost returns a host over an in-memory filesystem using cfg, or Config()
// when nil. The host is closed when the test ends.
func NewHost(t *testing.T, cfg *config.Config, opts ...host.Option) *host.Host {
	t.Helper()
	h := NewMemHost(cfg, opts...)
	t.Cleanup(h.Close)
	return h
}

// NewMemHost is NewHost for callers that close the host themselves.
func NewMemHost(cfg *config.Config, opts ...host.Option) *host.Host {
	if cfg == nil {
		cfg = Config()
	}
	opts = append([]host.Option{host.WithFilesystem(host.NewFilesystem(afero.NewMemMapFs()))}, opts...)
	return host.New(config.NewStore(*cfg), opts...)
}
