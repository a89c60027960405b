// Package templates holds the stub files written for a new module.
package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/zjrosen/modhost/internal/host"
)

// stubs mirrors the layout of a module directory. Every file ends in .tmpl,
// which is stripped when written.
//
//go:embed stubs
var stubs embed.FS

// StubsFS returns the embedded module stubs.
func StubsFS() fs.FS {
	sub, err := fs.Sub(stubs, "stubs")
	if err != nil {
		panic(err)
	}
	return sub
}

// StubData is the data stubs are rendered with.
type StubData struct {
	Name      string // StudlyName
	Alias     string
	Namespace string // Modules\{Name}
	Package   string // composer package, vendor/alias
	Active    int
}

// NamespacePrefix is the PSR-4 prefix of Namespace.
func (d StubData) NamespacePrefix() string {
	return d.Namespace + `\`
}

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// Render renders every stub and returns the contents keyed by path
// relative to the module directory, slash separated.
func Render(data StubData) (map[string][]byte, error) {
	fsys := StubsFS()
	out := make(map[string][]byte)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		tmpl, err := template.New(path.Base(p)).Funcs(funcs).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing stub %s: %w", p, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("rendering stub %s: %w", p, err)
		}
		out[strings.TrimSuffix(p, ".tmpl")] = buf.Bytes()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Scaffold writes the rendered stubs below dir and returns the written
// paths in walk order. dir must not exist yet.
func Scaffold(files host.Filesystem, dir string, data StubData) ([]string, error) {
	if files.Exists(dir) {
		return nil, fmt.Errorf("scaffold %s: already exists", dir)
	}

	rendered, err := Render(data)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(rendered))
	err = fs.WalkDir(StubsFS(), ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return walkErr
		}
		rel := strings.TrimSuffix(p, ".tmpl")
		content, ok := rendered[rel]
		if !ok {
			return nil
		}
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if err := files.WriteFile(target, content); err != nil {
			return err
		}
		written = append(written, target)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}
