// Package manifest reads and writes the JSON documents that describe a
// module: module.json and the optional composer.json package metadata.
//
// Keys are addressed with dotted paths ("extra.laravel.providers"). Writes
// go through sjson so keys the caller never touched keep their order and
// formatting.
package manifest

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Manifest file names.
const (
	ModuleFile   = "module.json"
	ComposerFile = "composer.json"
)

var (
	ErrInvalidJSON = errors.New("invalid manifest json")
	ErrEmptyKey    = errors.New("manifest key is empty")
)

// Document is one parsed manifest file.
type Document struct {
	fs   afero.Fs
	path string
	raw  []byte
}

// Load reads and validates the JSON document at path.
func Load(fs afero.Fs, path string) (*Document, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(fs, path, raw)
}

// Parse wraps raw as the document stored at path. It does not touch fs.
func Parse(fs afero.Fs, path string, raw []byte) (*Document, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidJSON)
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("%s: %w: root is not an object", path, ErrInvalidJSON)
	}
	return &Document{fs: fs, path: path, raw: raw}, nil
}

// Empty returns a document with no keys, stored at path once saved.
func Empty(fs afero.Fs, path string) *Document {
	return &Document{fs: fs, path: path, raw: []byte("{}")}
}

// Path returns the file the document was read from.
func (d *Document) Path() string {
	return d.path
}

func (d *Document) result(key string) gjson.Result {
	return gjson.GetBytes(d.raw, key)
}

// Has reports whether key is present (a JSON null counts as present).
func (d *Document) Has(key string) bool {
	return d.result(key).Exists()
}

// Get returns the value at key decoded to Go types (float64, string, bool,
// []any, map[string]any, nil), or def when key is absent.
func (d *Document) Get(key string, def any) any {
	res := d.result(key)
	if !res.Exists() {
		return def
	}
	return res.Value()
}

// String returns the value at key as a string, or def when absent.
func (d *Document) String(key, def string) string {
	res := d.result(key)
	if !res.Exists() {
		return def
	}
	return res.String()
}

// Int returns the value at key as an int, or def when absent.
func (d *Document) Int(key string, def int) int {
	res := d.result(key)
	if !res.Exists() {
		return def
	}
	return cast.ToInt(res.Value())
}

// IntValue reports the value at key when it is stored as a JSON integer
// literal. Strings, booleans and fractional numbers are rejected, so "1",
// true and 1.0 never compare equal to 1.
func (d *Document) IntValue(key string) (int, bool) {
	res := d.result(key)
	if res.Type != gjson.Number {
		return 0, false
	}
	n, err := strconv.Atoi(res.Raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Strings returns the array at key as strings. Absent or non-array values
// yield an empty, non-nil slice.
func (d *Document) Strings(key string) []string {
	res := d.result(key)
	if !res.IsArray() {
		return []string{}
	}
	items := res.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.String())
	}
	return out
}

// StringSliceMap returns an object of arrays ({"web": ["auth"]}) at key.
// A scalar member is treated as a one-element list.
func (d *Document) StringSliceMap(key string) map[string][]string {
	res := d.result(key)
	out := map[string][]string{}
	if !res.IsObject() {
		return out
	}
	res.ForEach(func(k, v gjson.Result) bool {
		switch {
		case v.IsArray():
			list := make([]string, 0, len(v.Array()))
			for _, item := range v.Array() {
				list = append(list, item.String())
			}
			out[k.String()] = list
		case v.Type == gjson.Null:
			out[k.String()] = []string{}
		default:
			out[k.String()] = []string{v.String()}
		}
		return true
	})
	return out
}

// Map returns the whole document decoded as a map.
func (d *Document) Map() map[string]any {
	m, ok := gjson.ParseBytes(d.raw).Value().(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return m
}

// Set writes value at key in memory. Call Save to persist.
func (d *Document) Set(key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	raw, err := sjson.SetBytes(d.raw, key, value)
	if err != nil {
		return fmt.Errorf("set %s in %s: %w", key, d.path, err)
	}
	d.raw = raw
	return nil
}

// Save writes the document back to its file.
func (d *Document) Save() error {
	if err := afero.WriteFile(d.fs, d.path, d.raw, 0644); err != nil {
		return fmt.Errorf("write %s: %w", d.path, err)
	}
	return nil
}
