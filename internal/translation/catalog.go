// Package translation loads module translation files into an
// x/text message catalog.
//
// A module's Resources/lang directory holds one file per locale
// (en.json, pt-BR.yaml) or one directory per locale with one file per group
// (en/messages.json). Keys are flattened to dotted form and registered as
// "{namespace}::{group.key}", e.g. "blog::messages.welcome".
package translation

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/modhost/internal/log"
)

// Catalog collects translations from every loaded namespace.
type Catalog struct {
	mu         sync.RWMutex
	fs         afero.Fs
	fallback   language.Tag
	builder    *catalog.Builder
	messages   map[string]map[string]string // locale -> key -> message
	namespaces map[string]string            // namespace -> directory
}

// New creates an empty catalog reading files from fs.
func New(fs afero.Fs, fallback language.Tag) *Catalog {
	return &Catalog{
		fs:         fs,
		fallback:   fallback,
		builder:    catalog.NewBuilder(catalog.Fallback(fallback)),
		messages:   make(map[string]map[string]string),
		namespaces: make(map[string]string),
	}
}

// Load reads every translation file under dir into namespace.
func (c *Catalog) Load(dir, namespace string) error {
	if namespace == "" {
		return fmt.Errorf("load translations from %s: namespace is required", dir)
	}

	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return fmt.Errorf("read translations %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)

		if entry.IsDir() {
			groups, err := afero.ReadDir(c.fs, full)
			if err != nil {
				return fmt.Errorf("read translations %s: %w", full, err)
			}
			for _, g := range groups {
				if g.IsDir() || !isTranslationFile(g.Name()) {
					continue
				}
				group := strings.TrimSuffix(g.Name(), filepath.Ext(g.Name()))
				if err := c.loadFile(filepath.Join(full, g.Name()), name, namespace, group); err != nil {
					return err
				}
				loaded++
			}
			continue
		}

		if !isTranslationFile(name) {
			continue
		}
		locale := strings.TrimSuffix(name, filepath.Ext(name))
		if err := c.loadFile(full, locale, namespace, ""); err != nil {
			return err
		}
		loaded++
	}

	c.mu.Lock()
	c.namespaces[namespace] = dir
	c.mu.Unlock()

	log.Debug(log.CatHost, "translations loaded", "namespace", namespace, "dir", dir, "files", loaded)
	return nil
}

func isTranslationFile(name string) bool {
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func (c *Catalog) loadFile(path, locale, namespace, group string) error {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return fmt.Errorf("translations %s: locale %q: %w", path, locale, err)
	}

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return fmt.Errorf("read translations %s: %w", path, err)
	}

	var raw map[string]any
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return fmt.Errorf("parse translations %s: %w", path, err)
	}

	flat := make(map[string]string)
	flatten(group, raw, flat)

	c.mu.Lock()
	defer c.mu.Unlock()

	localeKey := tag.String()
	if c.messages[localeKey] == nil {
		c.messages[localeKey] = make(map[string]string)
	}
	for key, msg := range flat {
		full := namespace + "::" + key
		if err := c.builder.SetString(tag, full, strings.ReplaceAll(msg, "%", "%%")); err != nil {
			return fmt.Errorf("register %s for %s: %w", full, localeKey, err)
		}
		c.messages[localeKey][full] = msg
	}
	return nil
}

// flatten turns nested maps into dotted keys.
func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		default:
			out[key] = cast.ToString(val)
		}
	}
}

// Translate returns the message for key in tag. Lookup walks the tag's
// parents (pt-BR, pt) before trying the fallback language; an unknown key
// is returned as is. Messages are literal text: replace is a list of
// name/value pairs substituted for :name placeholders.
func (c *Catalog) Translate(tag language.Tag, key string, replace ...any) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	use := c.fallback
	for t := tag; ; t = t.Parent() {
		if _, ok := c.messages[t.String()][key]; ok {
			use = t
			break
		}
		if t == language.Und {
			break
		}
	}
	if _, ok := c.messages[use.String()][key]; !ok {
		return key
	}

	p := message.NewPrinter(use, message.Catalog(c.builder))
	return substitute(p.Sprintf(key), replace)
}

// substitute fills :name placeholders, longest name first so :names is not
// clobbered by :name.
func substitute(msg string, replace []any) string {
	if len(replace) < 2 {
		return msg
	}
	type pair struct{ name, value string }
	pairs := make([]pair, 0, len(replace)/2)
	for i := 0; i+1 < len(replace); i += 2 {
		pairs = append(pairs, pair{cast.ToString(replace[i]), cast.ToString(replace[i+1])})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return len(pairs[i].name) > len(pairs[j].name) })

	oldnew := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		oldnew = append(oldnew, ":"+p.name, p.value)
	}
	return strings.NewReplacer(oldnew...).Replace(msg)
}

// Has reports whether key has a message for locale.
func (c *Catalog) Has(locale, key string) bool {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.messages[tag.String()][key]
	return ok
}

// Namespaces returns loaded namespaces, sorted.
func (c *Catalog) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.namespaces))
	for ns := range c.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Locales returns locales with at least one message, sorted.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.messages))
	for locale := range c.messages {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}
