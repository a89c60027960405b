package testutil

// moduleData holds the manifest of a fixture module.
type moduleData struct {
	dir          string
	manifest     map[string]any
	raw          string
	composer     map[string]any
	translations map[string]string
	missing      bool
}

// defaultModule returns a fixture named name, disabled, in {base}/{name}.
func defaultModule(name string) moduleData {
	return moduleData{
		dir: name,
		manifest: map[string]any{
			"name":   name,
			"alias":  lower(name),
			"active": 0,
		},
	}
}

// ModuleOption configures a fixture module.
type ModuleOption func(*moduleData)

// Active sets "active": 1.
func Active() ModuleOption {
	return func(m *moduleData) { m.manifest["active"] = 1 }
}

// Inactive sets "active": 0.
func Inactive() ModuleOption {
	return func(m *moduleData) { m.manifest["active"] = 0 }
}

// Status sets "active" to an arbitrary JSON value ("1", true, 1.5).
func Status(v any) ModuleOption {
	return func(m *moduleData) { m.manifest["active"] = v }
}

func Alias(alias string) ModuleOption {
	return func(m *moduleData) { m.manifest["alias"] = alias }
}

func Order(order int) ModuleOption {
	return func(m *moduleData) { m.manifest["order"] = order }
}

func Priority(priority int) ModuleOption {
	return func(m *moduleData) { m.manifest["priority"] = priority }
}

func Description(desc string) ModuleOption {
	return func(m *moduleData) { m.manifest["description"] = desc }
}

func Namespace(ns string) ModuleOption {
	return func(m *moduleData) { m.manifest["namespace"] = ns }
}

func Requires(aliases ...string) ModuleOption {
	return func(m *moduleData) { m.manifest["requires"] = aliases }
}

func Providers(ids ...string) ModuleOption {
	return func(m *moduleData) { m.manifest["providers"] = ids }
}

func Files(hooks ...string) ModuleOption {
	return func(m *moduleData) { m.manifest["files"] = hooks }
}

// Routes sets the route file to middleware map.
func Routes(routes map[string][]string) ModuleOption {
	return func(m *moduleData) { m.manifest["routes"] = routes }
}

func Keywords(words ...string) ModuleOption {
	return func(m *moduleData) { m.manifest["keywords"] = words }
}

// Attr sets any other manifest key.
func Attr(key string, value any) ModuleOption {
	return func(m *moduleData) { m.manifest[key] = value }
}

// Dir stores the module under a directory other than its name.
func Dir(dir string) ModuleOption {
	return func(m *moduleData) { m.dir = dir }
}

// NoName drops the "name" key.
func NoName() ModuleOption {
	return func(m *moduleData) { delete(m.manifest, "name") }
}

// RawManifest writes module.json verbatim, ignoring every other manifest
// option.
func RawManifest(raw string) ModuleOption {
	return func(m *moduleData) { m.raw = raw }
}

// Composer writes a composer.json next to module.json.
func Composer(attrs map[string]any) ModuleOption {
	return func(m *moduleData) { m.composer = attrs }
}

// Translation writes Resources/lang/{file} with the given content.
func Translation(file, content string) ModuleOption {
	return func(m *moduleData) {
		if m.translations == nil {
			m.translations = make(map[string]string)
		}
		m.translations[file] = content
	}
}
