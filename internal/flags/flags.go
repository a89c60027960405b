// Package flags provides feature flag support for controlled feature rollout.
// Flags are read-only after initialization and provide safe defaults for unknown flags.
package flags

import (
	"maps"
	"sort"

	"github.com/zjrosen/modhost/internal/log"
)

// Flag name constants for type-safe flag access.
const (
	// FlagStrictHooks makes module registration fail when a module names an
	// init hook, route registrar or provider the host does not know. When
	// disabled the missing entry is logged and skipped.
	FlagStrictHooks = "strict-hooks"

	// FlagGuardRequires makes enabling a module fail while any alias in its
	// "requires" list does not resolve to a discovered module.
	FlagGuardRequires = "guard-requires"
)

// Descriptions documents every flag the registry and modules read.
var Descriptions = map[string]string{
	FlagStrictHooks:   "fail registration on unknown init hooks, route registrars and providers",
	FlagGuardRequires: "refuse to enable a module whose requires do not resolve",
}

// Registry holds feature flag state loaded from the "flags" config block.
// Flags are read-only after initialization.
type Registry struct {
	flags map[string]bool
}

// New creates a Registry from a config map.
// If flags is nil, an empty registry is created (all flags disabled).
func New(flags map[string]bool) *Registry {
	if flags == nil {
		flags = make(map[string]bool)
	}
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "Feature flags initialized", "count", len(flags), "flags", r.All())
	return r
}

// Enabled returns true if the named flag is enabled.
// Returns false for unknown flags (safe default).
// Returns false when called on nil registry (nil-safe).
func (r *Registry) Enabled(name string) bool {
	if r == nil || r.flags == nil {
		return false
	}
	value, exists := r.flags[name]
	if !exists {
		log.Debug(log.CatConfig, "Unknown flag accessed", "flag", name, "result", false)
		return false
	}
	return value
}

// All returns a copy of all flags (for debugging/logging).
// Returns an empty map if the registry is nil.
func (r *Registry) All() map[string]bool {
	if r == nil || r.flags == nil {
		return make(map[string]bool)
	}
	result := make(map[string]bool, len(r.flags))
	maps.Copy(result, r.flags)
	return result
}

// Unknown returns the configured flags nothing reads, sorted. They are
// usually typos of a known flag.
func (r *Registry) Unknown() []string {
	if r == nil {
		return nil
	}
	var unknown []string
	for name := range r.flags {
		if _, ok := Descriptions[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return unknown
}
