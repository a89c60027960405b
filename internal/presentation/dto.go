package presentation

import (
	"strings"

	"github.com/zjrosen/modhost/internal/host"
	"github.com/zjrosen/modhost/internal/module"
)

// ModuleDTO represents a module for presentation
type ModuleDTO struct {
	Name        string   `json:"name"`
	Alias       string   `json:"alias"`
	Description string   `json:"description"`
	Path        string   `json:"path"`
	Enabled     bool     `json:"enabled"`
	Order       int      `json:"order"`
	Priority    int      `json:"priority"`
	Namespace   string   `json:"namespace"`
	Version     string   `json:"version,omitempty"`
	Requires    []string `json:"requires"`
	Providers   []string `json:"providers"`
	Files       []string `json:"files"`
	Keywords    []string `json:"keywords"`
	Used        bool     `json:"used,omitempty"`
}

// RequirementDTO is one entry of a module's requires list.
// Name is empty when the alias does not resolve.
type RequirementDTO struct {
	Alias    string `json:"alias"`
	Name     string `json:"name,omitempty"`
	Resolved bool   `json:"resolved"`
}

// RouteDTO is a registered route.
type RouteDTO struct {
	Method     string   `json:"method"`
	Path       string   `json:"path"`
	Name       string   `json:"name,omitempty"`
	Middleware []string `json:"middleware"`
	Namespace  string   `json:"namespace,omitempty"`
}

// FromModule converts a module to a DTO. used is the name stored by
// module:use, compared case-insensitively.
func FromModule(m *module.Module, used string) ModuleDTO {
	return ModuleDTO{
		Name:        m.Name(),
		Alias:       m.Alias(),
		Description: m.Description(),
		Path:        m.Path(),
		Enabled:     m.Enabled(),
		Order:       m.Order(),
		Priority:    m.Priority(),
		Namespace:   m.Namespace(),
		Version:     m.Version(),
		Requires:    nonNil(m.Requires()),
		Providers:   nonNil(m.Providers()),
		Files:       nonNil(m.Files()),
		Keywords:    nonNil(m.Keywords()),
		Used:        used != "" && strings.EqualFold(m.Name(), used),
	}
}

// FromModules converts modules to DTOs, keeping their order.
func FromModules(mods []*module.Module, used string) []ModuleDTO {
	dtos := make([]ModuleDTO, len(mods))
	for i, m := range mods {
		dtos[i] = FromModule(m, used)
	}
	return dtos
}

// FromRequirements pairs each alias with its resolved module, which may be
// nil.
func FromRequirements(aliases []string, mods []*module.Module) []RequirementDTO {
	dtos := make([]RequirementDTO, len(aliases))
	for i, alias := range aliases {
		dtos[i] = RequirementDTO{Alias: alias}
		if i < len(mods) && mods[i] != nil {
			dtos[i].Name = mods[i].Name()
			dtos[i].Resolved = true
		}
	}
	return dtos
}

// FromRoutes converts the router's routes to DTOs.
func FromRoutes(routes []host.Route) []RouteDTO {
	dtos := make([]RouteDTO, len(routes))
	for i, r := range routes {
		dtos[i] = RouteDTO{
			Method:     r.Method,
			Path:       r.Path,
			Name:       r.Name,
			Middleware: nonNil(r.Middleware),
			Namespace:  r.Namespace,
		}
	}
	return dtos
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
