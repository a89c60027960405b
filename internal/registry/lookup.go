package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zjrosen/modhost/internal/module"
)

// Direction orders GetOrdered.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection accepts "asc" and "desc" in any case; "" means Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", string(Asc):
		return Asc, nil
	case string(Desc):
		return Desc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// ByStatus returns the modules whose "active" flag is status.
func (r *Registry) ByStatus(ctx context.Context, status int) ([]*module.Module, error) {
	modules, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*module.Module, 0, len(modules))
	for _, m := range modules {
		if m.IsStatus(status) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *Registry) Enabled(ctx context.Context) ([]*module.Module, error) {
	return r.ByStatus(ctx, 1)
}

func (r *Registry) Disabled(ctx context.Context) ([]*module.Module, error) {
	return r.ByStatus(ctx, 0)
}

// GetOrdered returns the enabled modules sorted by "order". Modules with the
// same order keep their discovery order in both directions.
func (r *Registry) GetOrdered(ctx context.Context, dir Direction) ([]*module.Module, error) {
	modules, err := r.Enabled(ctx)
	if err != nil {
		return nil, err
	}

	orders := make(map[*module.Module]int, len(modules))
	for _, m := range modules {
		orders[m] = m.Order()
	}
	sort.SliceStable(modules, func(i, j int) bool {
		a, b := orders[modules[i]], orders[modules[j]]
		if dir == Desc {
			return a > b
		}
		return a < b
	})
	return modules, nil
}

// Has reports whether a module named name exists, ignoring case.
func (r *Registry) Has(ctx context.Context, name string) (bool, error) {
	m, err := r.Find(ctx, name)
	return m != nil, err
}

// Find returns the module named name, ignoring case, or nil.
func (r *Registry) Find(ctx context.Context, name string) (*module.Module, error) {
	modules, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		if strings.EqualFold(m.Name(), name) {
			return m, nil
		}
	}
	return nil, nil
}

// FindByAlias returns the module whose alias is exactly alias, or nil.
func (r *Registry) FindByAlias(ctx context.Context, alias string) (*module.Module, error) {
	modules, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		if m.Alias() == alias {
			return m, nil
		}
	}
	return nil, nil
}

// FindOrFail is Find returning a *NotFoundError when nothing matches.
func (r *Registry) FindOrFail(ctx context.Context, name string) (*module.Module, error) {
	m, err := r.Find(ctx, name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &NotFoundError{Name: name}
	}
	return m, nil
}

// FindRequirements resolves each alias in the module's "requires" list.
// The result is as long as the list; unresolved aliases are nil entries.
func (r *Registry) FindRequirements(ctx context.Context, name string) ([]*module.Module, error) {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return nil, err
	}
	requires := m.Requires()
	out := make([]*module.Module, len(requires))
	for i, alias := range requires {
		if out[i], err = r.FindByAlias(ctx, alias); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ModulePath returns the module directory with a trailing slash. For an
// unknown module, or one whose directory did not resolve (a cached module
// living outside paths.modules), it returns {basePath}/{StudlyName}/.
func (r *Registry) ModulePath(ctx context.Context, name string) (string, error) {
	m, err := r.FindOrFail(ctx, name)
	if errors.Is(err, ErrModuleNotFound) {
		return r.fallbackPath(name), nil
	}
	if err != nil {
		return "", err
	}
	if m.Path() == "" {
		return r.fallbackPath(m.Name()), nil
	}
	return m.Path() + "/", nil
}

func (r *Registry) fallbackPath(name string) string {
	return filepath.Join(r.basePath, module.Studly(name)) + "/"
}
