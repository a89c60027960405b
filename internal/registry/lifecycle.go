package registry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/modhost/internal/flags"
	"github.com/zjrosen/modhost/internal/log"
	"github.com/zjrosen/modhost/internal/module"
	"github.com/zjrosen/modhost/internal/tracing"
)

// Register registers every enabled module in ascending order. The first
// failure stops the loop; modules before it stay registered.
func (r *Registry) Register(ctx context.Context) error {
	return r.each(ctx, tracing.SpanRegistryRegister, (*module.Module).Register)
}

// Boot boots the registered service providers, then every enabled module
// in ascending order. The first failure stops the loop.
func (r *Registry) Boot(ctx context.Context) error {
	if err := r.host.Container.BootProviders(); err != nil {
		return err
	}
	return r.each(ctx, tracing.SpanRegistryBoot, (*module.Module).Boot)
}

func (r *Registry) each(ctx context.Context, spanName string, fn func(*module.Module, context.Context) error) (err error) {
	ctx, span := tracing.Start(ctx, r.host.Tracer, spanName)
	defer func() { tracing.End(span, err) }()

	modules, err := r.GetOrdered(ctx, Asc)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int(tracing.AttrModuleCount, len(modules)))

	for _, m := range modules {
		if err := fn(m, ctx); err != nil {
			return err
		}
	}
	log.Debug(log.CatRegistry, "lifecycle complete", "phase", spanName, "modules", len(modules))
	return nil
}

// Active reports whether the named module is enabled.
func (r *Registry) Active(ctx context.Context, name string) (bool, error) {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return false, err
	}
	return m.Enabled(), nil
}

// NotActive reports whether the named module is disabled.
func (r *Registry) NotActive(ctx context.Context, name string) (bool, error) {
	active, err := r.Active(ctx, name)
	return !active, err
}

// Enable enables the named module. Requirements are only checked when the
// guard-requires flag is on.
func (r *Registry) Enable(ctx context.Context, name string) error {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return err
	}

	if r.host.Flags.Enabled(flags.FlagGuardRequires) {
		required, err := r.FindRequirements(ctx, name)
		if err != nil {
			return err
		}
		var missing []string
		for i, dep := range required {
			if dep == nil {
				missing = append(missing, m.Requires()[i])
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("enable %s: %w: %s", m.Name(), ErrUnresolvedRequirement, strings.Join(missing, ", "))
		}
	}

	return m.Enable(ctx)
}

// Disable disables the named module.
func (r *Registry) Disable(ctx context.Context, name string) error {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return err
	}
	return m.Disable(ctx)
}

// Delete removes the named module's directory.
func (r *Registry) Delete(ctx context.Context, name string) error {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return err
	}
	if _, err := m.Delete(); err != nil {
		return err
	}
	return r.FlushCache(ctx)
}
