package module

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/zjrosen/modhost/internal/config"
	"github.com/zjrosen/modhost/internal/flags"
	"github.com/zjrosen/modhost/internal/host"
	"github.com/zjrosen/modhost/internal/log"
	"github.com/zjrosen/modhost/internal/pubsub"
	"github.com/zjrosen/modhost/internal/tracing"
)

// Lifecycle event phases. Events are named modules.{lower name}.{phase}.
const (
	PhaseRegister  = "register"
	PhaseBoot      = "boot"
	PhaseEnabling  = "enabling"
	PhaseEnabled   = "enabled"
	PhaseDisabling = "disabling"
	PhaseDisabled  = "disabled"
)

var (
	ErrUnknownInitHook = errors.New("unknown init hook")
	ErrUnknownRoutes   = errors.New("unknown route registrar")
)

// EventName returns the event type for a module phase.
func EventName(lowerName, phase string) pubsub.EventType {
	return pubsub.EventType("modules." + lowerName + "." + phase)
}

// Event returns the event type for one of this module's phases.
func (m *Module) Event(phase string) pubsub.EventType {
	return EventName(m.LowerName(), phase)
}

func (m *Module) fire(ctx context.Context, phase string) {
	m.host.Events.Dispatch(ctx, m.Event(phase), m)
}

// Enable marks the module active, bracketed by enabling/enabled events.
// Requirements are not checked.
func (m *Module) Enable(ctx context.Context) error {
	m.fire(ctx, PhaseEnabling)
	if _, err := m.SetActive(1); err != nil {
		return fmt.Errorf("enable %s: %w", m.name, err)
	}
	m.fire(ctx, PhaseEnabled)
	log.Info(log.CatModule, "module enabled", "module", m.name)
	return nil
}

// Disable marks the module inactive, bracketed by disabling/disabled events.
func (m *Module) Disable(ctx context.Context) error {
	m.fire(ctx, PhaseDisabling)
	if _, err := m.SetActive(0); err != nil {
		return fmt.Errorf("disable %s: %w", m.name, err)
	}
	m.fire(ctx, PhaseDisabled)
	log.Info(log.CatModule, "module disabled", "module", m.name)
	return nil
}

// Register hands the module to the host: aliases, providers, init hooks,
// then one route group per route file, then the register event.
func (m *Module) Register(ctx context.Context) error {
	ctx, span := tracing.Start(ctx, m.host.Tracer, tracing.SpanModuleRegister, tracing.Module(m.name, m.path)...)
	err := m.register(ctx)
	tracing.End(span, err)
	return err
}

func (m *Module) register(ctx context.Context) error {
	if err := m.host.Hooks.RegisterAliases(ctx, m); err != nil {
		return fmt.Errorf("register aliases for %s: %w", m.name, err)
	}

	for _, id := range m.Providers() {
		if !m.host.Container.Knows(id) {
			if err := m.unknown("provider", id, host.ErrUnknownProvider); err != nil {
				return err
			}
			continue
		}
		if err := m.host.Container.Register(id); err != nil {
			return fmt.Errorf("module %s: %w", m.name, err)
		}
	}

	for _, file := range m.Files() {
		hook, ok := m.initHook(file)
		if !ok {
			if err := m.unknown("init hook", file, ErrUnknownInitHook); err != nil {
				return err
			}
			continue
		}
		if err := hook(ctx, m.host, m); err != nil {
			return fmt.Errorf("module %s: init hook %s: %w", m.name, file, err)
		}
	}

	if err := m.registerRoutes(); err != nil {
		return err
	}

	m.fire(ctx, PhaseRegister)
	log.Debug(log.CatModule, "module registered", "module", m.name)
	return nil
}

func (m *Module) initHook(file string) (host.InitHook, bool) {
	if hook, ok := m.host.Hooks.Init(m.LowerName() + "/" + file); ok {
		return hook, true
	}
	return m.host.Hooks.Init(file)
}

func (m *Module) registerRoutes() error {
	routes := m.Routes()
	for _, file := range m.RouteFiles() {
		registrar, ok := m.host.Hooks.Routes(m.LowerName(), file)
		if !ok {
			if err := m.unknown("route registrar", file, ErrUnknownRoutes); err != nil {
				return err
			}
			continue
		}

		group := host.RouteGroup{
			Prefix:     m.Alias(),
			Middleware: routes[file],
			Namespace:  m.Namespace() + `\Http\Controllers`,
		}
		err := m.host.Router.Group(group, func(r *host.Router) error {
			return registrar(r, m)
		})
		if err != nil {
			return fmt.Errorf("module %s: routes %s: %w", m.name, file, err)
		}
	}
	return nil
}

// unknown reports a manifest entry the host has no implementation for.
// It fails only under the strict-hooks flag.
func (m *Module) unknown(kind, id string, sentinel error) error {
	if m.host.Flags.Enabled(flags.FlagStrictHooks) {
		return fmt.Errorf("module %s: %w: %s", m.name, sentinel, id)
	}
	log.Warn(log.CatModule, "skipping unknown "+kind, "module", m.name, "id", id)
	return nil
}

// Boot loads Resources/lang under the module's lower name, unless
// register.translations is off, then fires the boot event.
func (m *Module) Boot(ctx context.Context) error {
	ctx, span := tracing.Start(ctx, m.host.Tracer, tracing.SpanModuleBoot, tracing.Module(m.name, m.path)...)
	err := m.boot(ctx)
	tracing.End(span, err)
	return err
}

func (m *Module) boot(ctx context.Context) error {
	if m.translationsEnabled() && m.path != "" {
		dir := filepath.Join(m.path, "Resources", "lang")
		if m.host.Files.IsDir(dir) {
			if err := m.host.Translator.Load(dir, m.LowerName()); err != nil {
				return fmt.Errorf("module %s: load translations: %w", m.name, err)
			}
		}
	}

	m.fire(ctx, PhaseBoot)
	log.Debug(log.CatModule, "module booted", "module", m.name)
	return nil
}

func (m *Module) translationsEnabled() bool {
	store := m.host.Config
	return !store.IsSet(config.KeyRegisterTranslations) || store.GetBool(config.KeyRegisterTranslations)
}
