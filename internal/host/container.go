package host

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zjrosen/modhost/internal/log"
)

// ErrUnknownProvider is returned when a provider id has no factory.
var ErrUnknownProvider = errors.New("unknown service provider")

// Provider is a service provider a module lists in its manifest.
type Provider interface {
	Register(c *Container) error
}

// BootableProvider is a Provider with a second phase run by BootProviders.
type BootableProvider interface {
	Provider
	Boot(c *Container) error
}

// ProviderFactory builds a provider instance.
type ProviderFactory func() Provider

// Container is a minimal service container: named bindings plus service
// providers resolved from string identifiers.
type Container struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
	providers map[string]Provider
	order     []string
	bindings  map[string]any
	booted    map[string]bool
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{
		factories: make(map[string]ProviderFactory),
		providers: make(map[string]Provider),
		bindings:  make(map[string]any),
		booted:    make(map[string]bool),
	}
}

// Provide makes a provider id resolvable.
func (c *Container) Provide(id string, factory ProviderFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[id] = factory
}

// Knows reports whether id has a factory.
func (c *Container) Knows(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[id]
	return ok
}

// Register builds the provider for id and runs its Register phase.
// Registering the same id twice is a no-op.
func (c *Container) Register(id string) error {
	c.mu.Lock()
	if _, done := c.providers[id]; done {
		c.mu.Unlock()
		return nil
	}
	factory, ok := c.factories[id]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}

	p := factory()
	if err := p.Register(c); err != nil {
		return fmt.Errorf("register provider %s: %w", id, err)
	}

	c.mu.Lock()
	c.providers[id] = p
	c.order = append(c.order, id)
	c.mu.Unlock()

	log.Debug(log.CatHost, "provider registered", "provider", id)
	return nil
}

// Registered returns provider ids in registration order.
func (c *Container) Registered() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// BootProviders runs Boot on every registered BootableProvider that has not
// been booted yet, in registration order.
func (c *Container) BootProviders() error {
	for _, id := range c.Registered() {
		c.mu.RLock()
		p := c.providers[id]
		booted := c.booted[id]
		c.mu.RUnlock()

		bp, ok := p.(BootableProvider)
		if !ok || booted {
			continue
		}
		if err := bp.Boot(c); err != nil {
			return fmt.Errorf("boot provider %s: %w", id, err)
		}

		c.mu.Lock()
		c.booted[id] = true
		c.mu.Unlock()
	}
	return nil
}

// Bind stores a named value.
func (c *Container) Bind(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[name] = value
}

// Resolve returns a named value.
func (c *Container) Resolve(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.bindings[name]
	return v, ok
}
