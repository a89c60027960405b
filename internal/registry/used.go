package registry

import (
	"context"

	"github.com/zjrosen/modhost/internal/module"
)

// SetUsed stores the name of an existing module as the used module.
func (r *Registry) SetUsed(ctx context.Context, name string) error {
	m, err := r.FindOrFail(ctx, name)
	if err != nil {
		return err
	}
	return r.host.Used.Set(m.Name())
}

// Used returns the stored used-module name verbatim, "" when unset.
func (r *Registry) Used() (string, error) {
	return r.host.Used.Get()
}

// UsedNow resolves the stored used-module name.
func (r *Registry) UsedNow(ctx context.Context) (*module.Module, error) {
	name, err := r.Used()
	if err != nil {
		return nil, err
	}
	return r.FindOrFail(ctx, name)
}

// ForgetUsed clears the used module.
func (r *Registry) ForgetUsed() error {
	return r.host.Used.Forget()
}
