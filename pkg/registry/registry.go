package registry

import "context"

// Registry maps names to transport addresses.
type Registry interface {
	// Lookup returns the address bound to name or ErrNotBound.
	Lookup(ctx context.Context, name string) (string, error)
	// Bind binds name to addr and fails with ErrAlreadyBound when name is taken.
	Bind(ctx context.Context, name, addr string) error
	// Rebind binds name to addr, replacing any existing binding.
	Rebind(ctx context.Context, name, addr string) error
	// Unbind removes the binding for name or fails with ErrNotBound.
	Unbind(ctx context.Context, name string) error
	// List returns every bound name in ascending order.
	List(ctx context.Context) ([]string, error)
}

func validate(name, addr string) error {
	if name == "" {
		return ErrEmptyName
	}
	if addr == "" {
		return ErrEmptyAddress
	}
	return nil
}
