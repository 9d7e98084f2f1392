package registry

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Registry.
type Memory struct {
	mu       sync.RWMutex
	bindings map[string]string
}

var _ Registry = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{bindings: make(map[string]string)}
}

func (m *Memory) Lookup(_ context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	addr, ok := m.bindings[name]
	if !ok {
		return "", ErrNotBound
	}
	return addr, nil
}

func (m *Memory) Bind(_ context.Context, name, addr string) error {
	if err := validate(name, addr); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[name]; ok {
		return ErrAlreadyBound
	}
	m.bindings[name] = addr
	return nil
}

func (m *Memory) Rebind(_ context.Context, name, addr string) error {
	if err := validate(name, addr); err != nil {
		return err
	}
	m.mu.Lock()
	m.bindings[name] = addr
	m.mu.Unlock()
	return nil
}

func (m *Memory) Unbind(_ context.Context, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bindings[name]; !ok {
		return ErrNotBound
	}
	delete(m.bindings, name)
	return nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.bindings))
	for name := range m.bindings {
		names = append(names, name)
	}
	m.mu.RUnlock()
	slices.Sort(names)
	return names, nil
}
