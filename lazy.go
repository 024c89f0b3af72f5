package blueprint

import (
	"fmt"
	"sync"
)

// Names of the built-in proxy implementations.
const (
	// DefaultProxy resolves once and keeps the result.
	DefaultProxy = "once"

	// ThunkProxy resolves again on every Get.
	ThunkProxy = "thunk"
)

// Proxy is a placeholder for a value resolved on first use. Creating a
// proxy never resolves anything.
type Proxy interface {
	// Get resolves the value if needed and returns it.
	Get() (any, error)

	// Resolved reports whether Get has completed successfully.
	Resolved() bool
}

// ProxyFactory creates a Proxy around a resolve function.
type ProxyFactory func(resolve func() (any, error)) Proxy

// onceProxy resolves on the first Get and returns the same result after.
type onceProxy struct {
	resolve  func() (any, error)
	once     sync.Once
	value    any
	err      error
	resolved bool
}

// NewOnceProxy is the ProxyFactory registered as DefaultProxy.
func NewOnceProxy(resolve func() (any, error)) Proxy {
	return &onceProxy{resolve: resolve}
}

// Get implements Proxy.
func (p *onceProxy) Get() (any, error) {
	p.once.Do(func() {
		p.value, p.err = p.resolve()
		p.resolved = p.err == nil
	})

	return p.value, p.err
}

// Resolved implements Proxy.
func (p *onceProxy) Resolved() bool {
	return p.resolved
}

// thunkProxy delegates every Get to the container.
type thunkProxy struct {
	resolve  func() (any, error)
	resolved bool
}

// NewThunkProxy is the ProxyFactory registered as ThunkProxy.
func NewThunkProxy(resolve func() (any, error)) Proxy {
	return &thunkProxy{resolve: resolve}
}

// Get implements Proxy.
func (p *thunkProxy) Get() (any, error) {
	v, err := p.resolve()
	if err == nil {
		p.resolved = true
	}

	return v, err
}

// Resolved implements Proxy.
func (p *thunkProxy) Resolved() bool {
	return p.resolved
}

// newProxy wraps resolve in the container's configured proxy.
func (c *Container) newProxy(resolve func() (any, error)) (Proxy, error) {
	factory, err := c.registry.lookupProxy(c.proxy)
	if err != nil {
		return nil, err
	}

	return factory(resolve), nil
}

// ResolveLazy returns a proxy resolving name on first use.
// It fails only with ProxyUnavailable.
func (c *Container) ResolveLazy(name string, args ...Args) (Proxy, error) {
	return c.newProxy(func() (any, error) {
		return c.resolveNamed(name, firstArgs(args))
	})
}

// ResolveTypeLazy returns a proxy whose value is the *Type of name.
func (c *Container) ResolveTypeLazy(name string) (Proxy, error) {
	return c.newProxy(func() (any, error) {
		return c.ResolveType(name)
	})
}

// ResolveManyLazy returns a proxy whose value is the []any of ResolveAll.
func (c *Container) ResolveManyLazy(base any, args ...Args) (Proxy, error) {
	return c.newProxy(func() (any, error) {
		return c.ResolveAll(base, args...)
	})
}

// Lazy is a typed view of a Proxy.
type Lazy[T any] struct {
	proxy Proxy
	name  string
}

// NewLazy creates a typed lazy reference to name. Nothing is resolved
// until Get is called.
func NewLazy[T any](c *Container, name string) (*Lazy[T], error) {
	p, err := c.ResolveLazy(name)
	if err != nil {
		return nil, err
	}

	return &Lazy[T]{proxy: p, name: name}, nil
}

// Get resolves the dependency and returns it as T.
func (l *Lazy[T]) Get() (T, error) {
	var zero T

	instance, err := l.proxy.Get()
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("lazy dependency %s: expected type %T, got %T", l.name, zero, instance)
	}

	return typed, nil
}

// MustGet resolves the dependency and returns it, panicking on error.
func (l *Lazy[T]) MustGet() T {
	value, err := l.Get()
	if err != nil {
		panic(fmt.Sprintf("lazy dependency %s failed: %v", l.name, err))
	}

	return value
}

// IsResolved returns true if the dependency has been resolved.
func (l *Lazy[T]) IsResolved() bool {
	return l.proxy.Resolved()
}

// Name returns the name of the dependency.
func (l *Lazy[T]) Name() string {
	return l.name
}
