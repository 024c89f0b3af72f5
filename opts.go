package blueprint

import "go.uber.org/zap"

// Option configures a Container.
type Option func(*options)

type options struct {
	registry *Registry
	hooks    []EventHooks
	parent   *Container
	proxy    string
	logger   *zap.Logger
}

func defaultOptions() options {
	return options{
		proxy:  DefaultProxy,
		logger: zap.NewNop(),
	}
}

// WithRegistry sets the registry string type paths, modules, composites and
// proxies are looked up in. Without it the container starts with an empty
// registry and only *Type handles can be used.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithHooks adds event hooks. Hooks run in the order they are added.
func WithHooks(hooks ...EventHooks) Option {
	return func(o *options) { o.hooks = append(o.hooks, hooks...) }
}

// WithParent sets the container unknown names are delegated to.
func WithParent(parent *Container) Option {
	return func(o *options) { o.parent = parent }
}

// WithProxy selects the lazy proxy implementation by registry name.
func WithProxy(name string) Option {
	return func(o *options) { o.proxy = name }
}

// WithLogger sets the logger used for container diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
