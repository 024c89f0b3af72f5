package blueprint

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Constructor builds an instance from resolved arguments.
type Constructor func(args Args) (any, error)

// Setter assigns resolved property values to an existing instance.
type Setter func(instance any, properties map[string]any) error

// PropertySetter is implemented by instances that accept property
// assignments themselves. It is used when the type declares no Setter.
type PropertySetter interface {
	SetProperty(name string, value any) error
}

// Type is a named, registrable construction target. Types stand in for the
// dotted type paths of a recipe: the registry is a closed set, nothing is
// looked up by reflection on a path.
type Type struct {
	name      string
	rtype     reflect.Type
	construct Constructor
	setter    Setter
	factories map[string]Constructor
	bases     []*Type
	params    []string
}

// TypeOption configures a Type.
type TypeOption func(*Type)

// NewType creates a type handle. rtype may be nil for purely nominal types;
// ctor may be nil for abstract types, which can be asserted and matched
// but not constructed.
func NewType(name string, rtype reflect.Type, ctor Constructor, opts ...TypeOption) *Type {
	t := &Type{
		name:      name,
		rtype:     rtype,
		construct: ctor,
		factories: make(map[string]Constructor),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// TypeFor creates a type handle for T from a typed constructor.
//
// Example:
//
//	person := blueprint.TypeFor("app.Person", func(a blueprint.Args) (*Person, error) {
//	    name, err := a.String(0, "name")
//	    return &Person{Name: name}, err
//	})
func TypeFor[T any](name string, ctor func(Args) (T, error), opts ...TypeOption) *Type {
	var wrapped Constructor
	if ctor != nil {
		wrapped = func(a Args) (any, error) { return ctor(a) }
	}

	return NewType(name, reflect.TypeFor[T](), wrapped, opts...)
}

// InterfaceFor creates an abstract type handle for T, typically an interface
// used as assert_type or as the base of ResolveMany.
func InterfaceFor[T any](name string, opts ...TypeOption) *Type {
	return NewType(name, reflect.TypeFor[T](), nil, opts...)
}

// WithSetter declares how properties are assigned to instances of the type.
func WithSetter(s Setter) TypeOption {
	return func(t *Type) { t.setter = s }
}

// WithFactory declares a named factory method usable through factory_method.
func WithFactory(method string, ctor Constructor) TypeOption {
	return func(t *Type) { t.factories[method] = ctor }
}

// Extends declares nominal base types.
func Extends(bases ...*Type) TypeOption {
	return func(t *Type) { t.bases = append(t.bases, bases...) }
}

// Name returns the registry path of the type.
func (t *Type) Name() string {
	if t == nil {
		return "<nil>"
	}

	return t.name
}

// String implements fmt.Stringer.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}

	if t.rtype == nil {
		return t.name
	}

	return fmt.Sprintf("%s(%s)", t.name, t.rtype)
}

// ReflectType returns the Go type produced by the constructor, if known.
func (t *Type) ReflectType() reflect.Type {
	return t.rtype
}

// Abstract reports whether the type has no constructor.
func (t *Type) Abstract() bool {
	return t.construct == nil
}

// Factories returns the declared factory method names in sorted order.
func (t *Type) Factories() []string {
	names := make([]string, 0, len(t.factories))
	for k := range t.factories {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

// IsA reports whether t is base, produces a value of base's Go type,
// implements base's interface type, or declares base as a (transitive) base.
func (t *Type) IsA(base *Type) bool {
	if t == nil || base == nil {
		return false
	}

	if t == base {
		return true
	}

	if t.rtype != nil && base.rtype != nil {
		if t.rtype == base.rtype {
			return true
		}

		if base.rtype.Kind() == reflect.Interface && t.rtype.Implements(base.rtype) {
			return true
		}
	}

	for _, b := range t.bases {
		if b.IsA(base) {
			return true
		}
	}

	return false
}

// New constructs an instance, through the named factory method if given.
func (t *Type) New(factoryMethod string, args Args) (any, error) {
	ctor := t.construct

	if factoryMethod != "" {
		f, ok := t.factories[factoryMethod]
		if !ok {
			return nil, ErrFactoryNotFound(t.name, factoryMethod)
		}

		ctor = f
	}

	if ctor == nil {
		return nil, ErrInvalidArgument(fmt.Sprintf("type '%s' is abstract and cannot be constructed", t.name)).
			WithContext("type", t.name)
	}

	return ctor(args)
}

// Assign applies properties to instance with the type's setter, falling
// back to the PropertySetter interface. ok is false when neither applies.
func (t *Type) Assign(instance any, properties map[string]any) (ok bool, err error) {
	if t != nil && t.setter != nil {
		return true, t.setter(instance, properties)
	}

	ps, isSetter := instance.(PropertySetter)
	if !isSetter {
		return false, nil
	}

	names := make([]string, 0, len(properties))
	for k := range properties {
		names = append(names, k)
	}

	sort.Strings(names)

	for _, name := range names {
		if err := ps.SetProperty(name, properties[name]); err != nil {
			return true, err
		}
	}

	return true, nil
}

// Registry is the closed set of types, modules, composites and lazy proxies
// a container may refer to by name.
type Registry struct {
	types      map[string]*Type
	modules    map[string]*Module
	composites map[string]*Type
	proxies    map[string]ProxyFactory
}

// NewRegistry creates a registry holding the built-in lazy proxies.
func NewRegistry() *Registry {
	r := &Registry{
		types:      make(map[string]*Type),
		modules:    make(map[string]*Module),
		composites: make(map[string]*Type),
		proxies:    make(map[string]ProxyFactory),
	}

	r.proxies[DefaultProxy] = NewOnceProxy
	r.proxies[ThunkProxy] = NewThunkProxy

	return r
}

// Register adds types under their names.
func (r *Registry) Register(types ...*Type) error {
	for _, t := range types {
		if t == nil || t.name == "" {
			return ErrInvalidArgument("type must have a name")
		}

		if _, exists := r.types[t.name]; exists {
			return ErrInvalidArgument(fmt.Sprintf("type '%s' is already registered", t.name)).
				WithContext("type", t.name)
		}

		r.types[t.name] = t
	}

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(types ...*Type) *Registry {
	if err := r.Register(types...); err != nil {
		panic(err)
	}

	return r
}

// Lookup returns the type registered under path.
func (r *Registry) Lookup(path string) (*Type, error) {
	t, ok := r.types[path]
	if !ok {
		return nil, ErrTypeNotFound(path)
	}

	return t, nil
}

// Types returns the registered type paths in sorted order.
func (r *Registry) Types() []string {
	names := make([]string, 0, len(r.types))
	for k := range r.types {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

// Compose declares composite as the composition of base with mixins.
// Recipes naming base and these mixins resolve to composite.
func (r *Registry) Compose(composite *Type, base string, mixins ...string) error {
	if composite == nil {
		return ErrInvalidArgument("composite type cannot be nil")
	}

	if len(mixins) == 0 {
		return ErrInvalidArgument("a composite needs at least one mixin")
	}

	key := compositeKey(base, mixins)
	if _, exists := r.composites[key]; exists {
		return ErrInvalidArgument(fmt.Sprintf("composite '%s' is already registered", key))
	}

	r.composites[key] = composite

	return nil
}

// composite returns the type declared for base combined with mixins.
func (r *Registry) composite(base string, mixins []string) (*Type, error) {
	key := compositeKey(base, mixins)

	t, ok := r.composites[key]
	if !ok {
		return nil, ErrTypeNotFound(key)
	}

	return t, nil
}

func compositeKey(base string, mixins []string) string {
	return base + "+" + strings.Join(mixins, "+")
}

// Proxy registers a lazy proxy implementation under name.
func (r *Registry) Proxy(name string, factory ProxyFactory) {
	r.proxies[name] = factory
}

// lookupProxy returns the proxy implementation registered under name.
func (r *Registry) lookupProxy(name string) (ProxyFactory, error) {
	f, ok := r.proxies[name]
	if !ok || f == nil {
		return nil, ErrProxyUnavailable(name)
	}

	return f, nil
}
