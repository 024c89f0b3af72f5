package blueprint

import (
	"errors"
	"iter"
	"reflect"
	"slices"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Container builds and wires instances from named recipes.
//
// A Container is not safe for concurrent use; callers that share one across
// goroutines must serialize access themselves.
type Container struct {
	id           string
	store        *store
	registry     *Registry
	singletons   map[string]any
	overlayCache map[string]any
	parent       *Container
	hooks        *hookChain
	proxy        string
	baseLogger   *zap.Logger
	logger       *zap.Logger

	// names of the recipes currently being built, outermost first
	resolving []string
}

// entry is a visible recipe together with the container that owns it.
type entry struct {
	recipe Recipe
	owner  *Container
}

// New creates a container from config. Recipes are inserted in lexical
// name order; recipes with lazy=false are resolved before New returns and
// their failures are returned together.
func New(config Configuration, opts ...Option) (*Container, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if o.registry == nil {
		o.registry = NewRegistry()
	}

	c := &Container{
		id:         uuid.NewString(),
		store:      newStore(),
		registry:   o.registry,
		singletons: make(map[string]any),
		parent:     o.parent,
		hooks:      newHookChain(o.hooks...),
		proxy:      o.proxy,
		baseLogger: o.logger,
	}
	c.logger = o.logger.With(zap.String("container", c.id))

	for _, name := range sortedNames(config) {
		r, err := Normalize(name, config[name])
		if err != nil {
			return nil, err
		}

		c.store.set(name, r)
	}

	if err := c.initEager(); err != nil {
		return nil, err
	}

	c.hooks.initialized(c)

	return c, nil
}

// initEager resolves every non-lazy recipe in store order.
func (c *Container) initEager() error {
	var errs error

	for _, r := range c.store.all() {
		if r.Lazy() {
			continue
		}

		c.logger.Debug("instantiating eager recipe", zap.String("recipe", r.Name))

		if _, err := c.Resolve(r.Name); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// ID returns the unique identifier of the container.
func (c *Container) ID() string {
	return c.id
}

// Parent returns the parent container, or nil.
func (c *Container) Parent() *Container {
	return c.parent
}

// Registry returns the registry the container looks types up in.
func (c *Container) Registry() *Registry {
	return c.registry
}

// Use adds event hooks to the container.
func (c *Container) Use(hooks ...EventHooks) {
	c.hooks.add(hooks...)
}

// =============================================================================
// REGISTRATION
// =============================================================================

// Register adds a recipe (Recipe, *Recipe or raw mapping) under name.
// An existing name fails with DuplicateRegistration unless replace is set,
// in which case the recipe is overwritten and its cached singleton evicted.
// A recipe with lazy=false is resolved immediately; if that fails the
// registration is rolled back and the previous recipe stays in place.
func (c *Container) Register(name string, recipe any, replace bool) error {
	r, normErr := Normalize(name, recipe)
	if normErr != nil {
		r = Recipe{Name: name}
	}

	c.hooks.beforeRegister(name, r)
	err := c.register(name, r, normErr, replace)
	c.hooks.afterRegister(name, r, err)

	return err
}

func (c *Container) register(name string, r Recipe, normErr error, replace bool) error {
	if name == "" {
		return ErrInvalidArgument("recipe name cannot be empty")
	}

	prev, exists := c.store.recipes[name]
	if exists && !replace {
		return ErrDuplicateRegistration(name)
	}

	if normErr != nil {
		return normErr
	}

	c.store.set(name, r)

	prevInstance, cached := c.singletons[name]
	if cached {
		delete(c.singletons, name)
		c.logger.Debug("evicted cached singleton", zap.String("recipe", name))
	}

	if !r.Eager {
		return nil
	}

	if _, err := c.Resolve(name); err != nil {
		if exists {
			c.store.set(name, prev)
		} else {
			c.store.remove(name)
		}

		if cached {
			c.singletons[name] = prevInstance
		}

		return err
	}

	return nil
}

// Provide registers target under name, building the recipe from opts.
// target is a registry path, a *Type, or a Go function which is turned
// into a type with FuncType.
//
// Example:
//
//	c.Provide("clock", NewClock, blueprint.Singleton())
func (c *Container) Provide(name string, target any, opts ...RecipeOption) error {
	switch target.(type) {
	case string, *Type:
	default:
		t, err := FuncType(name, target)
		if err != nil {
			return err
		}

		target = t
	}

	return c.Register(name, NewRecipe(target, opts...), false)
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve returns the instance for name, building it from its recipe
// unless a cached singleton exists. Unknown names fall back to aliases,
// then to the parent container.
func (c *Container) Resolve(name string) (any, error) {
	return c.resolveNamed(name, nil)
}

// ResolveWith is like Resolve but builds with args instead of the
// configured arguments. The two are not merged.
func (c *Container) ResolveWith(name string, args Args) (any, error) {
	return c.resolveNamed(name, &args)
}

func (c *Container) resolveNamed(name string, args *Args) (any, error) {
	c.hooks.beforeResolve(name)
	instance, err := c.resolve(name, args)
	c.hooks.afterResolve(name, instance, err)

	return instance, err
}

func (c *Container) resolve(name string, args *Args) (any, error) {
	if instance, ok := c.cached(name); ok {
		return instance, nil
	}

	r, err := c.lookup(name)
	if err != nil {
		if c.parent != nil && errors.Is(err, ErrMissingConfigurationSentinel) {
			return c.parent.resolve(name, args)
		}

		return nil, err
	}

	// an alias shares the canonical name's cache entry
	if r.Name != name {
		if instance, ok := c.cached(r.Name); ok {
			return instance, nil
		}
	}

	return c.build(r, args)
}

// lookup returns the recipe for name, or the first recipe aliased as name.
func (c *Container) lookup(name string) (Recipe, error) {
	r, err := c.store.get(name)
	if err == nil {
		return r, nil
	}

	if r, ok := c.store.alias(name); ok {
		return r, nil
	}

	return Recipe{}, err
}

// build constructs, injects and caches an instance of r.
func (c *Container) build(r Recipe, args *Args) (any, error) {
	if i := slices.Index(c.resolving, r.Name); i >= 0 {
		cycle := append(slices.Clone(c.resolving[i:]), r.Name)
		return nil, ErrCircularDependency(cycle)
	}

	c.resolving = append(c.resolving, r.Name)
	defer func() { c.resolving = c.resolving[:len(c.resolving)-1] }()

	typ, err := c.recipeType(r)
	if err != nil {
		return nil, err
	}

	if r.AssertType != nil {
		expected, err := c.typeOf(r.AssertType)
		if err != nil {
			return nil, err
		}

		if !typ.IsA(expected) {
			return nil, ErrTypeAssertionViolation(r.Name, typ, expected)
		}
	}

	raw := r.Args
	if args != nil {
		raw = *args
	}

	resolved, err := c.resolveArgs(raw)
	if err != nil {
		return nil, err
	}

	instance, err := typ.New(r.FactoryMethod, resolved)
	if err != nil {
		var coded *Error
		if errors.As(err, &coded) && coded.Code == CodeFactoryNotFound {
			return nil, err
		}

		return nil, NewConstructionError(r.Name, "construct", err)
	}

	c.hooks.beforeBuildUp(r.Name, instance)
	instance, err = c.buildUp(r, typ, instance, nil)
	c.hooks.afterBuildUp(r.Name, instance, err)

	if err != nil {
		return nil, err
	}

	if r.Singleton {
		c.cache(r.Name, instance)
	}

	return instance, nil
}

// recipeType resolves the target type of r, selecting the registered
// composite when mixins are configured.
func (c *Container) recipeType(r Recipe) (*Type, error) {
	base, err := c.typeOf(r.Type)
	if err != nil {
		return nil, err
	}

	if len(r.Mixins) == 0 {
		return base, nil
	}

	return c.registry.composite(base.Name(), r.Mixins)
}

// typeOf turns a type reference (path, *Type or reflect.Type) into a *Type.
func (c *Container) typeOf(ref any) (*Type, error) {
	switch v := ref.(type) {
	case *Type:
		if v == nil {
			return nil, ErrInvalidArgument("type handle cannot be nil")
		}

		return v, nil
	case string:
		return c.registry.Lookup(v)
	case reflect.Type:
		if v == nil {
			return nil, ErrInvalidArgument("reflect type cannot be nil")
		}

		return NewType(v.String(), v, nil), nil
	default:
		return nil, ErrInvalidArgument("type reference must be a path, *Type or reflect.Type").
			WithContext("type", ref)
	}
}

// ResolveType returns the target type of name without instantiating it.
func (c *Container) ResolveType(name string) (*Type, error) {
	c.hooks.beforeResolveType(name)
	t, err := c.resolveType(name)
	c.hooks.afterResolveType(name, t, err)

	return t, err
}

func (c *Container) resolveType(name string) (*Type, error) {
	r, err := c.lookup(name)
	if err != nil {
		if c.parent != nil && errors.Is(err, ErrMissingConfigurationSentinel) {
			return c.parent.resolveType(name)
		}

		return nil, err
	}

	return c.recipeType(r)
}

// ResolveFor returns the instance of the first recipe, in store order,
// whose type is a subtype of base (a *Type, reflect.Type or type path).
// Optional args replace the configured arguments.
func (c *Container) ResolveFor(base any, args ...Args) (any, error) {
	bt, err := c.typeOf(base)
	if err != nil {
		return nil, err
	}

	for _, e := range c.entries() {
		t, err := e.owner.recipeType(e.recipe)
		if err != nil {
			return nil, err
		}

		if t.IsA(bt) {
			return c.resolveNamed(e.recipe.Name, firstArgs(args))
		}
	}

	return nil, ErrMissingConfiguration(bt.Name())
}

// ResolveMany returns a lazy sequence of instances, one per recipe whose
// type is a subtype of base, in store order followed by unshadowed parent
// recipes. Each iteration resolves afresh, honouring singleton caching.
// The sequence stops after the first error.
func (c *Container) ResolveMany(base any, args ...Args) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		bt, err := c.typeOf(base)
		if err != nil {
			yield(nil, err)
			return
		}

		for _, e := range c.entries() {
			t, err := e.owner.recipeType(e.recipe)
			if err != nil {
				yield(nil, err)
				return
			}

			if !t.IsA(bt) {
				continue
			}

			instance, err := c.resolveNamed(e.recipe.Name, firstArgs(args))
			if !yield(instance, err) || err != nil {
				return
			}
		}
	}
}

// ResolveAll collects ResolveMany into a slice.
func (c *Container) ResolveAll(base any, args ...Args) ([]any, error) {
	var out []any

	for instance, err := range c.ResolveMany(base, args...) {
		if err != nil {
			return nil, err
		}

		out = append(out, instance)
	}

	return out, nil
}

func firstArgs(args []Args) *Args {
	if len(args) == 0 {
		return nil
	}

	return &args[0]
}

// entries returns the visible recipes of c and its ancestors, a name
// owned by a closer container hiding the same name further up.
func (c *Container) entries() []entry {
	var out []entry

	seen := make(map[string]bool)

	for cur := c; cur != nil; cur = cur.parent {
		for _, r := range cur.store.all() {
			if seen[r.Name] {
				continue
			}

			seen[r.Name] = true
			out = append(out, entry{recipe: r, owner: cur})
		}
	}

	return out
}

// =============================================================================
// BUILD-UP
// =============================================================================

// BuildUp assigns the configured properties of name to an existing
// instance. overrides replace same-named properties. Values go through
// the resolver chain first.
func (c *Container) BuildUp(name string, instance any, overrides map[string]any) (any, error) {
	c.hooks.beforeBuildUp(name, instance)
	out, err := c.buildUpNamed(name, instance, overrides)
	c.hooks.afterBuildUp(name, out, err)

	return out, err
}

func (c *Container) buildUpNamed(name string, instance any, overrides map[string]any) (any, error) {
	r, err := c.lookup(name)
	if err != nil {
		if c.parent != nil && errors.Is(err, ErrMissingConfigurationSentinel) {
			return c.parent.buildUpNamed(name, instance, overrides)
		}

		return nil, err
	}

	t, err := c.recipeType(r)
	if err != nil {
		return nil, err
	}

	return c.buildUp(r, t, instance, overrides)
}

func (c *Container) buildUp(r Recipe, t *Type, instance any, overrides map[string]any) (any, error) {
	if len(r.Properties) == 0 && len(overrides) == 0 {
		return instance, nil
	}

	merged := make(map[string]any, len(r.Properties)+len(overrides))
	for k, v := range r.Properties {
		merged[k] = v
	}

	for k, v := range overrides {
		merged[k] = v
	}

	resolved := make(map[string]any, len(merged))

	for _, k := range sortedNames(merged) {
		v, err := c.resolveValue(merged[k])
		if err != nil {
			return nil, err
		}

		resolved[k] = v
	}

	ok, err := t.Assign(instance, resolved)
	if !ok {
		return nil, ErrInjectionUnsupported(r.Name, instance)
	}

	if err != nil {
		return nil, NewConstructionError(r.Name, "build_up", err)
	}

	return instance, nil
}

// =============================================================================
// CACHE
// =============================================================================

// cached returns the cached singleton for name. While an overlay is
// active the overlay cache is consulted first, and shadowed names only
// see the overlay cache.
func (c *Container) cached(name string) (any, bool) {
	if c.store.overlayActive() {
		if instance, ok := c.overlayCache[name]; ok {
			return instance, true
		}

		if c.store.shadowed(name) {
			return nil, false
		}
	}

	instance, ok := c.singletons[name]

	return instance, ok
}

// cache stores a singleton. Anything built while an overlay is active may
// be wired to overlay recipes, so it lives in the overlay cache and is
// dropped on restore.
func (c *Container) cache(name string, instance any) {
	if c.store.overlayActive() {
		c.overlayCache[name] = instance
		return
	}

	c.singletons[name] = instance
}

// Cached reports whether a singleton instance is cached for name.
func (c *Container) Cached(name string) bool {
	_, ok := c.cached(name)
	return ok
}

// Clear removes the cached singletons of names, or every cached singleton
// when no name is given. Unknown names are ignored.
func (c *Container) Clear(names ...string) {
	if len(names) == 0 {
		c.hooks.beforeClear("")
		c.singletons = make(map[string]any)

		if c.overlayCache != nil {
			c.overlayCache = make(map[string]any)
		}

		c.hooks.afterClear("")

		return
	}

	for _, name := range names {
		c.hooks.beforeClear(name)
		delete(c.singletons, name)
		delete(c.overlayCache, name)
		c.hooks.afterClear(name)
	}
}

// =============================================================================
// CHILD CONTAINERS
// =============================================================================

// CreateChildContainer creates a container holding config and delegating
// every other name to c. The child shares c's registry, hooks, proxy and
// logger, and keeps its own singleton cache.
func (c *Container) CreateChildContainer(config Configuration) (*Container, error) {
	return New(config,
		WithParent(c),
		WithRegistry(c.registry),
		WithHooks(c.hooks.hooks...),
		WithProxy(c.proxy),
		WithLogger(c.baseLogger),
	)
}

// =============================================================================
// INTROSPECTION
// =============================================================================

// Has reports whether name resolves to a recipe, through aliases and parents.
func (c *Container) Has(name string) bool {
	if _, err := c.lookup(name); err == nil {
		return true
	}

	return c.parent != nil && c.parent.Has(name)
}

// Names returns the visible recipe names in store order.
func (c *Container) Names() []string {
	es := c.entries()

	names := make([]string, len(es))
	for i, e := range es {
		names[i] = e.recipe.Name
	}

	return names
}

// Recipe returns the recipe visible under name, following aliases and parents.
func (c *Container) Recipe(name string) (Recipe, error) {
	r, err := c.lookup(name)
	if err != nil && c.parent != nil && errors.Is(err, ErrMissingConfigurationSentinel) {
		return c.parent.Recipe(name)
	}

	return r, err
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}
