package blueprint

// Key identifies a recipe together with the Go type it resolves to.
type Key[T any] struct {
	name string
}

// NewKey creates a typed recipe key.
//
// Example:
//
//	var DatabaseKey = blueprint.NewKey[*Database]("database")
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the recipe name of the key.
func (k Key[T]) Name() string {
	return k.name
}

// Relation returns a resolver referring to the key's recipe, for use in
// args and properties of other recipes.
func (k Key[T]) Relation() Relation {
	return Relation(k.name)
}

// RegisterWithKey registers a typed constructor under the key's name.
//
// Example:
//
//	blueprint.RegisterWithKey(c, DatabaseKey, func(a blueprint.Args) (*Database, error) {
//	    return &Database{}, nil
//	}, blueprint.Singleton())
func RegisterWithKey[T any](c *Container, key Key[T], ctor func(Args) (T, error), opts ...RecipeOption) error {
	return RegisterFunc(c, key.name, ctor, opts...)
}

// ResolveKey resolves the key's recipe as T.
func ResolveKey[T any](c *Container, key Key[T]) (T, error) {
	return Resolve[T](c, key.name)
}

// MustKey resolves the key's recipe and panics on error.
func MustKey[T any](c *Container, key Key[T]) T {
	return Must[T](c, key.name)
}

// HasKey reports whether the key's recipe is visible in c.
func HasKey[T any](c *Container, key Key[T]) bool {
	return c.Has(key.name)
}

// InspectKey returns diagnostic information about the key's recipe.
func InspectKey[T any](c *Container, key Key[T]) RecipeInfo {
	return c.Inspect(key.name)
}
