package blueprint

// Definition pairs a recipe name with its recipe for batch registration.
type Definition struct {
	Name    string
	Recipe  any
	Replace bool
}

// Define creates a Definition. recipe is a Recipe, *Recipe or raw mapping.
//
// Example:
//
//	blueprint.RegisterAll(c,
//	    blueprint.Define("db", blueprint.NewRecipe("app.DB", blueprint.Singleton())),
//	    blueprint.Define("cache", map[string]any{"type": "app.Cache"}),
//	)
func Define(name string, recipe any) Definition {
	return Definition{Name: name, Recipe: recipe}
}

// Replacing returns a copy of the definition that overwrites an existing
// recipe of the same name.
func (d Definition) Replacing() Definition {
	d.Replace = true
	return d
}

// RegisterAll registers definitions in order and stops at the first
// failure. Definitions registered before the failure stay registered.
func RegisterAll(c *Container, defs ...Definition) error {
	for _, d := range defs {
		if err := c.Register(d.Name, d.Recipe, d.Replace); err != nil {
			return err
		}
	}

	return nil
}

// TypedDefinition registers a typed constructor in a batch.
type TypedDefinition[T any] struct {
	Key     Key[T]
	Ctor    func(Args) (T, error)
	Options []RecipeOption
}

// DefineKey creates a TypedDefinition.
func DefineKey[T any](key Key[T], ctor func(Args) (T, error), opts ...RecipeOption) TypedDefinition[T] {
	return TypedDefinition[T]{Key: key, Ctor: ctor, Options: opts}
}

// RegisterKeyed registers typed definitions sharing T in order.
func RegisterKeyed[T any](c *Container, defs ...TypedDefinition[T]) error {
	for _, d := range defs {
		if err := RegisterWithKey(c, d.Key, d.Ctor, d.Options...); err != nil {
			return err
		}
	}

	return nil
}
