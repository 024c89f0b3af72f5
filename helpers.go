package blueprint

import (
	"fmt"
	"reflect"
)

// Resolve resolves name and asserts the instance to T.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T

	instance, err := c.Resolve(name)
	if err != nil {
		return zero, err
	}

	return assertInstance[T](name, instance)
}

// ResolveWithArgs resolves name with call-time args and asserts the
// instance to T.
func ResolveWithArgs[T any](c *Container, name string, args Args) (T, error) {
	var zero T

	instance, err := c.ResolveWith(name, args)
	if err != nil {
		return zero, err
	}

	return assertInstance[T](name, instance)
}

// Must resolves or panics. Use only during startup.
func Must[T any](c *Container, name string) T {
	instance, err := Resolve[T](c, name)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", name, err))
	}

	return instance
}

// ResolveAs returns the first instance, in store order, whose type is a
// subtype of T.
//
// Example:
//
//	mailer, err := blueprint.ResolveAs[Mailer](c)
func ResolveAs[T any](c *Container) (T, error) {
	var zero T

	rt := reflect.TypeFor[T]()

	instance, err := c.ResolveFor(rt)
	if err != nil {
		return zero, err
	}

	return assertInstance[T](rt.String(), instance)
}

// ResolveAllAs returns every instance whose type is a subtype of T.
func ResolveAllAs[T any](c *Container) ([]T, error) {
	rt := reflect.TypeFor[T]()

	var out []T

	for instance, err := range c.ResolveMany(rt) {
		if err != nil {
			return nil, err
		}

		typed, err := assertInstance[T](rt.String(), instance)
		if err != nil {
			return nil, err
		}

		out = append(out, typed)
	}

	return out, nil
}

// RegisterValue registers a pre-built instance as a singleton.
func RegisterValue[T any](c *Container, name string, instance T) error {
	t := TypeFor(name, func(Args) (T, error) { return instance, nil })
	return c.Register(name, NewRecipe(t, Singleton()), false)
}

// RegisterFunc registers a typed constructor under name.
func RegisterFunc[T any](c *Container, name string, ctor func(Args) (T, error), opts ...RecipeOption) error {
	return c.Register(name, NewRecipe(TypeFor(name, ctor), opts...), false)
}

func assertInstance[T any](name string, instance any) (T, error) {
	typed, ok := instance.(T)
	if !ok {
		var zero T

		return zero, NewError(CodeTypeAssertionViolation,
			fmt.Sprintf("recipe '%s' resolved to %T, not %s", name, instance, reflect.TypeFor[T]()), nil).
			WithContext("recipe", name)
	}

	return typed, nil
}
