package blueprint

import (
	"fmt"
	"reflect"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Params carries the named parameters of an injected function.
type Params map[string]any

// InjectedFunc is a function whose parameters are supplied by name.
type InjectedFunc func(p Params) error

// Binding binds a parameter to a recipe name (string) or to a base type
// (*Type or reflect.Type).
type Binding struct {
	Param  string
	Target any
	force  bool
}

// Bind binds param to target. A caller-supplied value for param wins.
func Bind(param string, target any) Binding {
	return Binding{Param: param, Target: target}
}

// Forced returns a copy of the binding that overrides caller-supplied values.
func (b Binding) Forced() Binding {
	b.force = true
	return b
}

// Inject returns a decorator supplying each bound parameter with the
// instance resolved for its target: Resolve for a recipe name, ResolveFor
// for a type.
//
// Example:
//
//	handler := c.Inject(blueprint.Bind("db", "database"))(func(p blueprint.Params) error {
//	    return p["db"].(*DB).Ping()
//	})
//	err := handler(nil)
func (c *Container) Inject(bindings ...Binding) func(InjectedFunc) InjectedFunc {
	return c.decorate(bindings, func(target any) (any, error) {
		if name, ok := target.(string); ok {
			return c.Resolve(name)
		}

		return c.ResolveFor(target)
	})
}

// InjectMany returns a decorator supplying each bound parameter with the
// []any of every instance whose type is a subtype of its target.
func (c *Container) InjectMany(bindings ...Binding) func(InjectedFunc) InjectedFunc {
	return c.decorate(bindings, func(target any) (any, error) {
		return c.ResolveAll(target)
	})
}

func (c *Container) decorate(bindings []Binding, resolve func(target any) (any, error)) func(InjectedFunc) InjectedFunc {
	bound := append([]Binding(nil), bindings...)

	return func(fn InjectedFunc) InjectedFunc {
		return func(p Params) error {
			params := make(Params, len(p)+len(bound))
			for k, v := range p {
				params[k] = v
			}

			for _, b := range bound {
				if _, supplied := params[b.Param]; supplied && !b.force {
					continue
				}

				v, err := resolve(b.Target)
				if err != nil {
					return err
				}

				params[b.Param] = v
			}

			return fn(params)
		}
	}
}

// Populate fills the fields of the struct dst points to. A field tagged
// `inject:"name"` receives the instance resolved for name; with
// `optional:"true"` a missing recipe leaves the field untouched. An empty
// tag uses the field name, falling back to its lower-camel form when no
// recipe has the exact name.
//
// Example:
//
//	var deps struct {
//	    DB    *DB    `inject:"database"`
//	    Cache *Cache `inject:"cache" optional:"true"`
//	}
//	err := c.Populate(&deps)
func (c *Container) Populate(dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrInvalidArgument(fmt.Sprintf("populate target must be a non-nil pointer to struct, got %T", dst))
	}

	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)

		name, ok := field.Tag.Lookup("inject")
		if !ok {
			continue
		}

		if !field.IsExported() {
			return ErrInvalidArgument(fmt.Sprintf("field %s is not exported", field.Name))
		}

		if name == "" {
			name = fieldRecipeName(c, field.Name)
		}

		if optional, _ := strconv.ParseBool(field.Tag.Get("optional")); optional && !c.Has(name) {
			continue
		}

		instance, err := c.Resolve(name)
		if err != nil {
			return err
		}

		v := reflect.ValueOf(instance)
		if instance == nil {
			v = reflect.Zero(field.Type)
		}

		if !v.Type().AssignableTo(field.Type) {
			return ErrInvalidArgument(fmt.Sprintf("field %s: %T is not assignable to %s", field.Name, instance, field.Type)).
				WithContext("recipe", name)
		}

		rv.Field(i).Set(v)
	}

	return nil
}

func fieldRecipeName(c *Container, field string) string {
	if c.Has(field) {
		return field
	}

	r, size := utf8.DecodeRuneInString(field)

	return string(unicode.ToLower(r)) + field[size:]
}
