package blueprint

import (
	"errors"
	"reflect"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Recipe describes how to build and wire one named instance.
//
// Type and AssertType hold either a registry path (string) or a *Type handle.
// Recipes are copied when inserted into a container and handed out by value.
// The zero value is lazy: it is built on first resolution unless Eager is set.
type Recipe struct {
	Name          string
	Type          any
	Args          Args
	Properties    map[string]any
	Singleton     bool
	Eager         bool
	AssertType    any
	FactoryMethod string
	Alias         []string
	Mixins        []string
}

// Configuration maps recipe names to recipes. Values may be Recipe, *Recipe
// or a raw map[string]any with the keys type, args, singleton, lazy,
// properties, assert_type, factory_method, alias and mixins.
type Configuration map[string]any

// RecipeOption configures a recipe built with NewRecipe.
type RecipeOption func(*Recipe)

// NewRecipe creates a lazy, non-singleton recipe for target, which is a
// registry path, a *Type, or a Go function accepted by FuncType.
func NewRecipe(target any, opts ...RecipeOption) Recipe {
	r := Recipe{Type: target}
	for _, opt := range opts {
		opt(&r)
	}

	return r
}

// Singleton caches the instance after the first resolution.
func Singleton() RecipeOption {
	return func(r *Recipe) { r.Singleton = true }
}

// Eager instantiates the recipe as soon as it is registered.
func Eager() RecipeOption {
	return func(r *Recipe) { r.Eager = true }
}

// WithArgs appends positional constructor arguments.
func WithArgs(values ...any) RecipeOption {
	return func(r *Recipe) { r.Args.Positional = append(r.Args.Positional, values...) }
}

// WithKeywordArgs sets keyword constructor arguments.
func WithKeywordArgs(values map[string]any) RecipeOption {
	return func(r *Recipe) {
		if r.Args.Keyword == nil {
			r.Args.Keyword = make(map[string]any, len(values))
		}

		for k, v := range values {
			r.Args.Keyword[k] = v
		}
	}
}

// WithProperty adds one property assignment.
func WithProperty(name string, value any) RecipeOption {
	return func(r *Recipe) {
		if r.Properties == nil {
			r.Properties = make(map[string]any)
		}

		r.Properties[name] = value
	}
}

// WithProperties adds property assignments.
func WithProperties(values map[string]any) RecipeOption {
	return func(r *Recipe) {
		for k, v := range values {
			WithProperty(k, v)(r)
		}
	}
}

// WithAssertType requires the resolved type to be a subtype of base.
func WithAssertType(base any) RecipeOption {
	return func(r *Recipe) { r.AssertType = base }
}

// WithFactoryMethod builds the instance through a named factory of the type.
func WithFactoryMethod(method string) RecipeOption {
	return func(r *Recipe) { r.FactoryMethod = method }
}

// WithAlias adds alternate lookup names.
func WithAlias(names ...string) RecipeOption {
	return func(r *Recipe) { r.Alias = append(r.Alias, names...) }
}

// WithMixins selects the composite registered for the type and these mixins.
func WithMixins(names ...string) RecipeOption {
	return func(r *Recipe) { r.Mixins = append(r.Mixins, names...) }
}

// HasAlias reports whether name is one of the recipe's aliases.
func (r Recipe) HasAlias(name string) bool {
	for _, a := range r.Alias {
		if a == name {
			return true
		}
	}

	return false
}

// PropertyNames returns the property keys in sorted order.
func (r Recipe) PropertyNames() []string {
	names := make([]string, 0, len(r.Properties))
	for k := range r.Properties {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

// Lazy reports whether the recipe waits for its first resolution.
func (r Recipe) Lazy() bool {
	return !r.Eager
}

func (r Recipe) clone() Recipe {
	out := r
	out.Args = r.Args.clone()

	if r.Properties != nil {
		out.Properties = make(map[string]any, len(r.Properties))
		for k, v := range r.Properties {
			out.Properties[k] = v
		}
	}

	out.Alias = append([]string(nil), r.Alias...)
	out.Mixins = append([]string(nil), r.Mixins...)

	return out
}

// rawRecipe is the decoding target for recipe mappings.
type rawRecipe struct {
	Type          any            `mapstructure:"type" validate:"required"`
	Args          any            `mapstructure:"args"`
	Singleton     bool           `mapstructure:"singleton"`
	Lazy          *bool          `mapstructure:"lazy"`
	Properties    map[string]any `mapstructure:"properties"`
	AssertType    any            `mapstructure:"assert_type"`
	FactoryMethod string         `mapstructure:"factory_method"`
	Alias         []string       `mapstructure:"alias" validate:"dive,required"`
	Mixins        []string       `mapstructure:"mixins" validate:"dive,required"`
}

var recipeValidator = validator.New(validator.WithRequiredStructEnabled())

// Normalize converts a Recipe, *Recipe or raw mapping into a Recipe named name,
// applying defaults for every missing field.
func Normalize(name string, value any) (Recipe, error) {
	switch v := value.(type) {
	case Recipe:
		return checkRecipe(name, v)
	case *Recipe:
		if v == nil {
			return Recipe{}, ErrMissingTypeSpecification(name)
		}

		return checkRecipe(name, *v)
	case nil:
		return Recipe{}, ErrMissingTypeSpecification(name)
	}

	if reflect.ValueOf(value).Kind() != reflect.Map {
		return Recipe{}, ErrInvalidRecipe(name, errors.New("expected a recipe or a mapping"))
	}

	var raw rawRecipe

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &raw,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Recipe{}, ErrInvalidRecipe(name, err)
	}

	if err := decoder.Decode(value); err != nil {
		return Recipe{}, ErrInvalidRecipe(name, err)
	}

	if err := validateRaw(name, &raw); err != nil {
		return Recipe{}, err
	}

	args, err := normalizeArgs(raw.Args)
	if err != nil {
		return Recipe{}, ErrInvalidRecipe(name, err)
	}

	lazy := true
	if raw.Lazy != nil {
		lazy = *raw.Lazy
	}

	r := Recipe{
		Name:          name,
		Type:          raw.Type,
		Args:          args,
		Properties:    raw.Properties,
		Singleton:     raw.Singleton,
		Eager:         !lazy,
		AssertType:    raw.AssertType,
		FactoryMethod: raw.FactoryMethod,
		Alias:         raw.Alias,
		Mixins:        raw.Mixins,
	}

	return r.clone(), nil
}

func checkRecipe(name string, r Recipe) (Recipe, error) {
	raw := rawRecipe{Type: r.Type, Alias: r.Alias, Mixins: r.Mixins}
	if err := validateRaw(name, &raw); err != nil {
		return Recipe{}, err
	}

	out := r.clone()
	out.Name = name

	return out, nil
}

func validateRaw(name string, raw *rawRecipe) error {
	err := recipeValidator.Struct(raw)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.StructField() == "Type" {
				return ErrMissingTypeSpecification(name)
			}
		}
	}

	return ErrInvalidRecipe(name, err)
}
