package blueprint

import (
	"fmt"
	"reflect"
	"strings"
)

// Value prefixes understood in recipe arguments and properties.
const (
	PrefixRelation  = "rel:"
	PrefixModule    = "mod:"
	PrefixReference = "ref:"
	PrefixFactory   = "factory:"
	PrefixAttribute = "attr:"
)

// ValueResolver turns a configuration value into a runtime value.
// Resolver values can be placed directly into args and properties.
type ValueResolver interface {
	ResolveValue(c *Container) (any, error)
}

// ResolverFunc adapts a function to ValueResolver.
type ResolverFunc func(c *Container) (any, error)

// ResolveValue implements ValueResolver.
func (f ResolverFunc) ResolveValue(c *Container) (any, error) {
	return f(c)
}

// Relation resolves another recipe of the same container.
type Relation string

// ResolveValue implements ValueResolver.
func (r Relation) ResolveValue(c *Container) (any, error) {
	return c.Resolve(string(r))
}

// ModuleRef returns the module registered under a dotted path.
type ModuleRef string

// ResolveValue implements ValueResolver.
func (m ModuleRef) ResolveValue(c *Container) (any, error) {
	return c.registry.LookupModule(string(m))
}

// Reference returns a module (no dot) or a module symbol (module.symbol).
type Reference string

// ResolveValue implements ValueResolver.
func (r Reference) ResolveValue(c *Container) (any, error) {
	return c.registry.Symbol(string(r))
}

// FactoryCall invokes a zero-argument function symbol (module.func) and
// returns its result.
type FactoryCall string

// ResolveValue implements ValueResolver.
func (f FactoryCall) ResolveValue(c *Container) (any, error) {
	path := string(f)

	if _, _, ok := splitLast(path); !ok {
		return nil, ErrInvalidArgument(fmt.Sprintf("factory reference '%s' must be module.function", path))
	}

	sym, err := c.registry.Symbol(path)
	if err != nil {
		return nil, err
	}

	out, err := callFactory(sym)
	if err != nil {
		return nil, NewConstructionError(path, "factory", err)
	}

	return out, nil
}

// Attribute resolves the part before the last dot as a Reference and
// fetches the trailing attribute off the result.
type Attribute string

// ResolveValue implements ValueResolver.
func (a Attribute) ResolveValue(c *Container) (any, error) {
	path := string(a)

	head, name, ok := splitLast(path)
	if !ok {
		return nil, ErrInvalidArgument(fmt.Sprintf("attribute reference '%s' must be owner.attribute", path))
	}

	owner, err := Reference(head).ResolveValue(c)
	if err != nil {
		return nil, err
	}

	return attributeOf(owner, name)
}

var prefixes = []struct {
	prefixes []string
	build    func(string) ValueResolver
}{
	{[]string{PrefixRelation, "relation:"}, func(s string) ValueResolver { return Relation(s) }},
	{[]string{PrefixModule, "module:"}, func(s string) ValueResolver { return ModuleRef(s) }},
	{[]string{PrefixReference, "reference:"}, func(s string) ValueResolver { return Reference(s) }},
	{[]string{PrefixFactory}, func(s string) ValueResolver { return FactoryCall(s) }},
	{[]string{PrefixAttribute, "attribute:"}, func(s string) ValueResolver { return Attribute(s) }},
}

// ParseValue returns the resolver encoded by a prefixed string.
func ParseValue(s string) (ValueResolver, bool) {
	for _, p := range prefixes {
		for _, prefix := range p.prefixes {
			if rest, ok := strings.CutPrefix(s, prefix); ok {
				return p.build(rest), true
			}
		}
	}

	return nil, false
}

// resolveValue resolves one configuration value; plain values pass through.
func (c *Container) resolveValue(value any) (any, error) {
	switch v := value.(type) {
	case ValueResolver:
		return v.ResolveValue(c)
	case string:
		if r, ok := ParseValue(v); ok {
			return r.ResolveValue(c)
		}
	}

	return value, nil
}

// resolveArgs resolves every positional and keyword argument value.
func (c *Container) resolveArgs(args Args) (Args, error) {
	out := Args{}

	if len(args.Positional) > 0 {
		out.Positional = make([]any, len(args.Positional))

		for i, v := range args.Positional {
			resolved, err := c.resolveValue(v)
			if err != nil {
				return Args{}, err
			}

			out.Positional[i] = resolved
		}
	}

	if len(args.Keyword) > 0 {
		out.Keyword = make(map[string]any, len(args.Keyword))

		for k, v := range args.Keyword {
			resolved, err := c.resolveValue(v)
			if err != nil {
				return Args{}, err
			}

			out.Keyword[k] = resolved
		}
	}

	return out, nil
}

// callFactory invokes a zero-argument function returning T or (T, error).
func callFactory(fn any) (any, error) {
	switch f := fn.(type) {
	case func() any:
		return f(), nil
	case func() (any, error):
		return f()
	}

	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.Type().NumIn() != 0 {
		return nil, fmt.Errorf("%T is not a zero-argument function", fn)
	}

	return unpackResults(fv.Call(nil))
}

// unpackResults handles (T) and (T, error) function results.
func unpackResults(results []reflect.Value) (any, error) {
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		if errV := results[1].Interface(); errV != nil {
			err, ok := errV.(error)
			if !ok {
				return nil, fmt.Errorf("second result must be an error, got %T", errV)
			}

			return nil, err
		}

		return results[0].Interface(), nil
	default:
		return nil, fmt.Errorf("function must return (T) or (T, error), got %d results", len(results))
	}
}
