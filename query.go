package blueprint

import (
	"slices"
)

// RecipeInfo describes a visible recipe for diagnostics.
type RecipeInfo struct {
	Name          string
	Found         bool
	Type          string
	Singleton     bool
	Lazy          bool
	Cached        bool
	Inherited     bool
	Overlaid      bool
	FactoryMethod string
	Alias         []string
	Mixins        []string
	Properties    []string
	Dependencies  []string
}

// Inspect returns diagnostic information about the recipe visible under
// name. Found is false when no recipe, alias or parent entry matches.
func (c *Container) Inspect(name string) RecipeInfo {
	for cur := c; cur != nil; cur = cur.parent {
		r, err := cur.lookup(name)
		if err != nil {
			continue
		}

		return RecipeInfo{
			Name:          r.Name,
			Found:         true,
			Type:          typeRefName(r.Type),
			Singleton:     r.Singleton,
			Lazy:          r.Lazy(),
			Cached:        cur.Cached(r.Name),
			Inherited:     cur != c,
			Overlaid:      cur.store.shadowed(r.Name),
			FactoryMethod: r.FactoryMethod,
			Alias:         slices.Clone(r.Alias),
			Mixins:        slices.Clone(r.Mixins),
			Properties:    r.PropertyNames(),
			Dependencies:  relations(r),
		}
	}

	return RecipeInfo{Name: name}
}

// RecipeQuery selects recipes. Zero fields match everything.
type RecipeQuery struct {
	// Singleton filters by the singleton flag.
	Singleton *bool

	// Lazy filters by the lazy flag.
	Lazy *bool

	// Cached filters by whether a singleton instance is cached.
	Cached *bool

	// Base keeps recipes whose type is a subtype of Base
	// (*Type, reflect.Type or registry path).
	Base any

	// DependsOn keeps recipes holding a relation to the named recipe.
	DependsOn string
}

// Query returns information about every visible recipe matching q, in
// store order.
//
// Example:
//
//	eager := false
//	infos, err := blueprint.Query(c, blueprint.RecipeQuery{Lazy: &eager})
func Query(c *Container, q RecipeQuery) ([]RecipeInfo, error) {
	var base *Type

	if q.Base != nil {
		bt, err := c.typeOf(q.Base)
		if err != nil {
			return nil, err
		}

		base = bt
	}

	var results []RecipeInfo

	for _, e := range c.entries() {
		info := c.Inspect(e.recipe.Name)

		if q.Singleton != nil && info.Singleton != *q.Singleton {
			continue
		}

		if q.Lazy != nil && info.Lazy != *q.Lazy {
			continue
		}

		if q.Cached != nil && info.Cached != *q.Cached {
			continue
		}

		if q.DependsOn != "" && !slices.Contains(info.Dependencies, q.DependsOn) {
			continue
		}

		if base != nil {
			t, err := e.owner.recipeType(e.recipe)
			if err != nil {
				return nil, err
			}

			if !t.IsA(base) {
				continue
			}
		}

		results = append(results, info)
	}

	return results, nil
}

// QueryNames returns the names of the recipes matching q.
func QueryNames(c *Container, q RecipeQuery) ([]string, error) {
	results, err := Query(c, q)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(results))
	for i, info := range results {
		names[i] = info.Name
	}

	return names, nil
}

// FindSingletons returns every singleton recipe.
func FindSingletons(c *Container) []RecipeInfo {
	singleton := true
	results, _ := Query(c, RecipeQuery{Singleton: &singleton})

	return results
}

// FindEager returns every recipe instantiated at start-up.
func FindEager(c *Container) []RecipeInfo {
	lazy := false
	results, _ := Query(c, RecipeQuery{Lazy: &lazy})

	return results
}

// FindDependents returns every recipe holding a relation to name.
func FindDependents(c *Container, name string) []RecipeInfo {
	results, _ := Query(c, RecipeQuery{DependsOn: name})
	return results
}

// typeRefName renders a recipe type reference.
func typeRefName(ref any) string {
	switch v := ref.(type) {
	case string:
		return v
	case *Type:
		return v.Name()
	default:
		return typeName(ref)
	}
}
