package blueprint

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

// DependencyGraph holds the relations between recipes.
type DependencyGraph struct {
	nodes map[string][]string
	order []string // insertion order
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{nodes: make(map[string][]string)}
}

// AddNode adds a node with the names it depends on. Nodes are visited in
// the order they are added.
func (g *DependencyGraph) AddNode(name string, dependencies []string) {
	if _, exists := g.nodes[name]; !exists {
		g.order = append(g.order, name)
	}

	g.nodes[name] = dependencies
}

// Dependencies returns the names a node depends on.
func (g *DependencyGraph) Dependencies(name string) []string {
	return g.nodes[name]
}

// HasNode checks if a node exists in the graph.
func (g *DependencyGraph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Nodes returns the node names in insertion order.
func (g *DependencyGraph) Nodes() []string {
	return slices.Clone(g.order)
}

// TopologicalSort returns the nodes with every dependency before its
// dependents. Unrelated nodes keep insertion order. A cycle fails with
// CircularDependency naming the full path.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	visited := make(map[string]bool)
	result := make([]string, 0, len(g.nodes))

	var path []string

	for _, name := range g.order {
		if err := g.visit(name, visited, &path, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (g *DependencyGraph) visit(name string, visited map[string]bool, path, result *[]string) error {
	if visited[name] {
		return nil
	}

	if i := slices.Index(*path, name); i >= 0 {
		cycle := append(slices.Clone((*path)[i:]), name)
		return ErrCircularDependency(cycle)
	}

	deps, ok := g.nodes[name]
	if !ok {
		// not in graph, reported separately
		return nil
	}

	*path = append(*path, name)

	for _, dep := range deps {
		if err := g.visit(dep, visited, path, result); err != nil {
			return err
		}
	}

	*path = (*path)[:len(*path)-1]
	visited[name] = true
	*result = append(*result, name)

	return nil
}

// relations returns the recipe names r refers to through relation values
// in its args and properties, in first-seen order.
func relations(r Recipe) []string {
	var out []string

	add := func(v any) {
		if name, ok := relationName(v); ok && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}

	for _, v := range r.Args.Positional {
		add(v)
	}

	for _, k := range sortedNames(r.Args.Keyword) {
		add(r.Args.Keyword[k])
	}

	for _, k := range r.PropertyNames() {
		add(r.Properties[k])
	}

	return out
}

func relationName(v any) (string, bool) {
	switch val := v.(type) {
	case Relation:
		return string(val), true
	case string:
		if res, ok := ParseValue(val); ok {
			if rel, isRel := res.(Relation); isRel {
				return string(rel), true
			}
		}
	}

	return "", false
}

// Graph builds the dependency graph of every recipe reachable from the
// container, ancestors included. Relations to aliases are recorded under
// the canonical name. A relation is followed from the container that owns
// the recipe, the same way resolution delegates to a parent, so an
// ancestor recipe hidden by a same-named child recipe gets its own node
// keyed "name@depth", depth counting parents above c.
func (c *Container) Graph() *DependencyGraph {
	g := NewDependencyGraph()

	visible := make(map[string]*Container)
	for _, e := range c.entries() {
		visible[e.recipe.Name] = e.owner
	}

	key := func(name string, owner *Container, depth int) string {
		if visible[name] == owner {
			return name
		}

		return fmt.Sprintf("%s@%d", name, depth)
	}

	depth := 0
	for cur := c; cur != nil; cur, depth = cur.parent, depth+1 {
		for _, r := range cur.store.all() {
			deps := relations(r)
			for i, dep := range deps {
				deps[i] = dependencyKey(cur, depth, dep, key)
			}

			g.AddNode(key(r.Name, cur, depth), deps)
		}
	}

	return g
}

// dependencyKey finds the container that resolves dep when asked from
// owner and returns that recipe's node key. Unknown names stay as is.
func dependencyKey(owner *Container, depth int, dep string, key func(string, *Container, int) string) string {
	for cur, d := owner, depth; cur != nil; cur, d = cur.parent, d+1 {
		if r, err := cur.lookup(dep); err == nil {
			return key(r.Name, cur, d)
		}
	}

	return dep
}

// Validate checks every visible recipe without instantiating anything:
// its type resolves, its assert_type holds, each relation names a
// visible recipe, and relations form no cycle. All problems are returned
// together.
func (c *Container) Validate() error {
	var errs error

	for _, e := range c.entries() {
		r := e.recipe

		t, err := e.owner.recipeType(r)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("recipe '%s': %w", r.Name, err))
		} else if r.AssertType != nil {
			expected, err := e.owner.typeOf(r.AssertType)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("recipe '%s': %w", r.Name, err))
			} else if !t.IsA(expected) {
				errs = multierr.Append(errs, ErrTypeAssertionViolation(r.Name, t, expected))
			}
		}

		for _, dep := range relations(r) {
			if !e.owner.Has(dep) {
				errs = multierr.Append(errs, ErrMissingConfiguration(dep).WithContext("dependent", r.Name))
			}
		}
	}

	if _, err := c.Graph().TopologicalSort(); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}
