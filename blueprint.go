// Package blueprint is a configuration-driven dependency injection
// container. A Container maps names to recipes; each recipe names a
// registered type, its constructor arguments and the properties assigned
// after construction. Instances are built on first use or at start-up,
// optionally cached as singletons, and wired to each other through
// relation values such as "rel:db".
//
// Types, modules and mixin composites are declared up front in a
// Registry; nothing is looked up by reflection on a string path.
//
//	reg := blueprint.NewRegistry()
//	reg.MustRegister(blueprint.StructType[Server]("app.Server"))
//
//	c, err := blueprint.New(blueprint.Configuration{
//	    "server": map[string]any{
//	        "type":       "app.Server",
//	        "singleton":  true,
//	        "properties": map[string]any{"db": "rel:db"},
//	    },
//	}, blueprint.WithRegistry(reg))
package blueprint
