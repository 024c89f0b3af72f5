package blueprint

import (
	"fmt"
	"maps"
)

type person struct {
	FirstName string
	LastName  string
	Age       int
	Hobbies   []string
	Loves     *person
	Email     string
}

func newPerson(first, last string, age int) *person {
	return &person{FirstName: first, LastName: last, Age: age}
}

func (p *person) FullName() string {
	return p.FirstName + " " + p.LastName
}

type named interface {
	FullName() string
}

// counter records how often its constructor ran.
type counter struct {
	ID int
}

type greeter struct {
	Greeting string
	Target   any
}

func (g *greeter) SetProperty(name string, value any) error {
	switch name {
	case "greeting":
		g.Greeting = fmt.Sprint(value)
	case "target":
		g.Target = value
	default:
		return fmt.Errorf("unknown property %s", name)
	}

	return nil
}

type fixture struct {
	registry       *Registry
	personBase     *Type
	personType     *Type
	personWithBase *Type
	dictType       *Type
	counterType    *Type
	greeterType    *Type
	namedType      *Type
	built          *int
}

func mustType(t *Type, err error) *Type {
	if err != nil {
		panic(err)
	}

	return t
}

func newFixture() *fixture {
	built := 0
	f := &fixture{registry: NewRegistry(), built: &built}

	f.personBase = NewType("test.PersonBase", nil, nil)
	f.personType = mustType(FuncType("test.Person", newPerson,
		WithParams("first_name", "last_name", "age"), FieldSetter()))
	f.personWithBase = mustType(FuncType("test.PersonWithBase", newPerson,
		WithParams("first_name", "last_name", "age"), FieldSetter(), Extends(f.personBase)))
	f.dictType = TypeFor("builtin.dict", func(a Args) (map[string]any, error) {
		out := make(map[string]any, len(a.Keyword))
		maps.Copy(out, a.Keyword)

		return out, nil
	})
	f.counterType = TypeFor("test.Counter", func(Args) (*counter, error) {
		built++
		return &counter{ID: built}, nil
	}, WithFactory("zero", func(Args) (any, error) {
		return &counter{}, nil
	}))
	f.greeterType = TypeFor("test.Greeter", func(Args) (*greeter, error) {
		return &greeter{}, nil
	})
	f.namedType = InterfaceFor[named]("test.Named")

	f.registry.MustRegister(
		f.personBase, f.personType, f.personWithBase,
		f.dictType, f.counterType, f.greeterType, f.namedType,
	)

	f.registry.Module("logging", map[string]any{
		"DEBUG":     10,
		"getLogger": func() (map[string]any, error) { return map[string]any{"level": 10}, nil },
	})
	f.registry.Module("app.settings", map[string]any{
		"owner": newPerson("Jens", "Blawatt", 27),
	})

	return f
}

func personSettings() Configuration {
	return Configuration{
		"person": map[string]any{
			"type": "test.Person",
			"args": map[string]any{"": []any{nil, nil, 0}},
		},
		"jessica": map[string]any{
			"type": "test.Person",
			"args": map[string]any{
				"first_name": "Jessica",
				"last_name":  "Backhaus",
				"age":        27,
			},
			"singleton": true,
		},
		"jens": map[string]any{
			"type":      "test.Person",
			"singleton": true,
			"args":      map[string]any{"": []any{"Jens", "Blawatt", 27}},
			"properties": map[string]any{
				"hobbies": []any{"Tennis", "Programming"},
				"loves":   "rel:jessica",
			},
		},
		"jens_nl": map[string]any{
			"type":      "test.Person",
			"singleton": true,
			"lazy":      false,
			"args":      map[string]any{"": []any{"Jens", "Blawatt", 27}},
		},
		"jens_assert_base": map[string]any{
			"type":        "test.PersonWithBase",
			"assert_type": "test.PersonBase",
			"args":        map[string]any{"": []any{"Jens", "Blawatt", 27}},
		},
		"jens_assert_no_base": map[string]any{
			"type":        "test.Person",
			"assert_type": "test.PersonBase",
			"args":        map[string]any{"": []any{"Jens", "Blawatt", 27}},
		},
		"logging_mod": map[string]any{
			"type": "builtin.dict",
			"args": map[string]any{"logging": "mod:logging"},
		},
		"logging_ref": map[string]any{
			"type": "builtin.dict",
			"args": map[string]any{"DEBUG": "ref:logging.DEBUG"},
		},
	}
}

func newPersonContainer(opts ...Option) (*Container, *fixture, error) {
	f := newFixture()
	c, err := New(personSettings(), append([]Option{WithRegistry(f.registry)}, opts...)...)

	return c, f, err
}
