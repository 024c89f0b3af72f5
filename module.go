package blueprint

import (
	"reflect"
	"sort"
	"strings"
)

// Module is a named bag of symbols (values, functions, types) that recipes
// reach through the mod:, ref:, factory: and attr: prefixes.
type Module struct {
	path    string
	symbols map[string]any
}

// NewModule creates a module with a copy of symbols.
func NewModule(path string, symbols map[string]any) *Module {
	m := &Module{path: path, symbols: make(map[string]any, len(symbols))}
	for k, v := range symbols {
		m.symbols[k] = v
	}

	return m
}

// Path returns the dotted module path.
func (m *Module) Path() string {
	return m.path
}

// Symbol returns the named symbol.
func (m *Module) Symbol(name string) (any, bool) {
	v, ok := m.symbols[name]
	return v, ok
}

// Attr implements Attributer.
func (m *Module) Attr(name string) (any, bool) {
	return m.Symbol(name)
}

// Symbols returns the symbol names in sorted order.
func (m *Module) Symbols() []string {
	names := make([]string, 0, len(m.symbols))
	for k := range m.symbols {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

// Set adds or replaces a symbol.
func (m *Module) Set(name string, value any) {
	m.symbols[name] = value
}

// Attributer is implemented by values exposing named attributes to attr:.
type Attributer interface {
	Attr(name string) (any, bool)
}

// Module registers symbols under path, merging into an existing module.
func (r *Registry) Module(path string, symbols map[string]any) *Module {
	if m, ok := r.modules[path]; ok {
		for k, v := range symbols {
			m.Set(k, v)
		}

		return m
	}

	m := NewModule(path, symbols)
	r.modules[path] = m

	return m
}

// LookupModule returns the module registered under path.
func (r *Registry) LookupModule(path string) (*Module, error) {
	m, ok := r.modules[path]
	if !ok {
		return nil, ErrModuleNotFound(path)
	}

	return m, nil
}

// Symbol resolves a reference path. Without a dot the whole path names a
// module; otherwise the part before the last dot names the module and the
// rest one of its symbols.
func (r *Registry) Symbol(path string) (any, error) {
	modPath, symbol, ok := splitLast(path)
	if !ok {
		return r.LookupModule(path)
	}

	m, err := r.LookupModule(modPath)
	if err != nil {
		return nil, err
	}

	v, found := m.Symbol(symbol)
	if !found {
		return nil, ErrSymbolNotFound(modPath, symbol)
	}

	return v, nil
}

// splitLast splits path on its last dot.
func splitLast(path string) (head, tail string, ok bool) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return "", path, false
	}

	return path[:i], path[i+1:], true
}

// attributeOf fetches name off obj: module symbols, Attributer values,
// string-keyed maps and exported struct fields are supported.
func attributeOf(obj any, name string) (any, error) {
	owner := typeName(obj)

	switch v := obj.(type) {
	case Attributer:
		if out, ok := v.Attr(name); ok {
			return out, nil
		}

		return nil, ErrSymbolNotFound(owner, name)
	case map[string]any:
		if out, ok := v[name]; ok {
			return out, nil
		}

		return nil, ErrSymbolNotFound(owner, name)
	}

	rv := reflect.ValueOf(obj)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, ErrSymbolNotFound(owner, name)
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		f := rv.FieldByName(name)
		if f.IsValid() && f.CanInterface() {
			return f.Interface(), nil
		}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			out := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if out.IsValid() {
				return out.Interface(), nil
			}
		}
	}

	return nil, ErrSymbolNotFound(owner, name)
}

func typeName(v any) string {
	if m, ok := v.(*Module); ok {
		return m.path
	}

	if v == nil {
		return "<nil>"
	}

	return reflect.TypeOf(v).String()
}
