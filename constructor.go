package blueprint

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

var errorType = reflect.TypeFor[error]()

// funcInfo holds analyzed constructor function metadata.
type funcInfo struct {
	fn       reflect.Value
	fnType   reflect.Type
	result   reflect.Type
	hasError bool
}

// analyzeFunc inspects a constructor function returning T or (T, error).
func analyzeFunc(fn any) (*funcInfo, error) {
	if fn == nil {
		return nil, errors.New("constructor cannot be nil")
	}

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %s", fnType)
	}

	info := &funcInfo{fn: fnValue, fnType: fnType}

	switch fnType.NumOut() {
	case 1:
		info.result = fnType.Out(0)
	case 2:
		if !fnType.Out(1).Implements(errorType) {
			return nil, errors.New("error must be the last return value")
		}

		info.result = fnType.Out(0)
		info.hasError = true
	default:
		return nil, errors.New("constructor must return (T) or (T, error)")
	}

	if info.result.Implements(errorType) && info.result.Kind() == reflect.Interface {
		return nil, errors.New("constructor must return at least one non-error value")
	}

	return info, nil
}

// FuncType creates a type from a Go constructor function. Positional
// arguments are passed in order, converted to the parameter types; keyword
// arguments are accepted for the parameter names declared with WithParams.
//
// Example:
//
//	t, err := blueprint.FuncType("app.Person", NewPerson,
//	    blueprint.WithParams("first_name", "last_name", "age"))
func FuncType(name string, fn any, opts ...TypeOption) (*Type, error) {
	info, err := analyzeFunc(fn)
	if err != nil {
		return nil, ErrInvalidArgument(fmt.Sprintf("type '%s': %v", name, err)).WithContext("type", name)
	}

	t := NewType(name, info.result, nil, opts...)
	t.construct = func(a Args) (any, error) {
		in, err := info.arguments(a, t.params)
		if err != nil {
			return nil, err
		}

		out := info.fn.Call(in)
		if info.hasError {
			return unpackResults(out)
		}

		return out[0].Interface(), nil
	}

	return t, nil
}

// WithParams names the parameters of a FuncType constructor so keyword
// arguments can be bound to them.
func WithParams(names ...string) TypeOption {
	return func(t *Type) { t.params = names }
}

// arguments maps Args onto the function parameters.
func (f *funcInfo) arguments(a Args, names []string) ([]reflect.Value, error) {
	numIn := f.fnType.NumIn()
	variadic := f.fnType.IsVariadic()

	fixed := numIn
	if variadic {
		fixed--
	}

	for key := range a.Keyword {
		if indexOf(names, key) < 0 || indexOf(names, key) >= fixed {
			return nil, fmt.Errorf("unexpected keyword argument '%s'", key)
		}
	}

	if !variadic && len(a.Positional) > numIn {
		return nil, fmt.Errorf("expected at most %d arguments, got %d", numIn, len(a.Positional))
	}

	in := make([]reflect.Value, 0, numIn)

	for i := 0; i < fixed; i++ {
		key := ""
		if i < len(names) {
			key = names[i]
		}

		v, ok := a.Value(i, key)
		if !ok {
			return nil, fmt.Errorf("missing argument %d (%s)", i, f.fnType.In(i))
		}

		rv, err := convertValue(v, f.fnType.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}

		in = append(in, rv)
	}

	if variadic && len(a.Positional) > fixed {
		elem := f.fnType.In(fixed).Elem()

		for i := fixed; i < len(a.Positional); i++ {
			rv, err := convertValue(a.Positional[i], elem)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}

			in = append(in, rv)
		}
	}

	return in, nil
}

func indexOf(names []string, key string) int {
	for i, n := range names {
		if n == key {
			return i
		}
	}

	return -1
}

// StructType creates a type constructing *T for a struct type T. Positional
// arguments fill exported fields in declaration order, keyword arguments and
// properties are matched to fields by `blueprint` tag or field name
// (case-insensitive, underscores ignored).
func StructType[T any](name string, opts ...TypeOption) *Type {
	ctor := func(a Args) (any, error) {
		ptr := new(T)
		rv := reflect.ValueOf(ptr).Elem()

		if rv.Kind() != reflect.Struct {
			return nil, fmt.Errorf("%s is not a struct type", rv.Type())
		}

		fields := exportedFields(rv.Type())
		if len(a.Positional) > len(fields) {
			return nil, fmt.Errorf("expected at most %d arguments, got %d", len(fields), len(a.Positional))
		}

		for i, v := range a.Positional {
			if err := assignField(rv.FieldByIndex(fields[i].Index), fields[i].Name, v); err != nil {
				return nil, err
			}
		}

		if err := SetFields(ptr, a.Keyword); err != nil {
			return nil, err
		}

		return ptr, nil
	}

	return NewType(name, reflect.TypeFor[*T](), ctor, append([]TypeOption{WithSetter(SetFields)}, opts...)...)
}

// FieldSetter makes the type assign properties to struct fields.
func FieldSetter() TypeOption {
	return WithSetter(SetFields)
}

// SetFields is a Setter assigning values to the exported fields of a
// pointer to struct, matched by `blueprint` tag or field name.
func SetFields(instance any, properties map[string]any) error {
	rv := reflect.ValueOf(instance)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("cannot set fields on %T", instance)
	}

	rv = rv.Elem()

	for _, key := range sortedNames(properties) {
		sf, ok := findField(rv.Type(), key)
		if !ok {
			return fmt.Errorf("%s has no field for '%s'", rv.Type(), key)
		}

		if err := assignField(rv.FieldByIndex(sf.Index), sf.Name, properties[key]); err != nil {
			return err
		}
	}

	return nil
}

func exportedFields(t reflect.Type) []reflect.StructField {
	var out []reflect.StructField

	for i := 0; i < t.NumField(); i++ {
		if f := t.Field(i); f.IsExported() && !f.Anonymous {
			out = append(out, f)
		}
	}

	return out
}

func findField(t reflect.Type, key string) (reflect.StructField, bool) {
	fields := exportedFields(t)

	for _, f := range fields {
		if f.Tag.Get("blueprint") == key {
			return f, true
		}
	}

	normalized := strings.ReplaceAll(key, "_", "")
	for _, f := range fields {
		if strings.EqualFold(f.Name, normalized) {
			return f, true
		}
	}

	return reflect.StructField{}, false
}

func assignField(field reflect.Value, name string, value any) error {
	rv, err := convertValue(value, field.Type())
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}

	field.Set(rv)

	return nil
}

// convertValue converts v to t. Assignable values pass through, scalars are
// coerced with cast, sequences are converted element-wise.
func convertValue(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	var (
		out any
		err error
	)

	switch t.Kind() {
	case reflect.String:
		out, err = cast.ToStringE(v)
	case reflect.Bool:
		out, err = cast.ToBoolE(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out, err = cast.ToInt64E(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out, err = cast.ToUint64E(v)
	case reflect.Float32, reflect.Float64:
		out, err = cast.ToFloat64E(v)
	case reflect.Slice:
		seq, ok := toSlice(v)
		if !ok {
			return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", v, t)
		}

		s := reflect.MakeSlice(t, len(seq), len(seq))

		for i, elem := range seq {
			ev, err := convertValue(elem, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}

			s.Index(i).Set(ev)
		}

		return s, nil
	default:
		if rv.Type().ConvertibleTo(t) {
			return rv.Convert(t), nil
		}

		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s", v, t)
	}

	if err != nil {
		return reflect.Value{}, err
	}

	if overflows(out, t) {
		return reflect.Value{}, fmt.Errorf("%v overflows %s", v, t)
	}

	return reflect.ValueOf(out).Convert(t), nil
}

// overflows reports whether the widened number out does not fit in t.
func overflows(out any, t reflect.Type) bool {
	target := reflect.Zero(t)

	switch n := out.(type) {
	case int64:
		return target.OverflowInt(n)
	case uint64:
		return target.OverflowUint(n)
	case float64:
		return target.OverflowFloat(n)
	}

	return false
}
