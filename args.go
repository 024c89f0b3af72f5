package blueprint

import (
	"reflect"

	"github.com/spf13/cast"
)

// Args holds the constructor arguments of a recipe.
// A recipe may mix positional and keyword arguments.
type Args struct {
	Positional []any
	Keyword    map[string]any
}

// Positional builds Args from positional values only.
func Positional(values ...any) Args {
	return Args{Positional: values}
}

// Keyword builds Args from keyword values only.
func Keyword(values map[string]any) Args {
	return Args{Keyword: values}
}

// Len returns the number of positional and keyword arguments.
func (a Args) Len() int {
	return len(a.Positional) + len(a.Keyword)
}

// IsEmpty reports whether no argument is set.
func (a Args) IsEmpty() bool {
	return a.Len() == 0
}

// At returns the i-th positional argument.
func (a Args) At(i int) (any, bool) {
	if i < 0 || i >= len(a.Positional) {
		return nil, false
	}

	return a.Positional[i], true
}

// Get returns the keyword argument named key.
func (a Args) Get(key string) (any, bool) {
	v, ok := a.Keyword[key]
	return v, ok
}

// Value returns the keyword argument named key if present, otherwise the
// i-th positional argument. Pass i < 0 or key "" to skip either form.
func (a Args) Value(i int, key string) (any, bool) {
	if key != "" {
		if v, ok := a.Get(key); ok {
			return v, true
		}
	}

	return a.At(i)
}

// String returns Value(i, key) coerced to a string.
func (a Args) String(i int, key string) (string, error) {
	v, _ := a.Value(i, key)
	return cast.ToStringE(v)
}

// Int returns Value(i, key) coerced to an int.
func (a Args) Int(i int, key string) (int, error) {
	v, _ := a.Value(i, key)
	return cast.ToIntE(v)
}

// Bool returns Value(i, key) coerced to a bool.
func (a Args) Bool(i int, key string) (bool, error) {
	v, _ := a.Value(i, key)
	return cast.ToBoolE(v)
}

// Float returns Value(i, key) coerced to a float64.
func (a Args) Float(i int, key string) (float64, error) {
	v, _ := a.Value(i, key)
	return cast.ToFloat64E(v)
}

// clone copies the argument containers, not the values.
func (a Args) clone() Args {
	out := Args{}

	if len(a.Positional) > 0 {
		out.Positional = append([]any(nil), a.Positional...)
	}

	if len(a.Keyword) > 0 {
		out.Keyword = make(map[string]any, len(a.Keyword))
		for k, v := range a.Keyword {
			out.Keyword[k] = v
		}
	}

	return out
}

// normalizeArgs turns a raw args value into Args.
//
// A mapping uses the empty key for positional values and every other key
// for keyword values; a sequence is positional; nil is empty.
func normalizeArgs(raw any) (Args, error) {
	switch v := raw.(type) {
	case nil:
		return Args{}, nil
	case Args:
		return v.clone(), nil
	case *Args:
		if v == nil {
			return Args{}, nil
		}

		return v.clone(), nil
	}

	rv := reflect.ValueOf(raw)

	switch rv.Kind() {
	case reflect.Map:
		kw, err := toStringMap(rv)
		if err != nil {
			return Args{}, ErrInvalidArgument("args mapping must have string keys").WithContext("args", raw)
		}

		out := Args{}

		for key, value := range kw {
			if key != "" {
				if out.Keyword == nil {
					out.Keyword = make(map[string]any, len(kw))
				}

				out.Keyword[key] = value

				continue
			}

			if seq, ok := toSlice(value); ok {
				out.Positional = append(out.Positional, seq...)
			} else {
				out.Positional = append(out.Positional, value)
			}
		}

		return out, nil
	case reflect.Slice, reflect.Array:
		seq, _ := toSlice(raw)
		return Args{Positional: seq}, nil
	default:
		return Args{}, ErrInvalidArgument("args must be a mapping or a sequence").WithContext("args", raw)
	}
}

// toStringMap converts a map value with string-like keys into map[string]any.
func toStringMap(rv reflect.Value) (map[string]any, error) {
	if m, ok := rv.Interface().(map[string]any); ok {
		return m, nil
	}

	out := make(map[string]any, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		key, err := cast.ToStringE(iter.Key().Interface())
		if err != nil {
			return nil, err
		}

		out[key] = iter.Value().Interface()
	}

	return out, nil
}

// toSlice converts any slice or array (except byte slices) into []any.
func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, true
}
