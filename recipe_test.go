package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Defaults(t *testing.T) {
	r, err := Normalize("svc", map[string]any{"type": "app.Service"})
	require.NoError(t, err)

	assert.Equal(t, "svc", r.Name)
	assert.Equal(t, "app.Service", r.Type)
	assert.True(t, r.Args.IsEmpty())
	assert.False(t, r.Singleton)
	assert.True(t, r.Lazy())
	assert.Empty(t, r.Properties)
	assert.Nil(t, r.AssertType)
	assert.Empty(t, r.FactoryMethod)
	assert.Empty(t, r.Alias)
	assert.Empty(t, r.Mixins)
}

func TestNormalize_AllKeys(t *testing.T) {
	r, err := Normalize("svc", map[string]any{
		"type":           "app.Service",
		"args":           []any{1, "two"},
		"properties":     map[string]any{"debug": true},
		"singleton":      true,
		"lazy":           false,
		"assert_type":    "app.Base",
		"factory_method": "create",
		"alias":          []string{"service", "svc2"},
		"mixins":         []any{"app.Loggable"},
		"unknown":        "ignored",
	})
	require.NoError(t, err)

	assert.Equal(t, []any{1, "two"}, r.Args.Positional)
	assert.Equal(t, true, r.Properties["debug"])
	assert.True(t, r.Singleton)
	assert.False(t, r.Lazy())
	assert.Equal(t, "app.Base", r.AssertType)
	assert.Equal(t, "create", r.FactoryMethod)
	assert.Equal(t, []string{"service", "svc2"}, r.Alias)
	assert.Equal(t, []string{"app.Loggable"}, r.Mixins)
}

func TestNormalize_WeaklyTypedFlags(t *testing.T) {
	r, err := Normalize("svc", map[string]any{
		"type":      "app.Service",
		"singleton": "true",
		"lazy":      "false",
		"alias":     "only",
	})
	require.NoError(t, err)

	assert.True(t, r.Singleton)
	assert.False(t, r.Lazy())
	assert.Equal(t, []string{"only"}, r.Alias)
}

func TestNormalize_MissingType(t *testing.T) {
	_, err := Normalize("svc", map[string]any{"singleton": true})
	assert.ErrorIs(t, err, ErrMissingTypeSpecificationSentinel)

	_, err = Normalize("svc", nil)
	assert.ErrorIs(t, err, ErrMissingTypeSpecificationSentinel)

	_, err = Normalize("svc", Recipe{})
	assert.ErrorIs(t, err, ErrMissingTypeSpecificationSentinel)
}

func TestNormalize_InvalidValues(t *testing.T) {
	var coded *Error

	_, err := Normalize("svc", 42)
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, CodeInvalidRecipe, coded.Code)

	_, err = Normalize("svc", map[string]any{"type": "x", "args": 3})
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, CodeInvalidRecipe, coded.Code)

	_, err = Normalize("svc", map[string]any{"type": "x", "alias": []string{""}})
	require.ErrorAs(t, err, &coded)
	assert.Equal(t, CodeInvalidRecipe, coded.Code)
}

func TestNormalize_CopiesRecipe(t *testing.T) {
	props := map[string]any{"a": 1}
	in := NewRecipe("app.Service", WithProperties(props), WithAlias("x"))

	r, err := Normalize("svc", &in)
	require.NoError(t, err)

	r.Properties["a"] = 2
	r.Alias[0] = "y"

	assert.Equal(t, 1, in.Properties["a"])
	assert.Equal(t, "x", in.Alias[0])
}

func TestNewRecipe_Options(t *testing.T) {
	r := NewRecipe("app.Service",
		Singleton(),
		Eager(),
		WithArgs(1, 2),
		WithKeywordArgs(map[string]any{"k": "v"}),
		WithProperty("p", "rel:other"),
		WithAssertType("app.Base"),
		WithFactoryMethod("create"),
		WithAlias("a1", "a2"),
		WithMixins("m1"),
	)

	assert.True(t, r.Singleton)
	assert.False(t, r.Lazy())
	assert.Equal(t, []any{1, 2}, r.Args.Positional)
	assert.Equal(t, "v", r.Args.Keyword["k"])
	assert.Equal(t, []string{"p"}, r.PropertyNames())
	assert.True(t, r.HasAlias("a2"))
	assert.False(t, r.HasAlias("a3"))
	assert.Equal(t, []string{"m1"}, r.Mixins)
}

func TestNormalize_ZeroRecipeIsLazy(t *testing.T) {
	r, err := Normalize("c", Recipe{Type: "test.Counter"})
	require.NoError(t, err)
	assert.True(t, r.Lazy())
	assert.False(t, NewRecipe("test.Counter", Eager()).Lazy())

	f := newFixture()

	c, err := New(Configuration{
		"c":     Recipe{Type: "test.Counter"},
		"eager": &Recipe{Type: "test.Counter", Eager: true},
	}, WithRegistry(f.registry))
	require.NoError(t, err)

	assert.Equal(t, 1, *f.built, "only the eager recipe is built by New")

	_, err = c.Resolve("c")
	require.NoError(t, err)
	assert.Equal(t, 2, *f.built)
}
