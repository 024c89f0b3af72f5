package blueprint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOverlayContainer(t *testing.T) (*Container, *fixture) {
	t.Helper()

	f := newFixture()

	c, err := New(Configuration{
		"db":    NewRecipe(f.counterType, Singleton()),
		"other": NewRecipe(f.counterType, Singleton()),
	}, WithRegistry(f.registry))
	require.NoError(t, err)

	return c, f
}

func TestWithOverlay_ShadowsAndRestores(t *testing.T) {
	c, f := newOverlayContainer(t)

	before, err := c.Resolve("db")
	require.NoError(t, err)

	other, err := c.Resolve("other")
	require.NoError(t, err)

	var inside, otherInside any

	err = c.WithOverlay(Configuration{
		"db":    NewRecipe(f.personType, Singleton(), WithArgs("Fake", "DB", 0)),
		"extra": NewRecipe(f.counterType),
	}, func(c *Container) error {
		assert.True(t, c.OverlayActive())

		var err error

		inside, err = c.Resolve("db")
		require.NoError(t, err)

		again, err := c.Resolve("db")
		require.NoError(t, err)
		assert.Same(t, inside, again)

		otherInside, err = c.Resolve("other")
		require.NoError(t, err)

		assert.True(t, c.Has("extra"))
		assert.Contains(t, c.Names(), "extra")

		return nil
	})
	require.NoError(t, err)

	assert.IsType(t, &person{}, inside)
	assert.Same(t, other, otherInside, "unshadowed names keep their cache")

	assert.False(t, c.OverlayActive())
	assert.False(t, c.Has("extra"))

	after, err := c.Resolve("db")
	require.NoError(t, err)
	assert.Same(t, before, after, "the base singleton survives the overlay")
}

func TestWithOverlay_RestoresOnError(t *testing.T) {
	c, f := newOverlayContainer(t)
	boom := errors.New("boom")

	err := c.WithOverlay(Configuration{"db": NewRecipe(f.personType)}, func(*Container) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, c.OverlayActive())

	typ, err := c.ResolveType("db")
	require.NoError(t, err)
	assert.Same(t, f.counterType, typ)
}

func TestWithOverlay_RestoresOnPanic(t *testing.T) {
	c, f := newOverlayContainer(t)

	assert.Panics(t, func() {
		_ = c.WithOverlay(Configuration{"db": NewRecipe(f.personType)}, func(*Container) error {
			panic("boom")
		})
	})

	assert.False(t, c.OverlayActive())
}

func TestWithOverlay_NestedRejected(t *testing.T) {
	c, f := newOverlayContainer(t)

	err := c.WithOverlay(Configuration{"db": NewRecipe(f.personType)}, func(c *Container) error {
		return c.WithOverlay(Configuration{"other": NewRecipe(f.personType)}, func(*Container) error {
			return nil
		})
	})
	assert.ErrorIs(t, err, ErrOverlayActive)
	assert.False(t, c.OverlayActive())
}

func TestWithOverlay_InvalidRecipe(t *testing.T) {
	c, _ := newOverlayContainer(t)

	called := false
	err := c.WithOverlay(Configuration{"db": map[string]any{}}, func(*Container) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, ErrMissingTypeSpecificationSentinel)
	assert.False(t, called)
	assert.False(t, c.OverlayActive())
}

func TestApplyOverlay_RestoreIsIdempotent(t *testing.T) {
	c, f := newOverlayContainer(t)

	restore, err := c.ApplyOverlay(Configuration{
		"db": NewRecipe(f.personType, Singleton(), WithArgs("Fake", "DB", 0)),
	})
	require.NoError(t, err)

	_, err = c.Resolve("db")
	require.NoError(t, err)
	assert.True(t, c.Cached("db"))

	restore()
	restore()

	assert.False(t, c.OverlayActive())
	assert.False(t, c.Cached("db"), "the overlay cache is discarded")
}

func TestWithOverlay_DependentSingletonIsDiscarded(t *testing.T) {
	f := newFixture()

	c, err := New(Configuration{
		"db":  NewRecipe(f.counterType, Singleton()),
		"svc": NewRecipe(f.greeterType, Singleton(), WithProperties(map[string]any{"target": "rel:db"})),
	}, WithRegistry(f.registry))
	require.NoError(t, err)

	var inside any

	err = c.WithOverlay(Configuration{
		"db": NewRecipe(f.personType, Singleton(), WithArgs("Fake", "DB", 0)),
	}, func(c *Container) error {
		var err error

		inside, err = c.Resolve("svc")
		require.NoError(t, err)
		assert.IsType(t, &person{}, inside.(*greeter).Target)
		assert.True(t, c.Cached("svc"))

		return nil
	})
	require.NoError(t, err)

	assert.False(t, c.Cached("svc"), "singletons built under the overlay are dropped")

	after, err := c.Resolve("svc")
	require.NoError(t, err)
	assert.NotSame(t, inside, after)
	assert.IsType(t, &counter{}, after.(*greeter).Target)
}

func TestWithOverlay_KeepsSingletonsBuiltBefore(t *testing.T) {
	f := newFixture()

	c, err := New(Configuration{
		"db":  NewRecipe(f.counterType, Singleton()),
		"svc": NewRecipe(f.greeterType, Singleton(), WithProperties(map[string]any{"target": "rel:db"})),
	}, WithRegistry(f.registry))
	require.NoError(t, err)

	before, err := c.Resolve("svc")
	require.NoError(t, err)

	err = c.WithOverlay(Configuration{
		"db": NewRecipe(f.personType, Singleton(), WithArgs("Fake", "DB", 0)),
	}, func(c *Container) error {
		inside, err := c.Resolve("svc")
		require.NoError(t, err)
		assert.Same(t, before, inside)

		return nil
	})
	require.NoError(t, err)

	after, err := c.Resolve("svc")
	require.NoError(t, err)
	assert.Same(t, before, after)
}
