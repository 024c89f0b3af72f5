package blueprint

import (
	"sync"

	"go.uber.org/zap"
)

// ApplyOverlay installs overlay on top of the container's recipes until
// the returned restore function is called. Shadowed names resolve from
// the overlay and cache into a separate cache that restore discards, so
// the container behaves exactly as before once the overlay is gone.
// Only one overlay can be active at a time; restore is idempotent.
func (c *Container) ApplyOverlay(overlay Configuration) (restore func(), err error) {
	if c.store.overlayActive() {
		return nil, ErrOverlayActive
	}

	names := sortedNames(overlay)
	recipes := make(map[string]Recipe, len(names))

	for _, name := range names {
		r, err := Normalize(name, overlay[name])
		if err != nil {
			return nil, err
		}

		recipes[name] = r
	}

	if err := c.store.applyOverlay(names, recipes); err != nil {
		return nil, err
	}

	c.overlayCache = make(map[string]any)
	c.logger.Debug("overlay applied", zap.Strings("recipes", names))

	var once sync.Once

	return func() {
		once.Do(func() {
			c.store.resetOverlay()
			c.overlayCache = nil
			c.logger.Debug("overlay removed", zap.Strings("recipes", names))
		})
	}, nil
}

// WithOverlay runs fn with overlay applied. The overlay is removed exactly
// once when fn returns, fails or panics.
//
// Example:
//
//	err := c.WithOverlay(blueprint.Configuration{
//	    "mailer": blueprint.NewRecipe(fakeMailer),
//	}, func(c *blueprint.Container) error {
//	    return runJob(c)
//	})
func (c *Container) WithOverlay(overlay Configuration, fn func(*Container) error) error {
	restore, err := c.ApplyOverlay(overlay)
	if err != nil {
		return err
	}
	defer restore()

	return fn(c)
}

// OverlayActive reports whether an overlay is currently installed.
func (c *Container) OverlayActive() bool {
	return c.store.overlayActive()
}
