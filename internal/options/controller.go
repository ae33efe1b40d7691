package options

import (
	"github.com/passgen/passgen/internal/generator"
)

// Controller applies validated configuration changes to a Generator.
// Like the Generator it wraps, it is not safe for concurrent use.
type Controller struct {
	gen *generator.Generator
}

// NewController wraps gen.
func NewController(gen *generator.Generator) *Controller {
	return &Controller{gen: gen}
}

// NewControllerWithProfile wraps gen after applying p to it. On error gen is
// left unchanged.
func NewControllerWithProfile(gen *generator.Generator, p Profile) (*Controller, error) {
	c := NewController(gen)
	if err := c.Apply(p); err != nil {
		return nil, err
	}
	return c, nil
}

// Generator returns the wrapped generator.
func (c *Controller) Generator() *generator.Generator {
	return c.gen
}

// Snapshot returns the generator's current configuration.
func (c *Controller) Snapshot() Profile {
	p := Profile{Length: int(c.gen.Length())}
	for _, cs := range generator.AllCharsets {
		p = p.With(cs, c.gen.Enabled(cs))
	}
	return p
}

// SetLength sets the password length after checking the bounds. The bounds
// fit in a uint8, so the conversion below never truncates.
func (c *Controller) SetLength(n int) error {
	if err := ValidateLength(n); err != nil {
		return err
	}
	c.gen.SetLength(uint8(n))
	return nil
}

// Toggle flips charset cs.
func (c *Controller) Toggle(cs generator.Charset) error {
	return c.Set(cs, !c.gen.Enabled(cs))
}

// Set enables or disables charset cs. Disabling the last enabled charset is
// rejected and nothing changes.
func (c *Controller) Set(cs generator.Charset, on bool) error {
	if !cs.Valid() {
		return generator.ErrUnknownCharset
	}
	next := c.Snapshot().With(cs, on)
	if !next.Upper && !next.Lower && !next.Digits && !next.Symbols {
		return generator.ErrNoCharsetEnabled
	}
	return c.gen.SetEnabled(cs, on)
}

// Apply validates p as a whole and then applies it. On error the generator is
// left unchanged.
func (c *Controller) Apply(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.gen.SetLength(uint8(p.Length))
	// Enable first so no intermediate state has every charset off.
	for _, cs := range p.Charsets() {
		if err := c.gen.SetEnabled(cs, true); err != nil {
			return err
		}
	}
	for _, cs := range generator.AllCharsets {
		if !p.Enabled(cs) {
			if err := c.gen.SetEnabled(cs, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// Generate returns a password from the wrapped generator.
func (c *Controller) Generate() string {
	return c.gen.Generate()
}
