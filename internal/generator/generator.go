// Package generator produces random passwords from a configurable character pool.
package generator

import (
	crand "crypto/rand"
	"math"
	"math/rand/v2"
)

const (
	// DefaultLength is the password length of a new Generator.
	DefaultLength uint8 = 8

	numCharsets = 4
)

// Generator draws passwords uniformly from the union of its enabled charsets.
//
// The character pool is derived from the configuration and cached. Any mutation
// marks it dirty, and the next call that reads the pool rebuilds it first.
//
// A Generator is not safe for concurrent use. Callers that share one between
// goroutines must serialize access; the usual pattern is one Generator per worker.
type Generator struct {
	length  uint8
	enabled [numCharsets]bool
	dirty   bool

	pool  []byte
	bound int // sampling range is [0, bound); equals len(pool) whenever !dirty

	rng *rand.Rand
}

// New creates a Generator with the default configuration: length 8 with
// uppercase, lowercase and digits enabled. The random source is a ChaCha8
// stream seeded once from the operating system's entropy source.
func New() *Generator {
	var seed [32]byte
	// crypto/rand.Read never returns an error; entropy failure aborts the process.
	_, _ = crand.Read(seed[:])
	return NewWithSeed(seed)
}

// NewWithSeed creates a Generator with the default configuration and a fixed
// seed. Two generators built from the same seed and configuration produce the
// same passwords, so this is only meant for tests and benchmarks.
func NewWithSeed(seed [32]byte) *Generator {
	return &Generator{
		length: DefaultLength,
		enabled: [numCharsets]bool{
			Upper:  true,
			Lower:  true,
			Digits: true,
		},
		dirty: true,
		pool:  make([]byte, 0, maxPoolSize),
		rng:   rand.New(rand.NewChaCha8(seed)),
	}
}

// Length returns the configured password length.
func (g *Generator) Length() uint8 {
	return g.length
}

// SetLength sets the password length. Range checks are the caller's job; every
// uint8 is accepted and a length of zero makes Generate return an empty string.
func (g *Generator) SetLength(n uint8) {
	g.length = n
	g.dirty = true
}

// Enabled reports whether charset c is part of the pool.
func (g *Generator) Enabled(c Charset) bool {
	if !c.Valid() {
		return false
	}
	return g.enabled[c]
}

// SetEnabled enables or disables charset c. Disabling the last enabled charset
// is refused with ErrNoCharsetEnabled and leaves the Generator untouched.
func (g *Generator) SetEnabled(c Charset, on bool) error {
	if !c.Valid() {
		return ErrUnknownCharset
	}
	if !on && g.enabled[c] && g.enabledCount() == 1 {
		return ErrNoCharsetEnabled
	}
	g.enabled[c] = on
	g.dirty = true
	return nil
}

// Charsets returns the enabled charsets in pool order.
func (g *Generator) Charsets() []Charset {
	out := make([]Charset, 0, numCharsets)
	for _, c := range AllCharsets {
		if g.enabled[c] {
			out = append(out, c)
		}
	}
	return out
}

// Dirty reports whether the pool must be rebuilt before the next generation.
func (g *Generator) Dirty() bool {
	return g.dirty
}

// Pool returns the current character pool, rebuilding it if stale.
func (g *Generator) Pool() string {
	g.ensureFresh()
	return string(g.pool)
}

// Entropy returns the entropy in bits of one password under the current
// configuration.
func (g *Generator) Entropy() float64 {
	g.ensureFresh()
	if g.length == 0 {
		return 0
	}
	return float64(g.length) * math.Log2(float64(g.bound))
}

// Generate returns a new password of Length characters. Each character is an
// independent uniform draw from the pool, so repeats are expected.
func (g *Generator) Generate() string {
	g.ensureFresh()
	if g.length == 0 {
		return ""
	}

	buf := make([]byte, g.length)
	for i := range buf {
		buf[i] = g.pool[g.rng.IntN(g.bound)]
	}
	return string(buf)
}

func (g *Generator) ensureFresh() {
	if g.dirty {
		g.rebuild()
	}
}

// rebuild recomputes the pool and sampling range from the configuration.
func (g *Generator) rebuild() {
	g.pool = g.pool[:0]
	for _, c := range AllCharsets {
		if g.enabled[c] {
			g.pool = append(g.pool, c.Chars()...)
		}
	}

	// SetEnabled never lets this happen. Refuse to sample from nothing.
	if len(g.pool) == 0 {
		panic(ErrNoCharsetEnabled)
	}

	g.bound = len(g.pool)
	g.dirty = false
}

func (g *Generator) enabledCount() int {
	n := 0
	for _, on := range g.enabled {
		if on {
			n++
		}
	}
	return n
}
