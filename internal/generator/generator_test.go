package generator

import (
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed(b byte) [32]byte {
	var seed [32]byte
	for i := range seed {
		seed[i] = b + byte(i)
	}
	return seed
}

func TestNew_Defaults(t *testing.T) {
	gen := New()

	assert.Equal(t, DefaultLength, gen.Length())
	assert.True(t, gen.Enabled(Upper))
	assert.True(t, gen.Enabled(Lower))
	assert.True(t, gen.Enabled(Digits))
	assert.False(t, gen.Enabled(Symbols))
	assert.True(t, gen.Dirty(), "a new generator has not built its pool yet")
}

func TestGenerator_Generate(t *testing.T) {
	t.Run("default configuration yields 8 alphanumerics", func(t *testing.T) {
		gen := New()
		pass := gen.Generate()
		assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{8}$`), pass)
		assert.False(t, gen.Dirty())
	})

	t.Run("digits only with length 12", func(t *testing.T) {
		gen := New()
		require.NoError(t, gen.SetEnabled(Upper, false))
		require.NoError(t, gen.SetEnabled(Lower, false))
		gen.SetLength(12)

		assert.Regexp(t, regexp.MustCompile(`^[0-9]{12}$`), gen.Generate())
	})

	t.Run("symbols only", func(t *testing.T) {
		gen := New()
		require.NoError(t, gen.SetEnabled(Symbols, true))
		require.NoError(t, gen.SetEnabled(Upper, false))
		require.NoError(t, gen.SetEnabled(Lower, false))
		require.NoError(t, gen.SetEnabled(Digits, false))
		gen.SetLength(64)

		pass := gen.Generate()
		assert.Len(t, pass, 64)
		for _, r := range pass {
			assert.Contains(t, symbolChars, string(r))
		}
	})

	t.Run("zero length yields empty string", func(t *testing.T) {
		gen := New()
		gen.SetLength(0)
		assert.Empty(t, gen.Generate())
		assert.Zero(t, gen.Entropy())
	})

	t.Run("largest representable length", func(t *testing.T) {
		gen := NewWithSeed(testSeed(1))
		gen.SetLength(math.MaxUint8)

		var pass string
		require.NotPanics(t, func() { pass = gen.Generate() })
		assert.Len(t, pass, math.MaxUint8)
		assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]+$`), pass)
	})
}

func TestGenerator_LengthAndMembership(t *testing.T) {
	configs := []struct {
		name     string
		charsets []Charset
	}{
		{"upper", []Charset{Upper}},
		{"lower", []Charset{Lower}},
		{"digits", []Charset{Digits}},
		{"symbols", []Charset{Symbols}},
		{"upper lower", []Charset{Upper, Lower}},
		{"digits symbols", []Charset{Digits, Symbols}},
		{"all", AllCharsets},
	}

	for _, tc := range configs {
		for _, length := range []uint8{8, 9, 16, 33, 64} {
			gen := New()
			configure(t, gen, tc.charsets)
			gen.SetLength(length)

			allowed := ""
			for _, c := range tc.charsets {
				allowed += c.Chars()
			}

			for i := 0; i < 20; i++ {
				pass := gen.Generate()
				require.Len(t, pass, int(length), "%s/%d", tc.name, length)
				for _, r := range pass {
					require.True(t, strings.ContainsRune(allowed, r),
						"%s: %q not in enabled charsets", tc.name, r)
				}
			}
		}
	}
}

func TestGenerator_NoStalePool(t *testing.T) {
	gen := New()
	gen.SetLength(64)
	_ = gen.Generate()
	require.False(t, gen.Dirty())

	require.NoError(t, gen.SetEnabled(Symbols, true))
	require.NoError(t, gen.SetEnabled(Upper, false))
	require.NoError(t, gen.SetEnabled(Lower, false))
	require.NoError(t, gen.SetEnabled(Digits, false))
	assert.True(t, gen.Dirty())

	pass := gen.Generate()
	assert.Regexp(t, regexp.MustCompile(`^[!@#$%&*+\-\[\](){}]{64}$`), pass)
	assert.False(t, gen.Dirty())
}

func TestGenerator_SetEnabled(t *testing.T) {
	t.Run("refuses to disable the last charset", func(t *testing.T) {
		gen := New()
		require.NoError(t, gen.SetEnabled(Symbols, true))
		require.NoError(t, gen.SetEnabled(Upper, false))
		require.NoError(t, gen.SetEnabled(Lower, false))
		require.NoError(t, gen.SetEnabled(Digits, false))
		_ = gen.Generate()
		require.False(t, gen.Dirty())

		err := gen.SetEnabled(Symbols, false)
		assert.ErrorIs(t, err, ErrNoCharsetEnabled)
		assert.True(t, gen.Enabled(Symbols))
		assert.False(t, gen.Enabled(Upper))
		assert.False(t, gen.Enabled(Lower))
		assert.False(t, gen.Enabled(Digits))
		assert.False(t, gen.Dirty(), "a refused change must not invalidate the pool")
	})

	t.Run("disabling an already disabled charset is allowed", func(t *testing.T) {
		gen := New()
		require.NoError(t, gen.SetEnabled(Upper, false))
		require.NoError(t, gen.SetEnabled(Lower, false))
		assert.NoError(t, gen.SetEnabled(Symbols, false))
		assert.Equal(t, []Charset{Digits}, gen.Charsets())
	})

	t.Run("unknown charset", func(t *testing.T) {
		gen := New()
		_ = gen.Generate()
		assert.ErrorIs(t, gen.SetEnabled(Charset(9), true), ErrUnknownCharset)
		assert.False(t, gen.Enabled(Charset(9)))
		assert.False(t, gen.Dirty())
	})

	t.Run("mutation marks dirty", func(t *testing.T) {
		gen := New()
		_ = gen.Generate()
		require.False(t, gen.Dirty())

		require.NoError(t, gen.SetEnabled(Symbols, true))
		assert.True(t, gen.Dirty())

		_ = gen.Generate()
		gen.SetLength(20)
		assert.True(t, gen.Dirty())
	})
}

func TestGenerator_Pool(t *testing.T) {
	gen := New()
	assert.Equal(t, upperChars+lowerChars+digitChars, gen.Pool())

	require.NoError(t, gen.SetEnabled(Symbols, true))
	assert.Equal(t, upperChars+lowerChars+digitChars+symbolChars, gen.Pool())
	assert.Len(t, gen.Pool(), maxPoolSize)

	require.NoError(t, gen.SetEnabled(Lower, false))
	assert.Equal(t, upperChars+digitChars+symbolChars, gen.Pool())
}

func TestGenerator_Entropy(t *testing.T) {
	gen := New()
	require.NoError(t, gen.SetEnabled(Upper, false))
	require.NoError(t, gen.SetEnabled(Lower, false))
	gen.SetLength(16)

	// 16 draws over 10 digits.
	assert.InDelta(t, 53.15, gen.Entropy(), 0.01)

	gen.SetLength(0)
	assert.Zero(t, gen.Entropy())
}

func TestGenerator_Distinct(t *testing.T) {
	gen := New()
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		seen[gen.Generate()] = struct{}{}
	}

	// 1000 draws from 62^8 possibilities: a repeat is astronomically unlikely.
	assert.GreaterOrEqual(t, len(seen), 999)
}

func TestGenerator_IndependentInstances(t *testing.T) {
	a, b := New(), New()
	a.SetLength(32)
	b.SetLength(32)
	assert.NotEqual(t, a.Generate(), b.Generate(), "each generator is seeded separately")
}

func TestNewWithSeed_Reproducible(t *testing.T) {
	a := NewWithSeed(testSeed(1))
	b := NewWithSeed(testSeed(1))
	c := NewWithSeed(testSeed(2))

	for i := 0; i < 10; i++ {
		pa, pb, pc := a.Generate(), b.Generate(), c.Generate()
		assert.Equal(t, pa, pb)
		assert.NotEqual(t, pa, pc)
	}
}

func TestGenerator_Uniform(t *testing.T) {
	gen := NewWithSeed(testSeed(7))
	require.NoError(t, gen.SetEnabled(Upper, false))
	require.NoError(t, gen.SetEnabled(Lower, false))
	gen.SetLength(64)

	counts := make(map[rune]int)
	const passwords = 2000
	for i := 0; i < passwords; i++ {
		for _, r := range gen.Generate() {
			counts[r]++
		}
	}

	require.Len(t, counts, 10)
	expected := float64(passwords*64) / 10
	for r, n := range counts {
		assert.InEpsilon(t, expected, float64(n), 0.05, "digit %q drawn %d times", r, n)
	}
}

func TestGenerator_RebuildRefusesEmptyPool(t *testing.T) {
	gen := New()
	gen.enabled = [numCharsets]bool{}
	gen.dirty = true

	assert.PanicsWithValue(t, ErrNoCharsetEnabled, func() {
		_ = gen.Generate()
	})
}

func configure(t *testing.T, gen *Generator, charsets []Charset) {
	t.Helper()
	want := make(map[Charset]bool)
	for _, c := range charsets {
		want[c] = true
		require.NoError(t, gen.SetEnabled(c, true))
	}
	for _, c := range AllCharsets {
		if !want[c] {
			require.NoError(t, gen.SetEnabled(c, false))
		}
	}
}

func BenchmarkGenerator_Generate(b *testing.B) {
	gen := NewWithSeed(testSeed(3))
	gen.SetLength(32)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.Generate()
	}
}

func BenchmarkGenerator_GenerateAfterToggle(b *testing.B) {
	gen := NewWithSeed(testSeed(4))
	gen.SetLength(32)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.SetEnabled(Symbols, i%2 == 0)
		_ = gen.Generate()
	}
}
