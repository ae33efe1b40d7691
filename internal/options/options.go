// Package options enforces the driver-side rules for configuring a generator:
// length bounds and keeping at least one charset enabled. Every change is
// validated before it touches the generator, so a rejected change leaves the
// generator exactly as it was.
package options

import (
	"errors"
	"fmt"
	"strings"

	"github.com/passgen/passgen/internal/generator"
)

// Length bounds accepted by drivers.
const (
	MinLength = 8
	MaxLength = 64
)

// ErrLengthOutOfRange is returned when a length falls outside [MinLength, MaxLength].
var ErrLengthOutOfRange = fmt.Errorf("password length must be between %d and %d", MinLength, MaxLength)

// Profile is a complete generator configuration.
type Profile struct {
	Length  int  `json:"length"`
	Upper   bool `json:"upper"`
	Lower   bool `json:"lower"`
	Digits  bool `json:"digits"`
	Symbols bool `json:"symbols"`
}

// DefaultProfile returns the configuration of a freshly constructed generator.
func DefaultProfile() Profile {
	return Profile{
		Length: int(generator.DefaultLength),
		Upper:  true,
		Lower:  true,
		Digits: true,
	}
}

// Validate checks the length bounds and that at least one charset is enabled.
func (p Profile) Validate() error {
	if err := ValidateLength(p.Length); err != nil {
		return err
	}
	if !p.Upper && !p.Lower && !p.Digits && !p.Symbols {
		return generator.ErrNoCharsetEnabled
	}
	return nil
}

// Enabled reports whether charset c is on in the profile.
func (p Profile) Enabled(c generator.Charset) bool {
	switch c {
	case generator.Upper:
		return p.Upper
	case generator.Lower:
		return p.Lower
	case generator.Digits:
		return p.Digits
	case generator.Symbols:
		return p.Symbols
	default:
		return false
	}
}

// With returns a copy of p with charset c set to on.
func (p Profile) With(c generator.Charset, on bool) Profile {
	switch c {
	case generator.Upper:
		p.Upper = on
	case generator.Lower:
		p.Lower = on
	case generator.Digits:
		p.Digits = on
	case generator.Symbols:
		p.Symbols = on
	}
	return p
}

// Charsets returns the enabled charsets in pool order.
func (p Profile) Charsets() []generator.Charset {
	out := make([]generator.Charset, 0, len(generator.AllCharsets))
	for _, c := range generator.AllCharsets {
		if p.Enabled(c) {
			out = append(out, c)
		}
	}
	return out
}

// Key returns a stable label for the profile, e.g. "len=16;ULD-".
// It identifies a configuration in usage statistics.
func (p Profile) Key() string {
	flags := [...]struct {
		on   bool
		mark byte
	}{
		{p.Upper, 'U'},
		{p.Lower, 'L'},
		{p.Digits, 'D'},
		{p.Symbols, 'S'},
	}

	var sb strings.Builder
	sb.Grow(12)
	fmt.Fprintf(&sb, "len=%d;", p.Length)
	for _, f := range flags {
		if f.on {
			sb.WriteByte(f.mark)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// ValidateLength checks n against the driver bounds.
func ValidateLength(n int) error {
	if n < MinLength || n > MaxLength {
		return fmt.Errorf("%w: got %d", ErrLengthOutOfRange, n)
	}
	return nil
}

// IsValidationError reports whether err is one of the configuration rejections.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrLengthOutOfRange) ||
		errors.Is(err, generator.ErrNoCharsetEnabled) ||
		errors.Is(err, generator.ErrUnknownCharset)
}
