package generator

import (
	"fmt"
	"strings"
)

// Charset identifies one of the selectable character categories.
type Charset int

const (
	Upper Charset = iota
	Lower
	Digits
	Symbols
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%&*+-[](){}"
)

// maxPoolSize is the pool size with every charset enabled (26 + 26 + 10 + 15).
const maxPoolSize = len(upperChars) + len(lowerChars) + len(digitChars) + len(symbolChars)

// AllCharsets lists every charset in pool order.
var AllCharsets = []Charset{Upper, Lower, Digits, Symbols}

// String returns the lowercase name of the charset.
func (c Charset) String() string {
	switch c {
	case Upper:
		return "upper"
	case Lower:
		return "lower"
	case Digits:
		return "digits"
	case Symbols:
		return "symbols"
	default:
		return fmt.Sprintf("charset(%d)", int(c))
	}
}

// Chars returns the characters of the charset in their fixed order.
func (c Charset) Chars() string {
	switch c {
	case Upper:
		return upperChars
	case Lower:
		return lowerChars
	case Digits:
		return digitChars
	case Symbols:
		return symbolChars
	default:
		return ""
	}
}

// Valid reports whether c names a known charset.
func (c Charset) Valid() bool {
	return c >= Upper && c <= Symbols
}

// ParseCharset parses a charset name. Common aliases are accepted.
func ParseCharset(s string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upper", "uppercase":
		return Upper, nil
	case "lower", "lowercase":
		return Lower, nil
	case "digits", "digit", "numbers", "num":
		return Digits, nil
	case "symbols", "symbol", "sym":
		return Symbols, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCharset, s)
	}
}
