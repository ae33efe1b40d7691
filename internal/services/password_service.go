// Package services contains the password generation and statistics logic
// behind the HTTP and CLI drivers.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/passgen/passgen/internal/generator"
	"github.com/passgen/passgen/internal/metrics"
	"github.com/passgen/passgen/internal/options"
)

// ErrInvalidCount is returned when a request asks for too few or too many passwords.
var ErrInvalidCount = errors.New("count out of range")

// GenerateRequest describes one generation call. Nil fields take the
// service defaults. A non-nil Charsets names exactly the charsets to start
// from in place of the default ones; the individual toggles still apply on top.
type GenerateRequest struct {
	Length   *int
	Charsets []string
	Upper    *bool
	Lower   *bool
	Digits  *bool
	Symbols *bool
	Count   *int
}

// GenerateResponse holds the generated passwords and the profile used.
type GenerateResponse struct {
	Passwords []string
	Profile   options.Profile
	Entropy   float64
}

// CharsetInfo describes one selectable character set.
type CharsetInfo struct {
	Name    string
	Chars   string
	Size    int
	Default bool
}

// UsageRecorder receives per-profile generation counts. Implemented by
// analytics.GenerationCounter.
type UsageRecorder interface {
	Record(profile string, n int)
}

// PasswordService defines the password generation operations.
type PasswordService interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
	Defaults() options.Profile
	MaxCount() int
	Charsets() []CharsetInfo
}

// PasswordServiceConfig holds the defaults applied to requests.
type PasswordServiceConfig struct {
	Defaults options.Profile
	MaxCount int
}

// PasswordServiceImpl implements PasswordService. Every call builds its own
// Generator, so the service is safe for concurrent use.
type PasswordServiceImpl struct {
	defaults     options.Profile
	maxCount     int
	usage        UsageRecorder
	newGenerator func() *generator.Generator
}

// NewPasswordService creates a PasswordService. usage may be nil.
func NewPasswordService(cfg PasswordServiceConfig, usage UsageRecorder) (*PasswordServiceImpl, error) {
	return NewPasswordServiceWithGenerator(cfg, usage, generator.New)
}

// NewPasswordServiceWithGenerator creates a PasswordService that obtains
// generators from newGenerator.
func NewPasswordServiceWithGenerator(cfg PasswordServiceConfig, usage UsageRecorder, newGenerator func() *generator.Generator) (*PasswordServiceImpl, error) {
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default profile: %w", err)
	}
	if cfg.MaxCount < 1 {
		return nil, fmt.Errorf("max count must be positive, got %d", cfg.MaxCount)
	}

	return &PasswordServiceImpl{
		defaults:     cfg.Defaults,
		maxCount:     cfg.MaxCount,
		usage:        usage,
		newGenerator: newGenerator,
	}, nil
}

// Generate produces the requested passwords. Validation failures are
// returned before any randomness is consumed.
func (s *PasswordServiceImpl) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	count := 1
	if req.Count != nil {
		count = *req.Count
	}
	if count < 1 || count > s.maxCount {
		return nil, fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidCount, s.maxCount, count)
	}

	profile, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	ctrl, err := options.NewControllerWithProfile(s.newGenerator(), profile)
	if err != nil {
		return nil, err
	}

	passwords := make([]string, 0, count)
	for range count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		passwords = append(passwords, ctrl.Generate())
	}

	names := make([]string, 0, len(generator.AllCharsets))
	for _, c := range profile.Charsets() {
		names = append(names, c.String())
	}
	metrics.RecordGenerated(profile.Length, count, names)

	if s.usage != nil {
		s.usage.Record(profile.Key(), count)
	}

	return &GenerateResponse{
		Passwords: passwords,
		Profile:   profile,
		Entropy:   ctrl.Generator().Entropy(),
	}, nil
}

// resolve overlays the request on the defaults.
func (s *PasswordServiceImpl) resolve(req GenerateRequest) (options.Profile, error) {
	p := s.defaults
	if req.Length != nil {
		p.Length = *req.Length
	}
	if req.Charsets != nil {
		for _, c := range generator.AllCharsets {
			p = p.With(c, false)
		}
		for _, name := range req.Charsets {
			c, err := generator.ParseCharset(name)
			if err != nil {
				return options.Profile{}, err
			}
			p = p.With(c, true)
		}
	}
	overlay := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	overlay(&p.Upper, req.Upper)
	overlay(&p.Lower, req.Lower)
	overlay(&p.Digits, req.Digits)
	overlay(&p.Symbols, req.Symbols)
	return p, nil
}

// Defaults returns the profile used for omitted request fields.
func (s *PasswordServiceImpl) Defaults() options.Profile {
	return s.defaults
}

// MaxCount returns the largest accepted count.
func (s *PasswordServiceImpl) MaxCount() int {
	return s.maxCount
}

// Charsets describes every charset in pool order.
func (s *PasswordServiceImpl) Charsets() []CharsetInfo {
	infos := make([]CharsetInfo, 0, len(generator.AllCharsets))
	for _, c := range generator.AllCharsets {
		infos = append(infos, CharsetInfo{
			Name:    c.String(),
			Chars:   c.Chars(),
			Size:    len(c.Chars()),
			Default: s.defaults.Enabled(c),
		})
	}
	return infos
}

var _ PasswordService = (*PasswordServiceImpl)(nil)
