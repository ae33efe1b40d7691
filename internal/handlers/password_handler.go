package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"

	"github.com/passgen/passgen/internal/options"
	"github.com/passgen/passgen/internal/services"
)

const maxRequestBody = 4 << 10

// GenerateRequest is the body of POST /api/v1/passwords. Omitted fields
// take the configured defaults.
//
// Charsets, when present, lists the charsets to use by name ("upper",
// "lower", "digits", "symbols") in place of the defaults. The boolean
// fields are applied after it.
type GenerateRequest struct {
	Length   *int     `json:"length,omitempty"`
	Charsets []string `json:"charsets,omitempty"`
	Upper    *bool    `json:"upper,omitempty"`
	Lower    *bool    `json:"lower,omitempty"`
	Digits   *bool    `json:"digits,omitempty"`
	Symbols  *bool    `json:"symbols,omitempty"`
	Count    *int     `json:"count,omitempty"`
}

// GenerateResponse is returned for a successful generation.
type GenerateResponse struct {
	Passwords   []string `json:"passwords"`
	Length      int      `json:"length"`
	Charsets    []string `json:"charsets"`
	EntropyBits float64  `json:"entropy_bits"`
}

// CharsetResponse describes one charset.
type CharsetResponse struct {
	Name    string `json:"name"`
	Chars   string `json:"chars"`
	Size    int    `json:"size"`
	Default bool   `json:"default"`
}

// CharsetsResponse is returned by GET /api/v1/charsets.
type CharsetsResponse struct {
	Charsets      []CharsetResponse `json:"charsets"`
	MinLength     int               `json:"min_length"`
	MaxLength     int               `json:"max_length"`
	DefaultLength int               `json:"default_length"`
	MaxCount      int               `json:"max_count"`
}

// PasswordHandler handles password generation endpoints.
type PasswordHandler struct {
	service services.PasswordService
}

// NewPasswordHandler creates a new PasswordHandler.
func NewPasswordHandler(svc services.PasswordService) *PasswordHandler {
	return &PasswordHandler{service: svc}
}

// Generate handles POST /api/v1/passwords. An empty body generates one
// password with the defaults.
func (h *PasswordHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid request body")
		return
	}
	if dec.More() {
		writeBadRequest(w, "request body must contain a single JSON object")
		return
	}

	resp, err := h.service.Generate(r.Context(), services.GenerateRequest{
		Length:   req.Length,
		Charsets: req.Charsets,
		Upper:    req.Upper,
		Lower:    req.Lower,
		Digits:   req.Digits,
		Symbols:  req.Symbols,
		Count:    req.Count,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	charsets := make([]string, 0, 4)
	for _, c := range resp.Profile.Charsets() {
		charsets = append(charsets, c.String())
	}

	writeJSON(w, http.StatusCreated, GenerateResponse{
		Passwords:   resp.Passwords,
		Length:      resp.Profile.Length,
		Charsets:    charsets,
		EntropyBits: math.Round(resp.Entropy*100) / 100,
	})
}

// Charsets handles GET /api/v1/charsets.
func (h *PasswordHandler) Charsets(w http.ResponseWriter, r *http.Request) {
	infos := h.service.Charsets()

	resp := CharsetsResponse{
		Charsets:      make([]CharsetResponse, 0, len(infos)),
		MinLength:     options.MinLength,
		MaxLength:     options.MaxLength,
		DefaultLength: h.service.Defaults().Length,
		MaxCount:      h.service.MaxCount(),
	}
	for _, info := range infos {
		resp.Charsets = append(resp.Charsets, CharsetResponse{
			Name:    info.Name,
			Chars:   info.Chars,
			Size:    info.Size,
			Default: info.Default,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}
