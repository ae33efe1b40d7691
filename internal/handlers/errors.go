package handlers

import (
	"errors"
	"net/http"

	"github.com/passgen/passgen/internal/generator"
	"github.com/passgen/passgen/internal/metrics"
	"github.com/passgen/passgen/internal/options"
	"github.com/passgen/passgen/internal/services"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeLengthOutOfRange = "LENGTH_OUT_OF_RANGE"
	CodeNoCharsetEnabled = "NO_CHARSET_ENABLED"
	CodeUnknownCharset   = "UNKNOWN_CHARSET"
	CodeInvalidCount     = "INVALID_COUNT"
	CodeInternalError    = "INTERNAL_ERROR"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// mapErrorToResponse maps service errors to HTTP status codes and error responses.
func mapErrorToResponse(err error) (int, ErrorResponse) {
	switch {
	case options.IsValidationError(err):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: validationCode(err)}
	case errors.Is(err, services.ErrInvalidCount):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidCount}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: CodeInternalError}
	}
}

// validationCode picks the code for a profile rejection.
func validationCode(err error) string {
	switch {
	case errors.Is(err, options.ErrLengthOutOfRange):
		return CodeLengthOutOfRange
	case errors.Is(err, generator.ErrNoCharsetEnabled):
		return CodeNoCharsetEnabled
	default:
		return CodeUnknownCharset
	}
}

// writeError writes err and counts client-side rejections.
func writeError(w http.ResponseWriter, err error) {
	status, resp := mapErrorToResponse(err)
	if status == http.StatusBadRequest {
		metrics.RecordRejected(resp.Code)
	}
	writeJSON(w, status, resp)
}

// writeBadRequest reports a malformed request body.
func writeBadRequest(w http.ResponseWriter, msg string) {
	metrics.RecordRejected(CodeInvalidRequest)
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeInvalidRequest})
}
