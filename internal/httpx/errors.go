package httpx

import (
	"net/http"

	"github.com/sundayezeilo/engagebot/internal/errx"
)

type kindMapping struct {
	status int
	code   string
}

var kindMappings = map[errx.Kind]kindMapping{
	errx.NotFound:      {http.StatusNotFound, "not_found"},
	errx.Conflict:      {http.StatusConflict, "conflict"},
	errx.Invalid:       {http.StatusBadRequest, "invalid_input"},
	errx.Unauthorized:  {http.StatusUnauthorized, "unauthorized"},
	errx.Forbidden:     {http.StatusForbidden, "forbidden"},
	errx.LimitExceeded: {http.StatusTooManyRequests, "limit_exceeded"},
	errx.Unavailable:   {http.StatusServiceUnavailable, "unavailable"},
}

// ErrorKindToStatus maps errx.Kind to HTTP status codes. Unmapped kinds are 500.
func ErrorKindToStatus(kind errx.Kind) int {
	if m, ok := kindMappings[kind]; ok {
		return m.status
	}
	return http.StatusInternalServerError
}

// ErrorKindToCode maps errx.Kind to error codes for JSON responses.
func ErrorKindToCode(kind errx.Kind) string {
	if m, ok := kindMappings[kind]; ok {
		return m.code
	}
	return "internal_error"
}
