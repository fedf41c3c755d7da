package api

import (
	"errors"
	"net/http"
)

// ErrBadRequest marks malformed requests rejected before reaching the service.
var ErrBadRequest = errors.New("bad request")

func statusForKind(kind string) int {
	switch kind {
	case "not_found", "unknown_input":
		return http.StatusNotFound
	case "invalid_spec":
		return http.StatusBadRequest
	case "no_inputs", "not_described":
		return http.StatusConflict
	case "unreadable", "multi_input_selection":
		return http.StatusUnprocessableEntity
	case "capacity", "not_started":
		return http.StatusServiceUnavailable
	case "manifest", "probe_failed", "produce_failed":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
