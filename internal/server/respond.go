package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/piwi3910/MoldQuote/internal/engine"
	"github.com/piwi3910/MoldQuote/internal/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// errBadRequest marks malformed requests.
var errBadRequest = errors.New("bad request")

// errUnprocessable marks well-formed requests that cannot be served.
var errUnprocessable = errors.New("unprocessable")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, engine.ErrInvalidDimension),
		errors.Is(err, engine.ErrInvalidDiameter),
		errors.Is(err, engine.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, errUnprocessable),
		errors.Is(err, engine.ErrUndefinedTool),
		errors.Is(err, engine.ErrNoPressureData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as a JSON error body. Internal errors are logged and
// hidden from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.WithFields(map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		}).Error("Request failed")
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON body into v, rejecting unknown fields and
// trailing data.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", errBadRequest)
	}
	return nil
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}
