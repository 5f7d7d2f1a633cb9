package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
	"github.com/derekprior/kickoff/internal/store"
)

type jsonResponse map[string]interface{}

var (
	// errBadRequest marks input errors raised by the handlers themselves.
	errBadRequest = errors.New("bad request")
	errEmptyBody  = errors.New("body must not be empty")
)

const maxBodyBytes = 1_048_576

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("%w: body contains badly-formed JSON (at character %d)", errBadRequest, syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return fmt.Errorf("%w: body contains badly-formed JSON", errBadRequest)
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("%w: body contains incorrect JSON type for field %q", errBadRequest, unmarshalTypeError.Field)
			}
			return fmt.Errorf("%w: body contains incorrect JSON type (at character %d)", errBadRequest, unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: %w", errBadRequest, errEmptyBody)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("%w: body contains unknown key %s", errBadRequest, strings.TrimPrefix(err.Error(), "json: unknown field "))
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("%w: body must not be larger than %d bytes", errBadRequest, maxBodyBytes)
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: body must only contain a single JSON value", errBadRequest)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		s.logger.Error("encoding response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(js); err != nil {
		s.logger.Warn("writing response", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, jsonResponse{"error": message})
}

// writeError maps domain errors onto HTTP statuses. Unexpected errors are
// logged and reported as a generic failure the client may retry.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.errorResponse(w, status, "the server could not process the request, please try again")
		return
	}
	s.errorResponse(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrInvalidID),
		errors.Is(err, schedule.ErrInvalidRoster),
		errors.Is(err, schedule.ErrInvalidFixture),
		errors.Is(err, standings.ErrInvalidResult),
		errors.Is(err, knockout.ErrDrawNotAllowed),
		errors.Is(err, knockout.ErrInvalidScore),
		errors.Is(err, knockout.ErrMatchNotReady),
		errors.Is(err, knockout.ErrGroupStageIncomplete):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, knockout.ErrUnknownMatch):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
