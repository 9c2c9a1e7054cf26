package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"

	"descstats/internal/descriptive"
	"descstats/internal/errors"
)

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// classify attaches an AppError code to engine and decoding failures.
func classify(err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, descriptive.ErrUnsupportedType),
		errors.Is(err, descriptive.ErrEmptyDataset),
		errors.Is(err, descriptive.ErrDivisionByZero),
		errors.Is(err, descriptive.ErrMalformedInterval),
		errors.Is(err, descriptive.ErrMalformedSample),
		errors.Is(err, descriptive.ErrNonContiguousIntervals),
		errors.Is(err, descriptive.ErrNonFiniteResult):
		return errors.WithCode(errors.CodeValidationError, err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	return errors.Wrap(err, "internal error")
}

func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeValidationError:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	err = classify(err)
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	s.writeJSON(w, status, errorBody{Code: code, Error: err.Error()})
}

// writeJSON encodes v before committing the status, so an encoding failure
// still becomes a 500 with a body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.log.Error("encode response", zap.Error(err))
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorBody{Code: errors.CodeInternalError, Error: "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
