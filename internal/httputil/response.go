// Package httputil holds the response helpers shared by the HTTP handlers.
package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/banshee-data/myrmidon/internal/monitoring"
)

var logf = monitoring.Component("http")

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes data with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logf("failed to encode json response: %v", err)
	}
}

// WriteJSONOK writes data with 200 OK.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteError writes an ErrorResponse with the given status code.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, msg string) { WriteError(w, http.StatusBadRequest, msg) }

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, msg string) { WriteError(w, http.StatusNotFound, msg) }

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// InternalServerError writes a 500 response.
func InternalServerError(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusInternalServerError, msg)
}

// WriteStoreError maps err to 404 when it wraps notFound and to 500
// otherwise.
func WriteStoreError(w http.ResponseWriter, err, notFound error) {
	if errors.Is(err, notFound) {
		NotFound(w, err.Error())
		return
	}
	logf("request failed: %v", err)
	InternalServerError(w, err.Error())
}

// WriteHTML renders a page into memory first so that a render error can
// still produce a clean 500.
func WriteHTML(w http.ResponseWriter, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		InternalServerError(w, "render error: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
