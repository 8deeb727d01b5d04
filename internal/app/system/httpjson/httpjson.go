// internal/app/system/httpjson/httpjson.go

// Package httpjson holds the JSON response envelope shared by all feature
// handlers: {"success":true,"data":...} on success and
// {"success":false,"error":{"kind","message"}} on failure.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/coursebridge/coursebridge/internal/app/system/apperr"
	"go.uber.org/zap"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Count   *int       `json:"count,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

// OK writes a 200 response with the given payload.
func OK(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, envelope{Success: true, Data: data})
}

// OKMessage writes a 200 response with a payload and a human-readable note.
func OKMessage(w http.ResponseWriter, msg string, data any) {
	write(w, http.StatusOK, envelope{Success: true, Message: msg, Data: data})
}

// Created writes a 201 response with the given payload.
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, envelope{Success: true, Data: data})
}

// List writes a 200 response with a payload and its element count.
func List(w http.ResponseWriter, n int, data any) {
	write(w, http.StatusOK, envelope{Success: true, Count: &n, Data: data})
}

// Fail maps err through the apperr taxonomy and writes the error envelope.
// Non-taxonomy errors become an opaque 500; log is consulted so internals
// are recorded but never leaked to the caller.
func Fail(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apperr.Status(err)
	if e, ok := apperr.As(err); ok {
		write(w, status, envelope{Success: false, Error: &errorBody{Kind: e.Kind, Message: e.Message}})
		return
	}
	if log != nil {
		log.Error("internal error", zap.Error(err))
	}
	write(w, status, envelope{Success: false, Error: &errorBody{Kind: "internal", Message: "internal server error"}})
}

// Decode parses a JSON request body into dst, returning a Validation error
// on malformed input.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	return nil
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
