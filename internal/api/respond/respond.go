// Package respond writes the JSON envelopes of the HTTP API:
// {"status":"success","data":...} and {"status":"error","message":...}.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/wb-go/wbf/zlog"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK writes data with status 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, envelope{Status: statusSuccess, Data: data})
}

// Created writes data with status 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, envelope{Status: statusSuccess, Data: data})
}

// Fail writes err as an error envelope with the given status code.
func Fail(w http.ResponseWriter, code int, err error) {
	Error(w, code, err.Error())
}

// Error writes message as an error envelope with the given status code.
func Error(w http.ResponseWriter, code int, message string) {
	JSON(w, code, envelope{Status: statusError, Message: message})
}

// JSON writes v as the response body with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to write response")
	}
}
