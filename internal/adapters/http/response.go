package http

import (
	"encoding/json"
	"net/http"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type successEnvelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type messageEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Status string   `json:"status"`
	Error  apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successEnvelope{Status: "success", Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageEnvelope{Status: "success", Message: message})
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorEnvelope{Status: "error", Error: apiError{Code: code, Message: message}})
}
