package server

import (
	"encoding/json"
	"net/http"
)

const (
	uploadMethods = "POST,OPTIONS"
	queryMethods  = "GET,OPTIONS"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error        string `json:"error"`
	Code         string `json:"code,omitempty"`
	Message      string `json:"message"`
	ReceivedType string `json:"receivedType,omitempty"`
}

func setCORS(w http.ResponseWriter, methods string) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Access-Control-Allow-Methods", methods)
}

func preflight(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		setCORS(w, methods)
		w.WriteHeader(http.StatusOK)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
