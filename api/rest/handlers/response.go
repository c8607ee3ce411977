package handlers

import (
	"encoding/json"
	"net/http"
)

// Allowed-methods header values per resource, matching the API gateway
// configuration the endpoints sit behind.
const (
	jobMethods      = "GET,POST,OPTIONS"
	endpointMethods = "GET,POST,DELETE,OPTIONS"
)

const allowedHeaders = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token"

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, methods string, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, methods, msg string) {
	writeJSON(w, status, methods, errorResponse{Error: msg})
}
