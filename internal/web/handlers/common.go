// Package handlers implements the JSON endpoints of the API.
package handlers

import (
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	errInvalidRequestBody = "invalid request body"
	maxBodyBytes          = 1 << 20
)

var logLineBreaks = strings.NewReplacer("\n", "", "\r", "")

// sanitizeForLog strips line breaks from caller-supplied values before logging.
func sanitizeForLog(s string) string {
	return logLineBreaks.Replace(s)
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes data as the response body. A nil data writes only the status.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(status)
		return
	}
	body, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"encoding response"}`))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// decodeBody reads at most maxBodyBytes of JSON into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
