package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeData sends a success envelope with the given status and payload.
func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"success": true,
		"data":    data,
	})
}

// writeError sends an error envelope. details is optional and carries the
// field→messages map for validation failures.
func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	body := map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// readJSON decodes the request body into the given destination.
func readJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
