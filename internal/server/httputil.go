package server

import (
	"encoding/json"
	"net/http"

	"qadmin/internal/log"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("writeJSON encode error: %v", err)
	}
}

// writeStatus writes the object error shape: {"statusText": "...", "error": "..."}.
func writeStatus(w http.ResponseWriter, status int, detail string) {
	body := map[string]string{"statusText": http.StatusText(status)}
	if detail != "" {
		body["error"] = detail
	}
	writeJSON(w, status, body)
}

type message struct {
	Message string `json:"message"`
}

// writeMessages writes the list error shape: [{"message": "..."}, ...].
func writeMessages(w http.ResponseWriter, status int, msgs ...string) {
	out := make([]message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, message{Message: m})
	}
	writeJSON(w, status, out)
}

// decodeJSON decodes the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<20))
	return dec.Decode(v)
}
