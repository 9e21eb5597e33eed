package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
)

// maxJSONBody bounds the JSON request bodies of delete and rename.
const maxJSONBody = 1 << 20

type BaseHandler struct {
	templates *template.Template
}

type errorResponse struct {
	Error string `json:"error"`
}

func (b *BaseHandler) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	// Execute the template
	if err := b.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (b *BaseHandler) render404(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	b.renderTemplate(w, "404.html", nil)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}

func requestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}
