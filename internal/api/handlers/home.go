package handlers

import (
	"github.com/dustin/go-humanize"
	"html/template"
	"net/http"
)

type HomeHandler struct {
	BaseHandler
	clientMaxBytes int64
}

type HomeData struct {
	ClientMaxBytes int64
	ClientMaxLabel string
}

func NewHomeHandler(templates *template.Template, clientMaxBytes int64) *HomeHandler {
	home := &HomeHandler{
		BaseHandler: BaseHandler{
			templates: templates,
		},
		clientMaxBytes: clientMaxBytes,
	}
	return home
}

func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.URL.Path != "/" {
		h.render404(w)
		return
	}
	data := HomeData{
		ClientMaxBytes: h.clientMaxBytes,
		ClientMaxLabel: humanize.IBytes(uint64(h.clientMaxBytes)),
	}
	// Render the file manager page
	h.renderTemplate(w, "index.html", data)
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
