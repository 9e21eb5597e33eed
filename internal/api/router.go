package api

import (
	h "github.com/joandiazestigarribia/upload-project/internal/api/handlers"
	"github.com/joandiazestigarribia/upload-project/internal/blobs"
	"github.com/joandiazestigarribia/upload-project/internal/files"
	"github.com/joandiazestigarribia/upload-project/internal/web"
	"golang.org/x/time/rate"
	"html/template"
	"net/http"
)

type Config struct {
	UseSecurityHeaders   bool
	UseHsts              bool
	RateLimit            rate.Limit
	RateBurst            int
	MaxUploadBytes       int64
	ClientMaxUploadBytes int64
}

type handlers struct {
	blobs *h.BlobHandler
	files *h.FileHandler
	home  *h.HomeHandler
}

type Router struct {
	config   *Config
	handlers *handlers
	limiter  *rate.Limiter
}

// NewRouter wires the handlers. opener may be nil when the store's URLs are
// not served by this application.
func NewRouter(
	templates *template.Template,
	fileService *files.FileService,
	opener blobs.Opener,
	config *Config,
) *Router {
	router := &Router{
		config: config,
		handlers: &handlers{
			blobs: h.NewBlobHandler(opener),
			files: h.NewFileHandler(fileService, config.MaxUploadBytes),
			home:  h.NewHomeHandler(templates, config.ClientMaxUploadBytes),
		},
	}
	if config.RateLimit > 0 {
		router.limiter = rate.NewLimiter(config.RateLimit, config.RateBurst)
	}
	return router
}

func (r *Router) SetupRoutes(mux *http.ServeMux) {
	limit := RateLimitMiddleware(r.limiter)

	// UI
	mux.HandleFunc("/", r.handlers.home.HandleHome)
	mux.Handle("GET /static/", http.StripPrefix("/static/", web.Static()))
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /blobs/{key...}", r.handlers.blobs.HandleGet)

	// File API
	mux.HandleFunc("GET /api/files", r.handlers.files.HandleList)
	mux.Handle("POST /api/upload", limit(http.HandlerFunc(r.handlers.files.HandleUpload)))
	mux.Handle("DELETE /api/upload", limit(http.HandlerFunc(r.handlers.files.HandleDelete)))
	mux.Handle("DELETE /api/delete", limit(http.HandlerFunc(r.handlers.files.HandleDelete)))
	mux.Handle("POST /api/rename", limit(http.HandlerFunc(r.handlers.files.HandleRename)))
}

// Handler returns the routes wrapped in the middleware chain.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	r.SetupRoutes(mux)

	var handler http.Handler = mux
	if r.config.UseSecurityHeaders {
		handler = SecurityHeadersMiddleware(r.config.UseHsts)(handler)
	}
	handler = RecoverMiddleware(handler)
	handler = LoggingMiddleWare(handler)
	return RequestIdMiddleware(handler)
}
