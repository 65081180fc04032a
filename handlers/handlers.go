// Package handlers serves the upload, results and download pages and the
// JSON merge API.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jalad-shrimali/callmatch/phone"
)

// Upload form fields.
const (
	FieldCalls    = "retreaver_report"
	FieldSales    = "sales_report"
	FieldCSV      = "csv_file"
	FieldFormat   = "format"
	HeaderMergeID = "X-Merge-ID"
)

// Options tunes a Handler. Zero values fall back to defaults.
type Options struct {
	PreviewRows    int
	MaxUploadBytes int64
	Region         string
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.PreviewRows <= 0 {
		o.PreviewRows = 5
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 32 << 20
	}
	if o.Region == "" {
		o.Region = phone.DefaultRegion
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	return o
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	opts  Options
	log   *slog.Logger
	pages *pages
}

// New parses the embedded page templates and returns a ready Handler.
func New(log *slog.Logger, opts Options) (*Handler, error) {
	opts = opts.withDefaults()
	p, err := newPages(opts.Region)
	if err != nil {
		return nil, err
	}
	return &Handler{opts: opts, log: log, pages: p}, nil
}

// Routes builds the chi router for the service.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(httpLogger(h.log))

	r.Get("/", h.UploadPage)
	r.Post("/process", h.Process)
	r.Post("/download", h.Download)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{HeaderMergeID},
			MaxAge:         300,
		}))
		r.Post("/merge", h.APIMerge)
		r.Get("/health", h.Health)
	})
	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, map[string]string{"status": "ok"})
}
