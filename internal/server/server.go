// Package server exposes the document editor over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/sync/errgroup"

	"docchat/internal/convert"
	"docchat/internal/editor"
	"docchat/internal/export"
	"docchat/internal/logger"
	"docchat/pkg/models"
)

const shutdownTimeout = 30 * time.Second

// Converter turns a saved upload into HTML.
type Converter interface {
	Convert(ctx context.Context, path, displayName string) (*convert.Outcome, error)
}

// Options configures the HTTP layer.
type Options struct {
	Addr               string
	UploadDir          string
	MaxFileSize        int64
	AllowedExtensions  []string
	CORSAllowedOrigins []string

	// Zero timeouts mean the request context alone bounds the call.
	OCRTimeout time.Duration
	LLMTimeout time.Duration
	PDFTimeout time.Duration
}

// Server wires the HTTP routes to the conversion pipeline, the editor and the exporter.
type Server struct {
	opts      Options
	converter Converter
	editor    *editor.Engine
	exporter  *export.Exporter
	log       zerolog.Logger
}

// New creates a server.
func New(opts Options, converter Converter, engine *editor.Engine, exporter *export.Exporter) *Server {
	if len(opts.CORSAllowedOrigins) == 0 {
		opts.CORSAllowedOrigins = []string{"*"}
	}
	return &Server{
		opts:      opts,
		converter: converter,
		editor:    engine,
		exporter:  exporter,
		log:       logger.WithComponent("server"),
	}
}

// Handler returns the routed handler with CORS and access logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/export/pdf", s.handleExportPDF)

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	var h http.Handler = c.Handler(mux)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("Request handled")
	})(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = hlog.RequestIDHandler("request_id", "X-Request-Id")(h)
	h = hlog.NewHandler(s.log)(h)
	return h
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.writeTimeout(),
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		<-ctx.Done()
		s.log.Info().Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("Server shutdown failed")
			return err
		}
		return nil
	})

	eg.Go(func() error {
		s.log.Info().Str("addr", s.opts.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("Server failed")
			return err
		}
		return nil
	})

	return eg.Wait()
}

// writeTimeout covers the slowest handler: an upload that runs OCR, synthesis and seeding.
func (s *Server) writeTimeout() time.Duration {
	d := s.opts.OCRTimeout + 2*s.opts.LLMTimeout + 30*time.Second
	if d < 60*time.Second {
		d = 60 * time.Second
	}
	return d
}

func (s *Server) allowsExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.opts.AllowedExtensions {
		if ext != "" && ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}
