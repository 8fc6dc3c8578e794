package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"

	"bananadb/internal/fetch"
	"bananadb/internal/library"
	"bananadb/internal/logging"
	"bananadb/internal/vision"
)

//go:embed web
var webFS embed.FS

// Analyzer is the subset of the vision client the handlers use.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, path, contextText string) (vision.Analysis, error)
	Translate(ctx context.Context, text string) vision.Translation
	ExtractTags(ctx context.Context, text string) ([]string, string)
	Search(ctx context.Context, query string, candidates []vision.Candidate) ([]int64, error)
}

// Downloader fetches remote images into a directory.
type Downloader interface {
	Download(ctx context.Context, imageURL, pageURL, dir string) (*fetch.Result, error)
}

// Options configures a Server.
type Options struct {
	Bind        string
	Token       string
	ExtensionID string
	// MaxUploadBytes caps multipart uploads. Zero uses the download cap default.
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Server serves the collection API.
type Server struct {
	store      *library.Store
	analyzer   Analyzer
	downloader Downloader
	opts       Options
	logger     *slog.Logger
	sanitizer  *bluemonday.Policy
	router     chi.Router

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New builds a Server and its routes.
func New(store *library.Store, analyzer Analyzer, downloader Downloader, opts Options) (*Server, error) {
	if store == nil || analyzer == nil || downloader == nil {
		return nil, errors.New("server requires store, analyzer, and downloader")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		store:      store,
		analyzer:   analyzer,
		downloader: downloader,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "api-server"),
		sanitizer:  bluemonday.StrictPolicy(),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/", s.handleIndex)
	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.store.UploadDir())))
	r.Handle("/uploads/*", uploads)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth)
		r.Post("/collect_url", s.handleCollectURL)
		r.Post("/upload", s.handleUpload)
		r.Get("/search", s.handleSearch)
		r.Get("/categories", s.handleCategories)
		r.Route("/images", func(r chi.Router) {
			r.Get("/", s.handleListImages)
			r.Get("/favorited", s.handleListFavorites)
			r.Post("/delete_batch", s.handleDeleteBatch)
			r.Delete("/{id}", s.handleDeleteImage)
			r.Post("/{id}/favorite", s.handleToggleFavorite)
		})
	})
	return r
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured bind address and serves until ctx ends
// or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.opts.Bind)
	if bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.server = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the HTTP server down, waiting up to five seconds for requests.
func (s *Server) Stop() {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(webFS, "web/index.html")
	if err != nil {
		s.writeError(w, http.StatusNotFound, "index page missing")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
