package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/internal/logging"
	"github.com/aretw0/slidedeck/pkg/observability"
	"github.com/aretw0/slidedeck/pkg/ports"
	"github.com/aretw0/slidedeck/pkg/session"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// MaxImageBytes bounds the decoded size of an uploaded or pasted image.
const MaxImageBytes = 10 << 20

// maxUploadBody allows for base64 inflation and the JSON envelope.
const maxUploadBody = MaxImageBytes*4/3 + 4096

// Server serves presentations over HTTP: the persistence contract, live editing
// sessions and their event streams.
type Server struct {
	Store    ports.PresentationStore
	Images   ports.ImageStore
	Sessions *session.Manager
	Streams  *StreamManager

	metrics      *observability.Metrics
	logger       *slog.Logger
	corsOrigins  []string
	uploadRate   float64
	uploadBurst  int
	sessionOpts  []session.Option
	editorOpts   []slidedeck.Option
	requestLimit time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for requests and sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records request and editor metrics and serves them on /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCORSOrigins sets the allowed browser origins. Defaults to any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithUploadRate limits image uploads per client IP. A zero rate disables the limit.
func WithUploadRate(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.uploadRate = perSecond
		s.uploadBurst = burst
	}
}

// WithImageStore overrides the image backend. By default the presentation store is used
// when it keeps images.
func WithImageStore(images ports.ImageStore) Option {
	return func(s *Server) {
		s.Images = images
	}
}

// WithSessionOptions configures the session manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Server) {
		s.sessionOpts = append(s.sessionOpts, opts...)
	}
}

// WithEditorOptions configures every editor opened by the server.
func WithEditorOptions(opts ...slidedeck.Option) Option {
	return func(s *Server) {
		s.editorOpts = append(s.editorOpts, opts...)
	}
}

// WithRequestTimeout bounds non-streaming requests.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.requestLimit = d
	}
}

// NewServer creates a Server over store.
func NewServer(store ports.PresentationStore, opts ...Option) *Server {
	s := &Server{
		Store:        store,
		Streams:      NewStreamManager(),
		logger:       logging.NewNop(),
		corsOrigins:  []string{"*"},
		uploadRate:   5,
		uploadBurst:  10,
		requestLimit: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Images == nil {
		s.Images, _ = store.(ports.ImageStore)
	}
	s.Streams.logger = s.logger

	editorOpts := []slidedeck.Option{slidedeck.WithLifecycleHooks(s.Streams.Hooks())}
	if s.metrics != nil {
		editorOpts = append(editorOpts, slidedeck.WithLifecycleHooks(s.metrics.Hooks()))
	}
	if s.Images != nil {
		editorOpts = append(editorOpts, slidedeck.WithImageStore(s.Images))
	}
	sessionOpts := append([]session.Option{
		session.WithLogger(s.logger),
		session.WithEditorOptions(append(editorOpts, s.editorOpts...)...),
	}, s.sessionOpts...)
	s.Sessions = session.NewManager(store, sessionOpts...)
	return s
}

// NewHandler creates a handler for store with default settings.
func NewHandler(store ports.PresentationStore, opts ...Option) http.Handler {
	return NewServer(store, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/openapi.yaml", s.getSpec)
	r.Get("/swagger", s.getSwagger)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/events", s.subscribeEvents)
	r.Get("/presentation", s.listPresentations)

	r.Route("/presentation/{patientId}", func(r chi.Router) {
		r.Use(s.timeout)
		r.Get("/", s.getPresentation)
		r.Post("/", s.savePresentation)
		r.Delete("/", s.deletePresentation)

		r.With(s.uploadLimiter(), limitBody(maxUploadBody)).Post("/image", s.uploadImage)
		r.Get("/image/{imageId}", s.getImage)

		r.Route("/session", s.sessionRoutes)
	})

	return r
}

func (s *Server) timeout(next http.Handler) http.Handler {
	if s.requestLimit <= 0 {
		return next
	}
	return chimiddleware.Timeout(s.requestLimit)(next)
}
