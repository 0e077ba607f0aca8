package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lucasnoah/scapagent/internal/scan"
)

// Agent is the part of the agent the API drives.
type Agent interface {
	Running() bool
	PerformScan(ctx context.Context, profile string) *scan.Result
	Scan(ctx context.Context, req scan.Request) *scan.Result
}

// Server is the HTTP front end.
type Server struct {
	agent   Agent
	addr    string
	version string
	log     *zap.Logger
	now     func() time.Time
}

// NewServer creates a Server. A nil agent makes scan endpoints answer 503.
func NewServer(agent Agent, addr, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		agent:   agent,
		addr:    addr,
		version: version,
		log:     log.Named("web"),
		now:     time.Now,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/scan", func(r chi.Router) {
		r.Post("/", s.handleScan)
		r.Post("/oscap", s.handleOSCAPScan)
		r.Get("/profiles", s.handleProfiles)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("api server starting", zap.String("addr", s.addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
