package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/jsgate/internal/api/http"
	"github.com/GriffinCanCode/jsgate/internal/api/middleware"
	"github.com/GriffinCanCode/jsgate/internal/api/ws"
	"github.com/GriffinCanCode/jsgate/internal/engine"
	"github.com/GriffinCanCode/jsgate/internal/gateway"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/config"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/jsgate/internal/service"
)

// Version is reported by GET /.
var Version = "dev"

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	handler http.Handler
	http    *http.Server
	gateway *gateway.Gateway
	service *service.Service
	metrics *monitoring.Metrics
	logger  *logging.Logger
	config  *config.Config
}

// NewServer creates a new server instance. A nil registry uses a fresh one;
// a nil logger is built from cfg.Logging.
func NewServer(cfg *config.Config, logger *logging.Logger, registry *prometheus.Registry) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
			OutputPaths: []string{"stderr"},
		})
		if err != nil {
			return nil, err
		}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	logger.Info("Initializing jsgate server",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Strings("preload", cfg.Engine.Preload),
	)

	metrics := monitoring.NewMetrics(registry)

	paths, err := config.ExpandPreload(cfg.Engine.Preload)
	if err != nil {
		return nil, err
	}
	scripts, err := engine.ReadScripts(paths...)
	if err != nil {
		return nil, err
	}
	if len(scripts) > 0 {
		logger.Info("Loaded preload scripts", zap.Int("count", len(scripts)))
	}

	gw, err := gateway.New(
		gateway.WithScripts(scripts...),
		gateway.WithEngineOptions(engine.Options{
			MaxCallStackSize: cfg.Engine.MaxCallStackSize,
			Console:          cfg.Engine.Console,
		}),
		gateway.WithLogger(logger.Component("gateway")),
		gateway.WithObserver(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start gateway: %w", err)
	}

	var breaker *resilience.Breaker
	if cfg.Breaker.Enabled {
		breakerLog := logger.Component("breaker")
		breaker = resilience.New("eval", resilience.Settings{
			MaxRequests: 1,
			Timeout:     cfg.Breaker.Cooldown.Duration,
			ReadyToTrip: resilience.TripAfter(cfg.Breaker.MaxTimeouts),
			IsFailure:   service.IsTimeout,
			OnStateChange: func(name string, from, to resilience.State) {
				breakerLog.Warn("Circuit breaker state changed",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
				metrics.SetBreakerState(int(to))
			},
		})
		logger.Info("Circuit breaker enabled",
			zap.Uint32("max_timeouts", cfg.Breaker.MaxTimeouts),
			zap.Duration("cooldown", cfg.Breaker.Cooldown.Duration),
		)
	}

	svc := service.New(gw, service.Policy{
		DefaultTimeout: cfg.Engine.DefaultTimeout.Duration,
		MaxTimeout:     cfg.Engine.MaxTimeout.Duration,
	}, breaker)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	httpLog := logger.Component("http")
	router.Use(middleware.Recovery(httpLog))
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog(httpLog))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	// Register routes
	apihttp.NewHandlers(svc, metrics, httpLog, Version).Register(router)
	router.GET("/stream", ws.NewHandler(svc, metrics, logger.Component("ws")).HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))

	var handler http.Handler = router
	if cfg.Server.Gzip {
		handler = withGzip(router)
	}

	s := &Server{
		router:  router,
		handler: handler,
		gateway: gw,
		service: svc,
		metrics: metrics,
		logger:  logger,
		config:  cfg,
	}
	s.http = &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler: handler,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// withGzip compresses responses except WebSocket upgrades, which need the
// raw connection.
func withGzip(next http.Handler) http.Handler {
	compressed := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if websocket.IsWebSocketUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server. It returns nil after Shutdown.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones up to the
// configured shutdown timeout, then closes the engine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout.Duration)
	defer cancel()

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.gateway.Close(); err != nil {
		errs = append(errs, fmt.Errorf("gateway close: %w", err))
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}
