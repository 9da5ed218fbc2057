package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xela07ax/guildkeeper/internal/console/handler"
	"github.com/xela07ax/guildkeeper/internal/domain"
	"github.com/xela07ax/guildkeeper/internal/infra"
	"github.com/xela07ax/guildkeeper/internal/infra/auth"
	"go.uber.org/zap"
)

// Handlers: обработчики бизнес-доменов консоли
type Handlers struct {
	Health   *handler.HealthHandler   // /v1/guilds/{guildID}/health, /v1/health/run
	Activity *handler.ActivityHandler // /v1/activity
	Audit    *handler.AuditHandler    // /v1/audit
	Backup   *handler.BackupHandler   // /v1/backups
	Gate     *handler.GateHandler     // /v1/gate
}

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    infra.ConsoleConfig

	// Проверка токенов оператора (RS256). Если nil, защищенные роуты не монтируются
	authValidator auth.TokenValidator
	gatherer      prometheus.Gatherer

	h Handlers
}

func NewConsoleServer(
	cfg infra.ConsoleConfig,
	logger *zap.Logger,
	validator auth.TokenValidator,
	gatherer prometheus.Gatherer,
	h Handlers,
) *ConsoleServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &ConsoleServer{
		router:        chi.NewRouter(),
		logger:        logger.Named("console-api"),
		cfg:           cfg,
		authValidator: validator,
		gatherer:      gatherer,
		h:             h,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TracingMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	})

	if s.authValidator == nil {
		s.logger.Warn("console public key not configured, operator API disabled")
		return
	}

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (RS256 токен со scope ops) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, domain.ScopeOps, s.logger))

		r.Get("/v1/guilds/{guildID}/health", s.h.Health.GetGuild)
		r.Post("/v1/health/run", s.h.Health.Run)

		r.Get("/v1/activity", s.h.Activity.Get)

		r.Route("/v1/audit", func(r chi.Router) {
			r.Get("/", s.h.Audit.GetLogs)
			r.Get("/stats", s.h.Audit.GetStats)
		})

		r.Route("/v1/backups", func(r chi.Router) {
			r.Get("/", s.h.Backup.List)
			r.Get("/{name}", s.h.Backup.Get)
		})

		r.Get("/v1/gate", s.h.Gate.Get)
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run слушает адрес из конфига до отмены контекста, затем дает 5 секунд на завершение запросов.
func (s *ConsoleServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("console API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("console API stopped")
	return nil
}
