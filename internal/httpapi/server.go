// Package httpapi exposes an optional local status surface over HTTP: a
// liveness probe and a snapshot of the Processor's current status,
// mirroring the Status order without going through the broker.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mediajob/worker-sdk/internal/exchange"
	"github.com/mediajob/worker-sdk/internal/version"
)

// StatusSource is satisfied by *processor.Processor.
type StatusSource interface {
	StatusReport(ctx context.Context) exchange.StatusReport
}

// ServerConfig configures the status HTTP server.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server is the optional local status surface.
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds a Server exposing /healthz and /status against source.
func NewServer(config ServerConfig, source StatusSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	humaConfig := huma.DefaultConfig("mcaiworker status API", version.Short())
	humaConfig.Info.Description = "Local status surface for a media-processing worker"
	api := humachi.New(router, humaConfig)

	registerHealth(api)
	registerStatus(api, source)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	return &Server{
		config: config,
		logger: logger.With("component", "httpapi"),
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully within ShutdownTimeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

type healthInput struct{}

type healthOutput struct {
	Body struct {
		Status string `json:"status" example:"ok"`
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "getHealthz",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Liveness probe",
		Tags:        []string{"System"},
	}, func(_ context.Context, _ *healthInput) (*healthOutput, error) {
		out := &healthOutput{}
		out.Body.Status = "ok"
		return out, nil
	})
}

type statusInput struct{}

type statusOutput struct {
	Body statusBody
}

type statusBody struct {
	Activity    string `json:"activity" example:"idle"`
	Hostname    string `json:"hostname"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemoryUsed  uint64 `json:"memory_used"`
	MemoryTotal uint64 `json:"memory_total"`
	CurrentJob  *uint64 `json:"current_job_id,omitempty"`
}

func registerStatus(api huma.API, source StatusSource) {
	huma.Register(api, huma.Operation{
		OperationID: "getStatus",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Worker status",
		Description: "Mirrors the Processor's Status order: activity, host resource usage, and the current job if any.",
		Tags:        []string{"System"},
	}, func(ctx context.Context, _ *statusInput) (*statusOutput, error) {
		report := source.StatusReport(ctx)

		out := &statusOutput{}
		out.Body.Activity = string(report.Activity)
		out.Body.Hostname = report.System.Hostname
		out.Body.CPUPercent = report.System.CPUPercent
		out.Body.MemoryUsed = report.System.MemoryUsed
		out.Body.MemoryTotal = report.System.MemoryTotal
		if report.Current != nil {
			id := report.Current.JobID
			out.Body.CurrentJob = &id
		}
		return out, nil
	})
}
