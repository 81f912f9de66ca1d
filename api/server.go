// Package api exposes the briefing service over HTTP and runs the daily schedule.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"morningbrief/orchestrator"
	"morningbrief/types"
)

// Runner executes briefing runs
type Runner interface {
	Run(ctx context.Context, p orchestrator.RunParams) (*orchestrator.Report, error)
	NewRunID() string
}

// Archive serves the last stored briefing when this process has not run one yet
type Archive interface {
	Latest(ctx context.Context) (*types.Briefing, error)
}

// Server is the briefing service HTTP server
type Server struct {
	state      *Manager
	runner     Runner
	archive    Archive
	logger     *slog.Logger
	engine     *gin.Engine
	httpServer *http.Server
	cron       *cron.Cron
	cronID     cron.EntryID
	mu         sync.Mutex

	// runs outlive the request that started them
	runCtx    context.Context
	cancelRun context.CancelFunc
	runs      sync.WaitGroup
}

// NewServer constructs the server with its Gin engine
func NewServer(runner Runner, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		state:     NewManager(),
		runner:    runner,
		logger:    logger.With("component", "api"),
		cron:      cron.New(),
		runCtx:    runCtx,
		cancelRun: cancel,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	s.registerRoutes(r)
	s.engine = r

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler { return s.engine }

// State returns the run state manager
func (s *Server) State() *Manager { return s.state }

// SetArchive enables the archive fallback for the latest-briefing routes
func (s *Server) SetArchive(a Archive) { s.archive = a }

// Trigger starts a run in the background. It returns types.ErrRunInProgress
// when a run is already going.
func (s *Server) Trigger(requestedBy string, dryRun bool) (string, error) {
	runID := s.runner.NewRunID()
	if !s.state.TryStart(runID, requestedBy) {
		return "", types.ErrRunInProgress
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		report, err := s.runner.Run(s.runCtx, orchestrator.RunParams{RunID: runID, DryRun: dryRun})
		var b *types.Briefing
		if report != nil {
			b = report.Briefing
		}
		s.state.Finish(b, err)
		if err != nil {
			s.logger.Error("briefing run failed", "run_id", runID, "error", err)
		}
	}()
	return runID, nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.logger.Info("starting API server", "addr", ln.Addr().String())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// StartCron schedules automated runs
func (s *Server) StartCron(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(schedule, func() {
		s.logger.Info("cron triggered: starting briefing run")
		if _, err := s.Trigger("cron", false); err != nil {
			s.logger.Warn("cron skipped", "state", s.state.State(), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cronID = id
	s.cron.Start()
	s.logger.Info("cron job started", "schedule", schedule)
	return nil
}

// Wait blocks until in-flight runs finish
func (s *Server) Wait() { s.runs.Wait() }

// Shutdown stops the schedule and the HTTP server, then waits for in-flight
// runs until ctx is done, after which they are cancelled.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	<-s.cron.Stop().Done()
	err := s.httpServer.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.cancelRun()
		<-done
	}
	s.cancelRun()
	return err
}
