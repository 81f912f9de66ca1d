package app

import (
	"context"
	"errors"
	"time"

	"morningbrief/api"
	"morningbrief/events"
	"morningbrief/types"
)

const shutdownTimeout = 30 * time.Second

// Serve runs service mode until ctx is done: the HTTP API, the daily schedule
// and, when brokers are configured, the run-request consumer.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config
	srv := api.NewServer(a.Orchestrator, cfg.Server.Addr, a.logger)
	if a.Archive != nil {
		srv.SetArchive(a.Archive)
	}
	if err := srv.Start(); err != nil {
		return err
	}
	if cfg.Server.Schedule != "" {
		if err := srv.StartCron(cfg.Server.Schedule); err != nil {
			return err
		}
	}

	if cfg.Kafka.Enabled() {
		handler := events.NewRunRequestHandler(func(_ context.Context, req events.RunRequest) error {
			runID, err := srv.Trigger(req.RequestedBy, req.DryRun)
			if errors.Is(err, types.ErrRunInProgress) {
				a.logger.Info("run request ignored, run in progress", "requested_by", req.RequestedBy)
				return nil
			}
			if err == nil {
				a.logger.Info("run requested", "run_id", runID, "requested_by", req.RequestedBy)
			}
			return err
		}, a.logger)

		consumer, err := events.NewConsumer(events.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.RequestsTopic,
			GroupID: cfg.Kafka.GroupID,
			Handler: handler,
			Logger:  a.logger,
		})
		if err != nil {
			a.logger.Warn("run requests disabled", "error", err)
		} else {
			defer consumer.Close()
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				a.logger.Warn("run request consumer failed to start", "error", err)
			}
		}
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
