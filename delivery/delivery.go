// Package delivery hands a finished briefing to its destinations.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"morningbrief/render"
	"morningbrief/types"
)

// Deliverer sends or stores a rendered briefing
type Deliverer interface {
	Deliver(ctx context.Context, b *types.Briefing) error
	Name() string
}

// FileWriter writes the rendered HTML into a directory
type FileWriter struct {
	Dir string
	// Path of the last written file
	LastPath string
}

// NewFileWriter returns a writer into dir
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{Dir: dir}
}

func (w *FileWriter) Name() string { return "file" }

// FileName returns the output file name for a briefing
func FileName(b *types.Briefing) string {
	return "briefing_" + b.GeneratedAt.Format("20060102_150405") + ".html"
}

// Deliver writes <dir>/briefing_YYYYmmdd_HHMMSS.html
func (w *FileWriter) Deliver(_ context.Context, b *types.Briefing) error {
	html, err := render.HTML(b)
	if err != nil {
		return fmt.Errorf("failed to render briefing: %w", err)
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", w.Dir, err)
	}
	path := filepath.Join(w.Dir, FileName(b))
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return fmt.Errorf("failed to write briefing: %w", err)
	}
	w.LastPath = path
	return nil
}

// Multi fans a briefing out to several deliverers. Every deliverer is
// attempted; failures are joined.
type Multi struct {
	deliverers []Deliverer
	logger     *slog.Logger
}

// NewMulti combines deliverers
func NewMulti(logger *slog.Logger, ds ...Deliverer) *Multi {
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{deliverers: ds, logger: logger}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Deliver(ctx context.Context, b *types.Briefing) error {
	var errs []error
	for _, d := range m.deliverers {
		if err := d.Deliver(ctx, b); err != nil {
			m.logger.Error("delivery failed", "deliverer", d.Name(), "run_id", b.RunID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", d.Name(), err))
			continue
		}
		m.logger.Info("briefing delivered", "deliverer", d.Name(), "run_id", b.RunID)
	}
	return errors.Join(errs...)
}
