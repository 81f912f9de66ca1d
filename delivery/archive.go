package delivery

import (
	"context"
	"fmt"

	"morningbrief/render"
	"morningbrief/storage"
	"morningbrief/types"
)

// Archiver uploads the briefing to object storage
type Archiver struct {
	archive *storage.Archive
}

// NewArchiver wraps a storage archive
func NewArchiver(a *storage.Archive) *Archiver {
	return &Archiver{archive: a}
}

func (a *Archiver) Name() string { return "archive" }

func (a *Archiver) Deliver(ctx context.Context, b *types.Briefing) error {
	html, err := render.HTML(b)
	if err != nil {
		return fmt.Errorf("failed to render briefing: %w", err)
	}
	_, err = a.archive.Save(ctx, b, html)
	return err
}
