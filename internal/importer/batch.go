package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/starford/sideload/internal/apperr"
	"github.com/starford/sideload/internal/metrics"
	"github.com/starford/sideload/internal/models"
)

// FileImporter imports a single file.
type FileImporter interface {
	ImportFile(ctx context.Context, requested string) (*models.Asset, error)
}

// ActivityRecorder persists import attempts.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, a models.Activity) error
}

// Events receives per-item and per-batch notifications.
type Events interface {
	ItemImported(batchID string, r models.ImportResult)
	BatchCompleted(batchID string, succeeded, failed int)
}

// Batch runs a FileImporter over an ordered list of paths.
type Batch struct {
	imp      FileImporter
	activity ActivityRecorder
	events   Events
	logger   *slog.Logger
}

// NewBatch returns a Batch. activity and events may be nil.
func NewBatch(imp FileImporter, activity ActivityRecorder, events Events, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{imp: imp, activity: activity, events: events, logger: logger}
}

// Summary is the outcome of one batch.
type Summary struct {
	BatchID   string                `json:"batch_id"`
	Results   []models.ImportResult `json:"results"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

// ImportBatch imports each path in order, one at a time, and returns one
// result per input. An item's failure never affects another item. Once ctx
// is done the remaining items are reported as failed.
func (b *Batch) ImportBatch(ctx context.Context, paths []string) Summary {
	s := Summary{
		BatchID: uuid.NewString(),
		Results: make([]models.ImportResult, 0, len(paths)),
	}
	metrics.RecordBatch(len(paths))

	for _, p := range paths {
		var res models.ImportResult
		if err := ctx.Err(); err != nil {
			res = failure(p, fmt.Errorf("import cancelled before this file: %w", err))
		} else {
			res = b.importOne(ctx, p)
		}
		if res.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.Results = append(s.Results, res)
		b.record(ctx, s.BatchID, res)
	}

	if b.events != nil {
		b.events.BatchCompleted(s.BatchID, s.Succeeded, s.Failed)
	}
	b.logger.Info("import batch complete",
		slog.String("batch_id", s.BatchID),
		slog.Int("succeeded", s.Succeeded),
		slog.Int("failed", s.Failed))
	return s
}

func (b *Batch) importOne(ctx context.Context, p string) models.ImportResult {
	asset, err := b.imp.ImportFile(ctx, p)
	if err != nil {
		b.logger.Info("import failed",
			slog.String("path", p),
			slog.String("kind", string(apperr.KindOf(err))),
			slog.String("error", err.Error()))
		return failure(p, err)
	}
	id := asset.ID
	return models.ImportResult{
		File:    filepath.Base(p),
		Path:    p,
		Success: true,
		AssetID: &id,
		URL:     asset.URL,
	}
}

func failure(p string, err error) models.ImportResult {
	return models.ImportResult{
		File:      filepath.Base(p),
		Path:      p,
		Error:     apperr.Message(err),
		ErrorKind: string(apperr.KindOf(err)),
	}
}

func (b *Batch) record(ctx context.Context, batchID string, r models.ImportResult) {
	if b.activity != nil {
		err := b.activity.RecordActivity(context.WithoutCancel(ctx), models.Activity{
			BatchID: batchID,
			File:    r.File,
			Path:    r.Path,
			Success: r.Success,
			AssetID: r.AssetID,
			Error:   r.Error,
		})
		if err != nil {
			b.logger.Warn("record activity failed", slog.String("path", r.Path), slog.String("error", err.Error()))
		}
	}
	if b.events != nil {
		b.events.ItemImported(batchID, r)
	}
}
