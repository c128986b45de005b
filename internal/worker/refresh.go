package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoReloader indicates a refresh was requested but the worker has no
// reloadable dataset configured (mock-backed deployments).
var ErrNoReloader = errors.New("no reloadable tower dataset configured")

// DatasetReloader re-reads a tower dataset from its backing file.
// *towers.CSVSource implements it.
type DatasetReloader interface {
	Reload(ctx context.Context) error
	Count() int
}

// RefreshJob reloads the tower dataset so a replaced export file is
// picked up without restarting the API.
type RefreshJob struct {
	reloader DatasetReloader
	logger   zerolog.Logger
}

// NewRefreshJob creates a dataset refresh job. The reloader may be nil;
// Run then fails with ErrNoReloader.
func NewRefreshJob(reloader DatasetReloader, logger zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		reloader: reloader,
		logger:   logger,
	}
}

// Run reloads the dataset and logs the size change.
func (j *RefreshJob) Run(ctx context.Context) error {
	if j.reloader == nil {
		return ErrNoReloader
	}

	before := j.reloader.Count()
	start := time.Now()

	if err := j.reloader.Reload(ctx); err != nil {
		j.logger.Error().Err(err).Msg("tower dataset reload failed")
		return err
	}

	j.logger.Info().
		Int("towers_before", before).
		Int("towers_after", j.reloader.Count()).
		Dur("duration", time.Since(start)).
		Msg("tower dataset reloaded")
	return nil
}
