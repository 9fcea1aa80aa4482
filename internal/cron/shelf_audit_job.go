package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/bookhavenhq/bookhaven-backend/internal/shelving"
	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
	"github.com/bookhavenhq/bookhaven-backend/pkg/metrics"
)

// dangerScanner is the slice of the shelving service the job needs.
type dangerScanner interface {
	DangerScan(ctx context.Context) (*shelving.DangerReport, error)
}

// ShelfAuditJobParams configure the shelf safety audit.
type ShelfAuditJobParams struct {
	Logger   *logger.Logger
	Shelving dangerScanner
	Metrics  *metrics.CronJobMetrics
}

// NewShelfAuditJob builds the job that audits shelves for unsafe book
// combinations.
func NewShelfAuditJob(params ShelfAuditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Shelving == nil {
		return nil, fmt.Errorf("shelving service required")
	}
	return &shelfAuditJob{
		logg:     params.Logger,
		shelving: params.Shelving,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

type shelfAuditJob struct {
	logg     *logger.Logger
	shelving dangerScanner
	metrics  *metrics.CronJobMetrics
	now      func() time.Time
}

func (j *shelfAuditJob) Name() string { return "shelf-audit" }

func (j *shelfAuditJob) Run(ctx context.Context) error {
	report, err := j.shelving.DangerScan(ctx)
	if err != nil {
		return fmt.Errorf("danger scan: %w", err)
	}

	flagged := map[string]struct{}{}
	for _, combination := range report.Combinations {
		flagged[combination.ShelfCode] = struct{}{}
		comboCtx := j.logg.WithFields(ctx, map[string]any{
			"shelf_code":      combination.ShelfCode,
			"books":           len(combination.Books),
			"total_weight_kg": combination.TotalWeightKG.String(),
		})
		j.logg.Warn(comboCtx, "dangerous book combination on shelf")
	}
	for _, code := range report.TruncatedShelves {
		truncCtx := j.logg.WithField(ctx, "shelf_code", code)
		j.logg.Warn(truncCtx, "shelf occupancy exceeds audit cap; shelf skipped")
	}

	if j.metrics != nil {
		j.metrics.SetFlaggedShelves(j.Name(), len(flagged))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"combinations":      len(report.Combinations),
		"flagged_shelves":   len(flagged),
		"truncated_shelves": len(report.TruncatedShelves),
	})
	j.logg.Info(logCtx, "shelf audit complete")
	return nil
}
