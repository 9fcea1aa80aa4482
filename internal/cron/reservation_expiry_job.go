package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/bookhavenhq/bookhaven-backend/pkg/logger"
	"github.com/bookhavenhq/bookhaven-backend/pkg/metrics"
)

// reservationSweeper is the slice of the reservation service the job needs.
type reservationSweeper interface {
	ExpireSweep(ctx context.Context, now time.Time) (int, error)
}

// ReservationExpiryJobParams configure the expiry sweep job.
type ReservationExpiryJobParams struct {
	Logger       *logger.Logger
	Reservations reservationSweeper
	Metrics      *metrics.CronJobMetrics
}

// NewReservationExpiryJob builds the job that expires stale holds.
func NewReservationExpiryJob(params ReservationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reservations == nil {
		return nil, fmt.Errorf("reservation service required")
	}
	return &reservationExpiryJob{
		logg:         params.Logger,
		reservations: params.Reservations,
		metrics:      params.Metrics,
		now:          time.Now,
	}, nil
}

type reservationExpiryJob struct {
	logg         *logger.Logger
	reservations reservationSweeper
	metrics      *metrics.CronJobMetrics
	now          func() time.Time
}

func (j *reservationExpiryJob) Name() string { return "reservation-expiry" }

func (j *reservationExpiryJob) Run(ctx context.Context) error {
	transitioned, anomalies := j.reservations.ExpireSweep(ctx, j.now().UTC())

	anomalyCount := len(multierr.Errors(anomalies))
	if j.metrics != nil {
		j.metrics.AddTransitions(j.Name(), transitioned)
		j.metrics.AddAnomalies(j.Name(), anomalyCount)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"transitioned": transitioned,
		"anomalies":    anomalyCount,
	})
	j.logg.Info(logCtx, "reservation expiry sweep complete")
	return anomalies
}
