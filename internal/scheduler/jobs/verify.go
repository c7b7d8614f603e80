package jobs

import (
	"context"

	"github.com/wonny/vivienda/internal/inference"
	"github.com/wonny/vivienda/internal/training"
	"github.com/wonny/vivienda/pkg/logger"
	"github.com/wonny/vivienda/pkg/metrics"
)

// VerifyJob checks that the serving files load, agree with each other and
// were produced by the current training config. It republishes the quality
// gauges of the artifact on success.
type VerifyJob struct {
	trainer *training.Trainer
	logger  *logger.Logger
}

// NewVerifyJob creates a new verify job
func NewVerifyJob(trainer *training.Trainer, log *logger.Logger) *VerifyJob {
	return &VerifyJob{
		trainer: trainer,
		logger:  log.Component("jobs.verify"),
	}
}

// Name returns the job name
func (j *VerifyJob) Name() string {
	return "verify_artifact"
}

// Schedule returns the cron schedule (every hour)
func (j *VerifyJob) Schedule() string {
	return "0 0 * * * *"
}

// Run loads the serving files without training
func (j *VerifyJob) Run(ctx context.Context) error {
	svc, err := inference.Bootstrap(ctx, inference.BootstrapOptions{Trainer: j.trainer}, j.logger.Zerolog())
	if err != nil {
		return err
	}

	meta := svc.Meta()
	metrics.ObserveQuality(metrics.Quality{
		MAE:          meta.Metrics.MAE,
		RMSE:         meta.Metrics.RMSE,
		R2:           meta.Metrics.R2,
		BaselineRMSE: meta.Metrics.BaselineRMSE,
	})

	j.logger.WithField("artifact_id", meta.ID).Debug("Serving files verified")
	return nil
}
