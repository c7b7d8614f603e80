package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/vivienda/internal/training"
	"github.com/wonny/vivienda/pkg/config"
	"github.com/wonny/vivienda/pkg/logger"
)

// RetrainJob retrains the model from the configured dataset and replaces
// the serving files. A failed run leaves the previous files in place.
type RetrainJob struct {
	trainer  *training.Trainer
	dataset  config.DatasetConfig
	database config.DatabaseConfig
	schedule string
	logger   *logger.Logger
}

// NewRetrainJob creates a new retrain job
func NewRetrainJob(trainer *training.Trainer, cfg *config.Config, log *logger.Logger) *RetrainJob {
	return &RetrainJob{
		trainer:  trainer,
		dataset:  cfg.Dataset,
		database: cfg.Database,
		schedule: cfg.RetrainSchedule,
		logger:   log.Component("jobs.retrain"),
	}
}

// Name returns the job name
func (j *RetrainJob) Name() string {
	return "retrain"
}

// Schedule returns the cron schedule (RETRAIN_SCHEDULE, daily at 3 AM by default)
func (j *RetrainJob) Schedule() string {
	return j.schedule
}

// Run executes one training run
func (j *RetrainJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled retrain")

	report, err := j.trainer.RunFromLocation(ctx, j.dataset, j.database)
	if err != nil {
		return fmt.Errorf("retrain: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"artifact_id": report.ArtifactID,
		"rows":        report.Rows,
		"rmse":        report.Metrics.RMSE,
		"r2":          report.Metrics.R2,
	}).Info("Retrain completed")

	return nil
}
