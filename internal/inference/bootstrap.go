package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/vivienda/internal/trainconfig"
	"github.com/wonny/vivienda/internal/training"
	"github.com/wonny/vivienda/pkg/config"
)

// BootstrapOptions controls how a serving process obtains its artifact
type BootstrapOptions struct {
	Trainer   *training.Trainer
	Dataset   config.DatasetConfig
	Database  config.DatabaseConfig
	AutoTrain bool
}

// Bootstrap loads the serving files. When they are missing, unreadable or were
// produced with a different training config and AutoTrain is set, it trains
// synchronously and loads the fresh files; a training failure is returned as
// is. Without AutoTrain the problem is returned as a ConfigError.
func Bootstrap(ctx context.Context, opts BootstrapOptions, log zerolog.Logger) (*Service, error) {
	if opts.Trainer == nil {
		return nil, errors.New("inference: bootstrap needs a trainer")
	}
	paths := opts.Trainer.Paths()
	log = log.With().Str("component", "inference.bootstrap").Logger()

	svc, err := Load(paths, log)
	if err == nil {
		err = checkFresh(svc, opts.Trainer.Config(), paths.Artifact)
		if err == nil {
			return svc, nil
		}
	}

	if !opts.AutoTrain {
		return nil, err
	}

	log.Warn().Err(err).Msg("serving files unusable, training before serving")
	report, trainErr := opts.Trainer.RunFromLocation(ctx, opts.Dataset, opts.Database)
	if trainErr != nil {
		return nil, fmt.Errorf("auto-train: %w", trainErr)
	}
	log.Info().Str("artifact_id", report.ArtifactID).Msg("auto-train completed")

	return Load(paths, log)
}

func checkFresh(svc *Service, cfg *trainconfig.Config, path string) error {
	hash, err := trainconfig.Hash(cfg)
	if err != nil {
		return err
	}
	if svc.Meta().ConfigHash != hash {
		return &ConfigError{Path: path, Err: ErrStaleArtifact}
	}
	return nil
}
