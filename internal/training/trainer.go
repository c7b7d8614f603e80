// Package training runs the batch job that turns the raw dataset into the
// artifact, columns file and catalog read by the serving process.
package training

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vivienda/internal/catalog"
	"github.com/wonny/vivienda/internal/dataset"
	"github.com/wonny/vivienda/internal/pipeline"
	"github.com/wonny/vivienda/internal/schema"
	"github.com/wonny/vivienda/internal/trainconfig"
	"github.com/wonny/vivienda/pkg/config"
	"github.com/wonny/vivienda/pkg/fileutil"
	"github.com/wonny/vivienda/pkg/metrics"
)

var (
	// ErrEmptyDataset is returned when no rows are left to train on
	ErrEmptyDataset = errors.New("dataset is empty after schema filtering")
	// ErrDegenerateTarget is returned when the target has fewer than two distinct values
	ErrDegenerateTarget = errors.New("target has fewer than two distinct values")
)

// Paths are the three files produced by a run
type Paths struct {
	Artifact string
	Schema   string
	Catalog  string
}

// PathsFrom picks the output paths from the environment config
func PathsFrom(p config.PathsConfig) Paths {
	return Paths{Artifact: p.Artifact, Schema: p.Schema, Catalog: p.Catalog}
}

// Result is a fitted run that has not been written yet
type Result struct {
	Artifact *pipeline.Artifact
	Catalog  *catalog.Catalog
	Columns  []string
}

// Report summarizes a completed run
type Report struct {
	ArtifactID      string           `json:"artifact_id"`
	Source          string           `json:"source"`
	Rows            int              `json:"rows"`
	Features        int              `json:"features"`
	EncodedFeatures int              `json:"encoded_features"`
	CatalogEntries  int              `json:"catalog_entries"`
	Trees           int              `json:"trees"`
	Metrics         pipeline.Metrics `json:"metrics"`
	Duration        time.Duration    `json:"duration"`
	Paths           Paths            `json:"paths"`
}

// Summary renders the report for an operator console
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "artifact   %s\n", r.ArtifactID)
	fmt.Fprintf(&b, "source     %s\n", r.Source)
	fmt.Fprintf(&b, "rows       %d (train %d / test %d)\n", r.Rows, r.Metrics.TrainRows, r.Metrics.TestRows)
	fmt.Fprintf(&b, "features   %d columns, %d encoded\n", r.Features, r.EncodedFeatures)
	fmt.Fprintf(&b, "trees      %d\n", r.Trees)
	fmt.Fprintf(&b, "MAE        %.2f €/m²\n", r.Metrics.MAE)
	fmt.Fprintf(&b, "RMSE       %.2f €/m² (mean baseline %.2f)\n", r.Metrics.RMSE, r.Metrics.BaselineRMSE)
	fmt.Fprintf(&b, "R²         %.4f\n", r.Metrics.R2)
	fmt.Fprintf(&b, "catalog    %d pairs\n", r.CatalogEntries)
	fmt.Fprintf(&b, "duration   %s\n", r.Duration.Round(time.Millisecond))
	return b.String()
}

// Trainer runs the training pipeline
type Trainer struct {
	cfg   *trainconfig.Config
	paths Paths
	log   zerolog.Logger
}

// NewTrainer 새 학습기 생성
func NewTrainer(cfg *trainconfig.Config, paths Paths, log zerolog.Logger) *Trainer {
	return &Trainer{
		cfg:   cfg,
		paths: paths,
		log:   log.With().Str("component", "training.trainer").Logger(),
	}
}

// Config returns the training configuration
func (t *Trainer) Config() *trainconfig.Config {
	return t.cfg
}

// Paths returns the output paths
func (t *Trainer) Paths() Paths {
	return t.paths
}

// Fit runs every in-memory step: catalog, schema, split, fit, evaluate
func (t *Trainer) Fit(ctx context.Context, frame *dataset.Frame, source string) (*Result, error) {
	cat, err := catalog.Extract(frame, t.cfg.DistrictColumn, t.cfg.NeighborhoodColumn)
	if err != nil {
		return nil, fmt.Errorf("extract catalog: %w", err)
	}

	s, err := schema.Derive(frame, t.cfg.Policy())
	if err != nil {
		return nil, fmt.Errorf("derive schema: %w", err)
	}
	t.log.Debug().
		Strs("categorical", s.Categorical()).
		Strs("numeric", s.Numeric()).
		Int("dropped", len(frame.Columns)-s.Len()-1).
		Msg("schema derived")

	if frame.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	rows, err := s.Rows(frame)
	if err != nil {
		return nil, fmt.Errorf("read feature rows: %w", err)
	}
	y, err := s.TargetValues(frame)
	if err != nil {
		return nil, fmt.Errorf("read target: %w", err)
	}
	if distinct(y) < 2 {
		return nil, ErrDegenerateTarget
	}

	trainIdx, testIdx, err := pipeline.TrainTestSplit(len(rows), t.cfg.TestRatio, t.cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}
	yTrain := pipeline.Take(y, trainIdx)
	yTest := pipeline.Take(y, testIdx)

	p, err := pipeline.Fit(ctx, s, pipeline.Take(rows, trainIdx), yTrain, t.cfg.ForestOptions()...)
	if err != nil {
		return nil, err
	}

	yPred, err := p.Predict(pipeline.Take(rows, testIdx))
	if err != nil {
		return nil, fmt.Errorf("predict held-out rows: %w", err)
	}
	m := pipeline.Evaluate(yTrain, yTest, yPred)

	hash, err := trainconfig.Hash(t.cfg)
	if err != nil {
		return nil, fmt.Errorf("hash training config: %w", err)
	}

	artifact, err := pipeline.NewArtifact(p, m, hash, source)
	if err != nil {
		return nil, fmt.Errorf("build artifact: %w", err)
	}

	return &Result{Artifact: artifact, Catalog: cat, Columns: s.Names()}, nil
}

// Write persists a fitted result: catalog, artifact and columns file are
// replaced together, or none of them is
func (t *Trainer) Write(r *Result) error {
	batch := fileutil.NewBatch()
	defer batch.Discard()

	if err := batch.Add(t.paths.Catalog, r.Catalog.Encode); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	if err := batch.Add(t.paths.Artifact, r.Artifact.Encode); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := batch.Add(t.paths.Schema, schema.ColumnsEncoder(r.Columns)); err != nil {
		return fmt.Errorf("write columns: %w", err)
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("replace serving files: %w", err)
	}
	return nil
}

// Run fits and writes; nothing is written if any fitting step fails
func (t *Trainer) Run(ctx context.Context, frame *dataset.Frame, source string) (*Report, error) {
	start := time.Now()
	t.log.Info().
		Str("source", source).
		Int("rows", frame.Len()).
		Int("columns", len(frame.Columns)).
		Msg("training started")

	report, err := t.run(ctx, frame, source)
	elapsed := time.Since(start)
	metrics.TrainingDuration.Observe(elapsed.Seconds())

	if err != nil {
		metrics.TrainingRuns.WithLabelValues("failed").Inc()
		t.log.Error().Err(err).Dur("duration", elapsed).Msg("training failed")
		return nil, err
	}

	report.Duration = elapsed
	metrics.TrainingRuns.WithLabelValues("success").Inc()
	metrics.ObserveQuality(metrics.Quality{
		MAE:          report.Metrics.MAE,
		RMSE:         report.Metrics.RMSE,
		R2:           report.Metrics.R2,
		BaselineRMSE: report.Metrics.BaselineRMSE,
	})

	t.log.Info().
		Str("artifact_id", report.ArtifactID).
		Int("rows", report.Rows).
		Int("features", report.Features).
		Int("trees", report.Trees).
		Float64("mae", report.Metrics.MAE).
		Float64("rmse", report.Metrics.RMSE).
		Float64("r2", report.Metrics.R2).
		Float64("baseline_rmse", report.Metrics.BaselineRMSE).
		Dur("duration", elapsed).
		Msg("training completed")

	return report, nil
}

func (t *Trainer) run(ctx context.Context, frame *dataset.Frame, source string) (*Report, error) {
	res, err := t.Fit(ctx, frame, source)
	if err != nil {
		return nil, err
	}
	if err := t.Write(res); err != nil {
		return nil, err
	}

	meta := res.Artifact.Meta
	return &Report{
		ArtifactID:      meta.ID,
		Source:          source,
		Rows:            frame.Len(),
		Features:        len(res.Columns),
		EncodedFeatures: res.Artifact.Pipeline.Encoder.Width(),
		CatalogEntries:  res.Catalog.Len(),
		Trees:           meta.Forest.Trees,
		Metrics:         meta.Metrics,
		Paths:           t.paths,
	}, nil
}

// RunFromLocation loads the dataset named by cfg and runs training on it
func (t *Trainer) RunFromLocation(ctx context.Context, ds config.DatasetConfig, db config.DatabaseConfig) (*Report, error) {
	frame, err := dataset.Open(ctx, ds, db)
	if err != nil {
		metrics.TrainingRuns.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("load dataset %s: %w", redact(ds.Location), err)
	}
	return t.Run(ctx, frame, redact(ds.Location))
}

func distinct(y []float64) int {
	seen := make(map[float64]struct{}, 2)
	for _, v := range y {
		seen[v] = struct{}{}
		if len(seen) >= 2 {
			break
		}
	}
	return len(seen)
}

// redact hides credentials of a postgres:// or http(s):// location
func redact(location string) string {
	if dataset.IsHTTPURL(location) {
		if u, err := url.Parse(location); err == nil {
			u.User = nil
			u.RawQuery = ""
			return u.String()
		}
	}
	if !dataset.IsPostgresURL(location) {
		return location
	}
	scheme, rest, _ := strings.Cut(location, "://")
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	return scheme + "://" + rest
}
