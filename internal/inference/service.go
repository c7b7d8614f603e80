// Package inference serves predictions from a trained artifact.
//
// A Service is built once per process and is read-only afterwards, so a single
// instance can be shared by every request handler.
package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/vivienda/internal/catalog"
	"github.com/wonny/vivienda/internal/pipeline"
	"github.com/wonny/vivienda/internal/schema"
	"github.com/wonny/vivienda/internal/training"
	"github.com/wonny/vivienda/pkg/metrics"
)

// MissingCategory fills a categorical column the caller did not supply.
// It never appears in a training vocabulary, so it encodes as all zeros.
const MissingCategory = "__missing__"

// Estimator is anything that turns request fields into a price per m²
type Estimator interface {
	Predict(ctx context.Context, fields map[string]any) (float64, error)
}

// Service holds the loaded artifact, schema and catalog
type Service struct {
	artifact     *pipeline.Artifact
	catalog      *catalog.Catalog
	artifactPath string
	log          zerolog.Logger
}

// New wraps an already loaded artifact; cat may be nil
func New(a *pipeline.Artifact, cat *catalog.Catalog, log zerolog.Logger) *Service {
	return &Service{
		artifact: a,
		catalog:  cat,
		log:      log.With().Str("component", "inference.service").Logger(),
	}
}

// Load reads the artifact, checks it against the columns file and loads the
// catalog. Every failure is a ConfigError.
func Load(paths training.Paths, log zerolog.Logger) (*Service, error) {
	columns, err := schema.ReadColumns(paths.Schema)
	if err != nil {
		return nil, &ConfigError{Path: paths.Schema, Err: err}
	}

	a, err := pipeline.Load(paths.Artifact)
	if err != nil {
		return nil, &ConfigError{Path: paths.Artifact, Err: err}
	}
	if err := a.Verify(columns); err != nil {
		return nil, &ConfigError{Path: paths.Artifact, Err: err}
	}

	cat, err := catalog.Load(paths.Catalog)
	if err != nil {
		return nil, &ConfigError{Path: paths.Catalog, Err: err}
	}

	svc := New(a, cat, log)
	svc.artifactPath = paths.Artifact
	svc.log.Info().
		Str("artifact_id", a.Meta.ID).
		Time("created_at", a.Meta.CreatedAt).
		Int("features", len(columns)).
		Int("catalog_entries", cat.Len()).
		Float64("rmse", a.Meta.Metrics.RMSE).
		Msg("artifact loaded")

	return svc, nil
}

// Schema returns a copy of the feature schema the artifact was trained on
func (s *Service) Schema() *schema.Schema {
	src := s.artifact.Pipeline.Schema
	cols := make([]schema.Column, len(src.Columns))
	copy(cols, src.Columns)
	return &schema.Schema{Target: src.Target, Columns: cols}
}

// Meta returns a copy of the artifact metadata
func (s *Service) Meta() pipeline.Meta {
	m := s.artifact.Meta
	m.FeatureImportances = append([]pipeline.FeatureImportance(nil), m.FeatureImportances...)
	return m
}

// Catalog returns the district/neighborhood catalog (nil when not loaded)
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// ArtifactPath returns the file the artifact was loaded from
func (s *Service) ArtifactPath() string {
	return s.artifactPath
}

// BuildRow builds one row with every schema column, in schema order.
// Omitted numeric fields default to 0 and omitted categorical fields to
// MissingCategory. A field the schema does not know is an InputError.
func (s *Service) BuildRow(fields map[string]any) (schema.Row, error) {
	sch := s.artifact.Pipeline.Schema

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if sch.Index(name) < 0 {
			return nil, &InputError{Field: name, Reason: "not a feature of the deployed model"}
		}
	}

	row := make(schema.Row, sch.Len())
	for i, col := range sch.Columns {
		v, ok := fields[col.Name]
		if col.Kind == schema.Categorical {
			cat := ""
			if ok {
				cat = schema.NormalizeCategory(v)
			}
			if cat == "" {
				cat = MissingCategory
			}
			row[i].Str = cat
			continue
		}

		if !ok {
			continue // 0
		}
		num, err := schema.ParseNumeric(v)
		if errors.Is(err, schema.ErrEmptyValue) {
			continue
		}
		if err != nil {
			return nil, &InputError{Field: col.Name, Value: fmt.Sprint(v), Reason: "must be a number"}
		}
		row[i].Num = num
	}

	return row, nil
}

// Unseen lists the categorical columns whose value the model never saw
func (s *Service) Unseen(row schema.Row) []string {
	enc := s.artifact.Pipeline.Encoder
	var out []string
	for _, b := range enc.Blocks {
		if b.Index < len(row) && !enc.Known(b.Column, row[b.Index].Str) {
			out = append(out, b.Column)
		}
	}
	return out
}

// PredictRow runs the pipeline on a row produced by BuildRow
func (s *Service) PredictRow(ctx context.Context, row schema.Row) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	v, err := s.artifact.Pipeline.PredictRow(row)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("predict: model returned %v", v)
	}
	return v, nil
}

// Predict builds the row from fields and predicts its price per m²
func (s *Service) Predict(ctx context.Context, fields map[string]any) (float64, error) {
	start := time.Now()
	defer func() { metrics.PredictionDuration.Observe(time.Since(start).Seconds()) }()

	row, err := s.BuildRow(fields)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues("input_error").Inc()
		return 0, err
	}

	if unseen := s.Unseen(row); len(unseen) > 0 {
		s.log.Debug().Strs("columns", unseen).Msg("unseen categories encoded as zeros")
	}

	v, err := s.PredictRow(ctx, row)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues("failed").Inc()
		return 0, err
	}

	metrics.PredictionsTotal.WithLabelValues("ok").Inc()
	return v, nil
}

// PredictBatch predicts every request; the first invalid one aborts the batch
func (s *Service) PredictBatch(ctx context.Context, batch []map[string]any) ([]float64, error) {
	out := make([]float64, len(batch))
	for i, fields := range batch {
		v, err := s.Predict(ctx, fields)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
