// Package pipeline binds the fitted encoder and forest into one predict unit
// and persists it as a versioned artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/vivienda/internal/forest"
	"github.com/wonny/vivienda/internal/preprocess"
	"github.com/wonny/vivienda/internal/schema"
)

// Pipeline is the fitted transformer plus model for one schema version
type Pipeline struct {
	Schema  *schema.Schema
	Encoder *preprocess.Encoder
	Model   *forest.Forest
}

// Fit learns the encoder on rows, then grows the forest on the encoded matrix
func Fit(ctx context.Context, s *schema.Schema, rows []schema.Row, y []float64, opts ...forest.Option) (*Pipeline, error) {
	if len(rows) != len(y) {
		return nil, fmt.Errorf("pipeline: %d rows but %d targets", len(rows), len(y))
	}

	enc, err := preprocess.Fit(s, rows)
	if err != nil {
		return nil, fmt.Errorf("fit encoder: %w", err)
	}

	X, err := enc.Transform(rows)
	if err != nil {
		return nil, fmt.Errorf("encode training rows: %w", err)
	}

	model := forest.New(opts...)
	if err := model.Fit(ctx, X, y); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}

	return &Pipeline{Schema: s, Encoder: enc, Model: model}, nil
}

// Predict returns one estimate per row
func (p *Pipeline) Predict(rows []schema.Row) ([]float64, error) {
	X, err := p.Encoder.Transform(rows)
	if err != nil {
		return nil, err
	}
	return p.Model.Predict(X)
}

// PredictRow returns the estimate for one row
func (p *Pipeline) PredictRow(row schema.Row) (float64, error) {
	x, err := p.Encoder.TransformRow(row)
	if err != nil {
		return 0, err
	}
	return p.Model.PredictOne(x)
}

// FeatureImportance is the share of squared error reduction of one encoded feature
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Importances pairs the forest importances with encoded feature names
func (p *Pipeline) Importances() []FeatureImportance {
	names := p.Encoder.FeatureNames()
	values := p.Model.FeatureImportances()

	out := make([]FeatureImportance, 0, len(names))
	for i, name := range names {
		if i < len(values) {
			out = append(out, FeatureImportance{Feature: name, Importance: values[i]})
		}
	}
	return out
}

func (p *Pipeline) validate() error {
	if p == nil || p.Schema == nil || p.Encoder == nil || p.Model == nil {
		return errors.New("pipeline is incomplete")
	}
	if p.Encoder.Columns != p.Schema.Len() {
		return fmt.Errorf("encoder width %d does not match schema width %d", p.Encoder.Columns, p.Schema.Len())
	}
	if p.Model.NFeatures != p.Encoder.Width() || len(p.Model.Trees) == 0 {
		return fmt.Errorf("model expects %d features, encoder produces %d", p.Model.NFeatures, p.Encoder.Width())
	}
	if err := p.Model.Validate(); err != nil {
		return err
	}
	return nil
}
