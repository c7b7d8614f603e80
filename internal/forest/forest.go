// Package forest implements a random forest regressor: bootstrap resampled
// CART trees with random feature subsets per split, averaged at prediction.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotFitted is returned by Predict on an untrained forest
	ErrNotFitted = errors.New("forest: not fitted")
	// ErrFeatureCount is returned when a vector has the wrong width
	ErrFeatureCount = errors.New("forest: feature count mismatch")
	// ErrMalformedTree is returned by Validate for nodes that cannot be walked
	ErrMalformedTree = errors.New("forest: malformed tree")
)

// AllFeatures as MaxFeatures examines every feature at each split
const AllFeatures = -1

// Params are the hyperparameters recorded with a trained forest
type Params struct {
	NEstimators     int   `json:"n_estimators"`
	MaxDepth        int   `json:"max_depth"` // 0 = unbounded
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features"` // 0 = max(1, p/3), -1 = p
	Bootstrap       bool  `json:"bootstrap"`
	RandomState     int64 `json:"random_state"`
}

// Validate rejects hyperparameters that cannot grow a tree
func (p Params) Validate() error {
	switch {
	case p.NEstimators < 1:
		return fmt.Errorf("forest: n_estimators must be >= 1, got %d", p.NEstimators)
	case p.MaxDepth < 0:
		return fmt.Errorf("forest: max_depth must be >= 0, got %d", p.MaxDepth)
	case p.MinSamplesSplit < 2:
		return fmt.Errorf("forest: min_samples_split must be >= 2, got %d", p.MinSamplesSplit)
	case p.MinSamplesLeaf < 1:
		return fmt.Errorf("forest: min_samples_leaf must be >= 1, got %d", p.MinSamplesLeaf)
	case p.MaxFeatures < AllFeatures:
		return fmt.Errorf("forest: max_features must be >= -1, got %d", p.MaxFeatures)
	}
	return nil
}

// Forest is a trained (or untrained) random forest regressor
type Forest struct {
	Params    Params
	Trees     []*Tree
	NFeatures int

	workers int
}

// Option functional config for Forest
type Option func(*Forest)

func WithNEstimators(n int) Option      { return func(f *Forest) { f.Params.NEstimators = n } }
func WithMaxDepth(d int) Option         { return func(f *Forest) { f.Params.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option  { return func(f *Forest) { f.Params.MinSamplesSplit = n } }
func WithMinSamplesLeaf(n int) Option   { return func(f *Forest) { f.Params.MinSamplesLeaf = n } }
func WithBootstrap(b bool) Option       { return func(f *Forest) { f.Params.Bootstrap = b } }
func WithRandomState(seed int64) Option { return func(f *Forest) { f.Params.RandomState = seed } }

// WithMaxFeatures sets the features examined per split. 0 samples max(1, p/3),
// which differs from scikit-learn's RandomForestRegressor default ("auto",
// now 1.0) of examining every feature; AllFeatures gives that behaviour.
func WithMaxFeatures(k int) Option { return func(f *Forest) { f.Params.MaxFeatures = k } }

// WithWorkers bounds the number of trees fit concurrently; 0 uses GOMAXPROCS
func WithWorkers(n int) Option { return func(f *Forest) { f.workers = n } }

// WithParams replaces every hyperparameter at once
func WithParams(p Params) Option { return func(f *Forest) { f.Params = p } }

// New returns an untrained forest: 100 unbounded trees, seed 42
func New(opts ...Option) *Forest {
	f := &Forest{
		Params: Params{
			NEstimators:     100,
			MaxDepth:        0,
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
			MaxFeatures:     0,
			Bootstrap:       true,
			RandomState:     42,
		},
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fit grows NEstimators trees. Tree i draws its bootstrap sample and split
// features from a source seeded with RandomState+i, so the result does not
// depend on worker scheduling.
func (f *Forest) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if err := f.Params.Validate(); err != nil {
		return err
	}
	n := len(X)
	if n == 0 {
		return errors.New("forest: empty X")
	}
	if len(y) != n {
		return fmt.Errorf("forest: X has %d rows, y has %d", n, len(y))
	}
	p := len(X[0])
	if p == 0 {
		return errors.New("forest: X has no features")
	}
	for i := range X {
		if len(X[i]) != p {
			return fmt.Errorf("%w: row %d has %d, want %d", ErrFeatureCount, i, len(X[i]), p)
		}
	}

	features := f.Params.MaxFeatures
	switch features {
	case 0:
		features = max(1, p/3)
	case AllFeatures:
		features = p
	}
	features = min(features, p)

	workers := f.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]*Tree, f.Params.NEstimators)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range trees {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rnd := rand.New(rand.NewSource(f.Params.RandomState + int64(i)))

			idx := make([]int, n)
			for j := range idx {
				if f.Params.Bootstrap {
					idx[j] = rnd.Intn(n)
				} else {
					idx[j] = j
				}
			}

			trees[i] = fitTree(X, y, idx, f.Params, features, rnd)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("forest: fit: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("forest: fit: %w", err)
	}

	f.Trees = trees
	f.NFeatures = p
	return nil
}

// PredictOne averages the tree outputs for one feature vector
func (f *Forest) PredictOne(x []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != f.NFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(x), f.NFeatures)
	}

	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees)), nil
}

// Predict returns one estimate per row
func (f *Forest) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, x := range X {
		v, err := f.PredictOne(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Validate checks every tree against NFeatures; a valid forest cannot panic or
// loop in Predict
func (f *Forest) Validate() error {
	if f.NFeatures < 1 || len(f.Trees) == 0 {
		return ErrNotFitted
	}
	for i, t := range f.Trees {
		if t == nil {
			return fmt.Errorf("%w: tree %d is nil", ErrMalformedTree, i)
		}
		if err := t.validate(f.NFeatures); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

// FeatureImportances returns the mean of each tree's normalized squared error
// decrease per feature; the result sums to 1 unless no tree ever split
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, f.NFeatures)
	if len(f.Trees) == 0 {
		return out
	}

	for _, t := range f.Trees {
		var total float64
		for _, v := range t.Importances {
			total += v
		}
		if total == 0 {
			continue
		}
		for j, v := range t.Importances {
			out[j] += v / total
		}
	}

	var total float64
	for _, v := range out {
		total += v
	}
	if total > 0 && !math.IsInf(total, 0) {
		for j := range out {
			out[j] /= total
		}
	}
	return out
}

// Stats summarizes the grown trees
type Stats struct {
	Trees     int     `json:"trees"`
	MeanDepth float64 `json:"mean_depth"`
	MaxDepth  int     `json:"max_depth"`
	Leaves    int     `json:"leaves"`
}

// Stats reports tree counts and depths
func (f *Forest) Stats() Stats {
	s := Stats{Trees: len(f.Trees)}
	if s.Trees == 0 {
		return s
	}
	var depth int
	for _, t := range f.Trees {
		depth += t.Depth
		s.MaxDepth = max(s.MaxDepth, t.Depth)
		s.Leaves += t.Leaves()
	}
	s.MeanDepth = float64(depth) / float64(s.Trees)
	return s
}
