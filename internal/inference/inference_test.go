package inference

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vivienda/internal/pipeline"
	"github.com/wonny/vivienda/internal/schema"
	"github.com/wonny/vivienda/internal/trainconfig"
	"github.com/wonny/vivienda/internal/training"
	"github.com/wonny/vivienda/pkg/config"
	"github.com/wonny/vivienda/pkg/redis"
)

const (
	paroColumn      = "Tasa absoluta de paro registrado (febrero)"
	seguridadColumn = "Percepción de seguridad en el barrio (media) (Robusto 1-10)"
)

func newTrainer(t *testing.T) *training.Trainer {
	t.Helper()

	dir := t.TempDir()
	cfg := trainconfig.Default()
	cfg.Forest.NEstimators = 20

	return training.NewTrainer(cfg, training.Paths{
		Artifact: filepath.Join(dir, "modelo_precio.gob"),
		Schema:   filepath.Join(dir, "columns.json"),
		Catalog:  filepath.Join(dir, "catalogo_distritos_barrios.csv"),
	}, zerolog.Nop())
}

func trainedService(t *testing.T) (*Service, *training.Trainer) {
	t.Helper()

	tr := newTrainer(t)
	_, err := tr.Run(context.Background(), training.Synthetic(100, 1), "synthetic")
	require.NoError(t, err)

	svc, err := Load(tr.Paths(), zerolog.Nop())
	require.NoError(t, err)
	return svc, tr
}

// defaultFields are the form values of the prediction UI
func defaultFields() map[string]any {
	return map[string]any{
		"DISTRITO_x":       "Centro",
		"BARRIO":           "Sol",
		"TIPO_VIVIENDA":    "NUEVA",
		"RENTA_NETA_HOGAR": 40000,
		paroColumn:         7.0,
		seguridadColumn:    7.5,
		"SUPERFICIE_M2":    80,
		"ANTIGUEDAD":       30,
	}
}

func TestLoad(t *testing.T) {
	svc, tr := trainedService(t)

	s := svc.Schema()
	assert.Equal(t, "PRECIO_EUR_M2_x", s.Target)
	assert.Len(t, s.Columns, 8)
	assert.Equal(t, tr.Paths().Artifact, svc.ArtifactPath())
	assert.NotEmpty(t, svc.Meta().ID)
	assert.Equal(t, []string{"Centro", "Salamanca"}, svc.Catalog().Districts())

	// 복사본 수정은 서비스에 영향 없음
	s.Columns[0].Name = "changed"
	assert.Equal(t, "DISTRITO_x", svc.Schema().Columns[0].Name)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing files", func(t *testing.T) {
		tr := newTrainer(t)
		_, err := Load(tr.Paths(), zerolog.Nop())

		require.True(t, IsConfigError(err))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("corrupt artifact", func(t *testing.T) {
		_, tr := trainedService(t)
		require.NoError(t, os.WriteFile(tr.Paths().Artifact, []byte("garbage"), 0o644))

		_, err := Load(tr.Paths(), zerolog.Nop())
		require.True(t, IsConfigError(err))
		assert.ErrorIs(t, err, pipeline.ErrArtifactCorrupt)
	})

	t.Run("schema mismatch", func(t *testing.T) {
		svc, tr := trainedService(t)
		names := svc.Schema().Names()
		names[0], names[1] = names[1], names[0]
		require.NoError(t, schema.WriteColumns(tr.Paths().Schema, names))

		_, err := Load(tr.Paths(), zerolog.Nop())
		require.True(t, IsConfigError(err))
		assert.ErrorIs(t, err, pipeline.ErrSchemaMismatch)
		assert.False(t, IsInputError(err))
	})
}

func TestBuildRow(t *testing.T) {
	svc, _ := trainedService(t)
	s := svc.Schema()

	row, err := svc.BuildRow(defaultFields())
	require.NoError(t, err)
	require.Len(t, row, len(s.Columns))
	assert.Equal(t, "Centro", row[0].Str)
	assert.Equal(t, 40000.0, row[s.Index("RENTA_NETA_HOGAR")].Num)

	t.Run("omitted fields take defaults", func(t *testing.T) {
		row, err := svc.BuildRow(map[string]any{"DISTRITO_x": "Centro"})
		require.NoError(t, err)
		require.Len(t, row, len(s.Columns))

		assert.Equal(t, MissingCategory, row[s.Index("BARRIO")].Str)
		assert.Equal(t, MissingCategory, row[s.Index("TIPO_VIVIENDA")].Str)
		for _, name := range s.Numeric() {
			assert.Equal(t, 0.0, row[s.Index(name)].Num, name)
		}
	})

	t.Run("blank values count as omitted", func(t *testing.T) {
		row, err := svc.BuildRow(map[string]any{"BARRIO": "  ", "ANTIGUEDAD": ""})
		require.NoError(t, err)
		assert.Equal(t, MissingCategory, row[s.Index("BARRIO")].Str)
		assert.Equal(t, 0.0, row[s.Index("ANTIGUEDAD")].Num)
	})

	t.Run("text numbers", func(t *testing.T) {
		row, err := svc.BuildRow(map[string]any{paroColumn: "7,5"})
		require.NoError(t, err)
		assert.Equal(t, 7.5, row[s.Index(paroColumn)].Num)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := svc.BuildRow(map[string]any{"PISCINA": true})
		var ie *InputError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "PISCINA", ie.Field)
	})

	t.Run("non numeric value", func(t *testing.T) {
		_, err := svc.BuildRow(map[string]any{"SUPERFICIE_M2": "grande"})
		var ie *InputError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "SUPERFICIE_M2", ie.Field)
		assert.Equal(t, "grande", ie.Value)
		assert.Contains(t, ie.Error(), "must be a number")
	})

	t.Run("leaky columns are not features", func(t *testing.T) {
		_, err := svc.BuildRow(map[string]any{"PRECIO_EUR_M2_y": 5000})
		assert.True(t, IsInputError(err))
	})
}

func TestPredictDefaults(t *testing.T) {
	svc, _ := trainedService(t)
	ctx := context.Background()

	v, err := svc.Predict(ctx, defaultFields())
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	assert.GreaterOrEqual(t, v, 0.0)

	again, err := svc.Predict(ctx, defaultFields())
	require.NoError(t, err)
	assert.Equal(t, v, again)
}

func TestPredictOmittedNumeric(t *testing.T) {
	svc, _ := trainedService(t)

	fields := defaultFields()
	delete(fields, "ANTIGUEDAD")

	v, err := svc.Predict(context.Background(), fields)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v))
}

func TestPredictUnseenNeighborhood(t *testing.T) {
	svc, _ := trainedService(t)

	fields := defaultFields()
	fields["BARRIO"] = "Malasaña"

	row, err := svc.BuildRow(fields)
	require.NoError(t, err)
	assert.Equal(t, []string{"BARRIO"}, svc.Unseen(row))

	v, err := svc.Predict(context.Background(), fields)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v))
}

func TestPredictConcurrent(t *testing.T) {
	svc, _ := trainedService(t)
	want, err := svc.Predict(context.Background(), defaultFields())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]float64, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = svc.Predict(context.Background(), defaultFields())
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestPredictCanceled(t *testing.T) {
	svc, _ := trainedService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Predict(ctx, defaultFields())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictBatch(t *testing.T) {
	svc, _ := trainedService(t)

	salamanca := defaultFields()
	salamanca["DISTRITO_x"], salamanca["BARRIO"] = "Salamanca", "Recoletos"

	out, err := svc.PredictBatch(context.Background(), []map[string]any{defaultFields(), salamanca})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Greater(t, out[1], out[0])

	_, err = svc.PredictBatch(context.Background(), []map[string]any{defaultFields(), {"ANTIGUEDAD": "vieja"}})
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.True(t, strings.HasPrefix(err.Error(), "request 1"))
}

func writeSyntheticCSV(t *testing.T, n int) string {
	t.Helper()

	frame := training.Synthetic(n, 9)
	var b strings.Builder
	b.WriteString(strings.Join(frame.Columns, ",") + "\n")
	for _, row := range frame.Rows {
		b.WriteString(strings.Join(row, ",") + "\n")
	}

	path := filepath.Join(t.TempDir(), "vivienda.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("auto-train on missing artifact", func(t *testing.T) {
		tr := newTrainer(t)
		svc, err := Bootstrap(ctx, BootstrapOptions{
			Trainer:   tr,
			Dataset:   config.DatasetConfig{Location: writeSyntheticCSV(t, 80)},
			AutoTrain: true,
		}, zerolog.Nop())
		require.NoError(t, err)
		assert.FileExists(t, tr.Paths().Artifact)

		_, err = svc.Predict(ctx, defaultFields())
		assert.NoError(t, err)
	})

	t.Run("missing artifact without auto-train", func(t *testing.T) {
		_, err := Bootstrap(ctx, BootstrapOptions{Trainer: newTrainer(t)}, zerolog.Nop())
		assert.True(t, IsConfigError(err))
	})

	t.Run("training failure surfaces", func(t *testing.T) {
		_, err := Bootstrap(ctx, BootstrapOptions{
			Trainer:   newTrainer(t),
			Dataset:   config.DatasetConfig{Location: filepath.Join(t.TempDir(), "none.csv")},
			AutoTrain: true,
		}, zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auto-train")
		assert.False(t, IsConfigError(err))
	})

	t.Run("fresh artifact is reused", func(t *testing.T) {
		svc, tr := trainedService(t)
		again, err := Bootstrap(ctx, BootstrapOptions{Trainer: tr, AutoTrain: true}, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, svc.Meta().ID, again.Meta().ID)
	})

	t.Run("stale artifact is retrained", func(t *testing.T) {
		svc, tr := trainedService(t)
		tr.Config().Forest.NEstimators = 10

		_, err := Bootstrap(ctx, BootstrapOptions{Trainer: tr}, zerolog.Nop())
		assert.ErrorIs(t, err, ErrStaleArtifact)

		fresh, err := Bootstrap(ctx, BootstrapOptions{
			Trainer:   tr,
			Dataset:   config.DatasetConfig{Location: writeSyntheticCSV(t, 80)},
			AutoTrain: true,
		}, zerolog.Nop())
		require.NoError(t, err)
		assert.NotEqual(t, svc.Meta().ID, fresh.Meta().ID)
		assert.Equal(t, 10, fresh.Meta().Params.NEstimators)
	})

	t.Run("needs a trainer", func(t *testing.T) {
		_, err := Bootstrap(ctx, BootstrapOptions{}, zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestCachedPredictor(t *testing.T) {
	svc, _ := trainedService(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cached := NewCachedPredictor(svc, redis.NewCache(redis.Wrap(rdb), "vivienda"), 0, zerolog.Nop())

	want, err := svc.Predict(ctx, defaultFields())
	require.NoError(t, err)

	first, err := cached.Predict(ctx, defaultFields())
	require.NoError(t, err)
	assert.Equal(t, want, first)
	assert.Len(t, mr.Keys(), 1)
	assert.Contains(t, mr.Keys()[0], svc.Meta().ID)

	second, err := cached.Predict(ctx, defaultFields())
	require.NoError(t, err)
	assert.Equal(t, want, second)

	_, err = cached.Predict(ctx, map[string]any{"PISCINA": 1})
	assert.True(t, IsInputError(err))
}

func TestCachedPredictorRedisDown(t *testing.T) {
	svc, _ := trainedService(t)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	cached := NewCachedPredictor(svc, redis.NewCache(redis.Wrap(rdb), "vivienda"), 0, zerolog.Nop())
	v, err := cached.Predict(context.Background(), defaultFields())
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v))
}
