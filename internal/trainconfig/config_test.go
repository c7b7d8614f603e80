package trainconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "PRECIO_EUR_M2_x", cfg.Target)
	assert.Equal(t, []string{"DISTRITO_x", "BARRIO", "TIPO_VIVIENDA"}, cfg.CategoricalFeatures)
	assert.Equal(t, "_x", cfg.LeakSuffix)
	assert.Equal(t, 0.2, cfg.TestRatio)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 100, cfg.Forest.NEstimators)
	assert.True(t, cfg.Forest.Bootstrap)
	assert.Equal(t, FormField{Column: "TRANSACCIONES_x", Default: 50}, cfg.Form.Transactions)
	assert.Equal(t, 7.5, cfg.Form.Safety.Default)
	assert.Len(t, cfg.Form.Fields(), 7)

	require.NoError(t, Validate(cfg))

	params := cfg.Params()
	assert.Equal(t, int64(42), params.RandomState)
	assert.Equal(t, 0, params.MaxDepth)
	assert.Len(t, cfg.ForestOptions(), 2)
}

func TestLoadRepositoryConfig(t *testing.T) {
	// 저장소의 기본 설정 파일
	path := "../../config/training.yaml"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, data, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	def := Default()
	assert.Equal(t, def.Target, cfg.Target)
	assert.Equal(t, def.Form, cfg.Form)

	h1, err := Hash(cfg)
	require.NoError(t, err)
	h2, err := Hash(def)
	require.NoError(t, err)
	assert.Equal(t, h2, h1, "repository config must match built-in defaults")
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
target: PRECIO_EUR_M2_x
forest:
  n_estimators: 25
  bootstrap: false
  max_depth: 12
`))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Forest.NEstimators)
	assert.False(t, cfg.Forest.Bootstrap)
	assert.Equal(t, 12, cfg.Forest.MaxDepth)
	assert.Equal(t, 2, cfg.Forest.MinSamplesSplit)
	assert.Equal(t, []string{"DISTRITO_x", "BARRIO", "TIPO_VIVIENDA"}, cfg.CategoricalFeatures)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("forest:\n  n_trees: 10\n"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "training.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 7\n"), 0o644))
	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.Seed)

	require.NoError(t, os.WriteFile(path, []byte("test_ratio: 2\n"), 0o644))
	_, err = LoadOrDefault(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing target", func(c *Config) { c.Target = " " }, "target"},
		{"target as categorical", func(c *Config) { c.CategoricalFeatures = append(c.CategoricalFeatures, c.Target) }, "categorical_features"},
		{"duplicate categorical", func(c *Config) { c.CategoricalFeatures = []string{"BARRIO", "BARRIO"} }, "categorical_features"},
		{"missing district", func(c *Config) { c.DistrictColumn = "" }, "district_column"},
		{"same catalog columns", func(c *Config) { c.NeighborhoodColumn = c.DistrictColumn }, "neighborhood_column"},
		{"test ratio", func(c *Config) { c.TestRatio = 0 }, "test_ratio"},
		{"no trees", func(c *Config) { c.Forest.NEstimators = 0 }, "forest"},
		{"negative workers", func(c *Config) { c.Forest.Workers = -1 }, "forest.workers"},
		{"form column", func(c *Config) { c.Form.Safety.Column = "" }, "form.safety.column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var ve ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestHash(t *testing.T) {
	a := Default()
	b := Default()

	ha, err := Hash(a)
	require.NoError(t, err)
	assert.Len(t, ha, 64)

	b.Forest.Workers = 8
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb, "workers must not change the hash")

	b.Seed = 1
	hc, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}
