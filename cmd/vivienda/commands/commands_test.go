package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"DISTRITO_x=Centro", "TIPO_VIVIENDA=SEGUNDA MANO", " SUPERFICIE_M2 =80", "BARRIO="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"DISTRITO_x":    "Centro",
		"TIPO_VIVIENDA": "SEGUNDA MANO",
		"SUPERFICIE_M2": "80",
		"BARRIO":        "",
	}, fields)

	_, err = parseFields([]string{"sin-igual"})
	assert.Error(t, err)

	_, err = parseFields([]string{"=5"})
	assert.Error(t, err)

	_, err = parseFields([]string{"A=1", "A=2"})
	assert.Error(t, err)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// flag variables outlive a single execution
	predictFields, predictJSON = nil, false
	catalogDistrict = ""
	trainSynthetic, trainDataset = 0, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrainPredictCatalogStatus(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ARTIFACT_PATH", filepath.Join(dir, "modelo_precio.gob"))
	t.Setenv("SCHEMA_PATH", filepath.Join(dir, "columns.json"))
	t.Setenv("CATALOG_PATH", filepath.Join(dir, "catalogo_distritos_barrios.csv"))
	t.Setenv("TRAINING_CONFIG", filepath.Join(dir, "missing.yaml"))
	t.Setenv("LOG_LEVEL", "error")

	out, err := execute(t, "train", "--synthetic", "120")
	require.NoError(t, err, out)
	assert.Contains(t, out, "RMSE")
	assert.FileExists(t, filepath.Join(dir, "modelo_precio.gob"))

	out, err = execute(t, "predict", "--json",
		"--field", "DISTRITO_x=Salamanca", "--field", "BARRIO=Recoletos", "--field", "TIPO_VIVIENDA=NUEVA")
	require.NoError(t, err, out)

	var resp struct {
		Price  float64  `json:"price_eur_m2"`
		ID     string   `json:"artifact_id"`
		Unseen []string `json:"unseen"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Greater(t, resp.Price, 0.0)
	assert.NotEmpty(t, resp.ID)
	assert.Empty(t, resp.Unseen)

	_, err = execute(t, "predict", "--field", "PISCINA=si")
	assert.Error(t, err)

	out, err = execute(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "Centro\nSalamanca\n")

	out, err = execute(t, "catalog", "--district", "Centro")
	require.NoError(t, err)
	assert.Contains(t, out, "Sol\n")

	_, err = execute(t, "catalog", "--district", "Chamberí")
	assert.Error(t, err)

	out, err = execute(t, "status")
	require.NoError(t, err, out)
	assert.Contains(t, out, resp.ID)
	assert.Contains(t, out, "Config    : yes")
}

func TestPredictWithoutArtifact(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ARTIFACT_PATH", filepath.Join(dir, "modelo_precio.gob"))
	t.Setenv("SCHEMA_PATH", filepath.Join(dir, "columns.json"))
	t.Setenv("CATALOG_PATH", filepath.Join(dir, "catalogo_distritos_barrios.csv"))
	t.Setenv("LOG_LEVEL", "error")

	_, err := execute(t, "predict", "--field", "BARRIO=Sol")
	assert.Error(t, err)
}
