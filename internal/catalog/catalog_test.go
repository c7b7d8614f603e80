package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vivienda/internal/dataset"
	"github.com/wonny/vivienda/internal/schema"
)

func sampleFrame(t *testing.T) *dataset.Frame {
	t.Helper()

	f, err := dataset.NewFrame(
		[]string{"DISTRITO_x", "BARRIO", "PRECIO_EUR_M2_x"},
		[][]string{
			{"Salamanca", "Recoletos", "6100"},
			{"Centro", "Sol", "5200"},
			{"Centro", "Cortes", "5000"},
			{"Centro", "Sol", "5300"},
			{" Salamanca", "Goya ", "5900"},
			{"", "Huérfano", "1"},
		},
	)
	require.NoError(t, err)
	return f
}

func TestExtract(t *testing.T) {
	c, err := Extract(sampleFrame(t), "DISTRITO_x", "BARRIO")
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{District: "Centro", Neighborhood: "Cortes"},
		{District: "Centro", Neighborhood: "Sol"},
		{District: "Salamanca", Neighborhood: "Goya"},
		{District: "Salamanca", Neighborhood: "Recoletos"},
	}, c.Entries())
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, []string{"Centro", "Salamanca"}, c.Districts())
}

func TestExtractMissingColumn(t *testing.T) {
	_, err := Extract(sampleFrame(t), "DISTRITO", "BARRIO")
	assert.ErrorIs(t, err, schema.ErrMissingColumn)

	_, err = Extract(sampleFrame(t), "DISTRITO_x", "BARRIO_y")
	assert.ErrorIs(t, err, schema.ErrMissingColumn)
}

func TestNeighborhoodsBelongToDistrict(t *testing.T) {
	c, err := Extract(sampleFrame(t), "DISTRITO_x", "BARRIO")
	require.NoError(t, err)

	for _, e := range c.Entries() {
		list := c.Neighborhoods(e.District)
		require.NotEmpty(t, list)
		assert.Contains(t, list, e.Neighborhood)
		assert.True(t, c.Contains(e.District, e.Neighborhood))
	}

	assert.Equal(t, []string{"Cortes", "Sol"}, c.Neighborhoods("Centro"))
	assert.Empty(t, c.Neighborhoods("Retiro"))
	assert.False(t, c.Contains("Centro", "Recoletos"))
}

func TestEntriesIsCopy(t *testing.T) {
	c, err := Extract(sampleFrame(t), "DISTRITO_x", "BARRIO")
	require.NoError(t, err)

	e := c.Entries()
	e[0].District = "Mutado"
	n := c.Neighborhoods("Centro")
	n[0] = "Mutado"

	assert.Equal(t, "Centro", c.Entries()[0].District)
	assert.Equal(t, "Cortes", c.Neighborhoods("Centro")[0])
}

func TestWriteAndLoad(t *testing.T) {
	c, err := Extract(sampleFrame(t), "DISTRITO_x", "BARRIO")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalogo_distritos_barrios.csv")
	require.NoError(t, c.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "DISTRITO_x,BARRIO\nCentro,Cortes\nCentro,Sol\nSalamanca,Goya\nSalamanca,Recoletos\n", string(data))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.Entries(), loaded.Entries())
	assert.Equal(t, "DISTRITO_x", loaded.DistrictColumn)
	assert.Equal(t, "BARRIO", loaded.NeighborhoodColumn)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("A,B,C\n1,2,3\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
