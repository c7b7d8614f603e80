package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vivienda/internal/schema"
)

func testSchema() *schema.Schema {
	return &schema.Schema{
		Target: "PRECIO_EUR_M2_x",
		Columns: []schema.Column{
			{Name: "DISTRITO_x", Kind: schema.Categorical},
			{Name: "PARO", Kind: schema.Numeric},
			{Name: "BARRIO", Kind: schema.Categorical},
			{Name: "RENTA", Kind: schema.Numeric},
		},
	}
}

func testRows() []schema.Row {
	return []schema.Row{
		{{Str: "Salamanca"}, {Num: 5.1}, {Str: "Recoletos"}, {Num: 52000}},
		{{Str: "Centro"}, {Num: 7.5}, {Str: "Sol"}, {Num: 40000}},
		{{Str: "Centro"}, {Num: 8}, {Str: "Cortes"}, {Num: 38000}},
	}
}

func TestFit(t *testing.T) {
	enc, err := Fit(testSchema(), testRows())
	require.NoError(t, err)

	assert.Equal(t, []Block{
		{Column: "DISTRITO_x", Index: 0, Categories: []string{"Centro", "Salamanca"}},
		{Column: "BARRIO", Index: 2, Categories: []string{"Cortes", "Recoletos", "Sol"}},
	}, enc.Blocks)
	assert.Equal(t, 7, enc.Width())
	assert.Equal(t, []string{
		"DISTRITO_x=Centro", "DISTRITO_x=Salamanca",
		"BARRIO=Cortes", "BARRIO=Recoletos", "BARRIO=Sol",
		"PARO", "RENTA",
	}, enc.FeatureNames())
}

func TestFitErrors(t *testing.T) {
	_, err := Fit(testSchema(), nil)
	assert.Error(t, err)

	_, err = Fit(testSchema(), []schema.Row{{{Str: "Centro"}}})
	assert.ErrorIs(t, err, ErrRowWidth)
}

func TestTransform(t *testing.T) {
	enc, err := Fit(testSchema(), testRows())
	require.NoError(t, err)

	X, err := enc.Transform(testRows())
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 1, 0, 1, 0, 5.1, 52000}, X[0])
	assert.Equal(t, []float64{1, 0, 0, 0, 1, 7.5, 40000}, X[1])
	assert.Equal(t, []float64{1, 0, 1, 0, 0, 8, 38000}, X[2])
}

func TestTransformUnseenCategory(t *testing.T) {
	enc, err := Fit(testSchema(), testRows())
	require.NoError(t, err)

	x, err := enc.TransformRow(schema.Row{{Str: "Retiro"}, {Num: 6}, {Str: "Ibiza"}, {Num: 45000}})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 0, 0, 0, 6, 45000}, x)
	assert.False(t, enc.Known("BARRIO", "Ibiza"))
	assert.True(t, enc.Known("BARRIO", "Sol"))
	assert.False(t, enc.Known("PARO", "Sol"))
}

func TestTransformCaseSensitive(t *testing.T) {
	enc, err := Fit(testSchema(), testRows())
	require.NoError(t, err)

	x, err := enc.TransformRow(schema.Row{{Str: "centro"}, {Num: 1}, {Str: "Sol"}, {Num: 1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, x[:2])
}

func TestTransformRowWidth(t *testing.T) {
	enc, err := Fit(testSchema(), testRows())
	require.NoError(t, err)

	_, err = enc.TransformRow(schema.Row{{Str: "Centro"}})
	assert.ErrorIs(t, err, ErrRowWidth)

	_, err = enc.Transform([]schema.Row{testRows()[0], {{Str: "Centro"}}})
	assert.ErrorIs(t, err, ErrRowWidth)

	var zero Encoder
	_, err = zero.TransformRow(testRows()[0])
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestTransformDoesNotMutateEncoder(t *testing.T) {
	enc, err := Fit(testSchema(), testRows())
	require.NoError(t, err)
	before := enc.FeatureNames()

	_, err = enc.TransformRow(schema.Row{{Str: "Nuevo"}, {Num: 1}, {Str: "Nuevo"}, {Num: 1}})
	require.NoError(t, err)

	assert.Equal(t, before, enc.FeatureNames())
}
