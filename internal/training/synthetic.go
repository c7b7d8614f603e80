package training

import (
	"math/rand"
	"strconv"

	"github.com/wonny/vivienda/internal/dataset"
)

// Synthetic numeric columns, in dataset order
var SyntheticNumeric = []string{
	"RENTA_NETA_HOGAR",
	"Tasa absoluta de paro registrado (febrero)",
	"Percepción de seguridad en el barrio (media) (Robusto 1-10)",
	"SUPERFICIE_M2",
	"ANTIGUEDAD",
}

// Synthetic builds a reproducible Madrid-shaped dataset of n rows: two
// districts with one neighborhood each, two housing types, five numeric
// features and a linear price per m² plus noise. It also carries a leaky
// price column and a join-suffixed column that the schema must drop.
func Synthetic(n int, seed int64) *dataset.Frame {
	rnd := rand.New(rand.NewSource(seed))

	columns := append([]string{
		"DISTRITO_x", "BARRIO", "TIPO_VIVIENDA", "PRECIO_EUR_M2_x", "PRECIO_EUR_M2_y", "TRANSACCIONES_x",
	}, SyntheticNumeric...)

	rows := make([][]string, n)
	for i := range rows {
		district, barrio, premium := "Centro", "Sol", 0.0
		if rnd.Intn(2) == 1 {
			district, barrio, premium = "Salamanca", "Recoletos", 1500
		}
		housing, housingPremium := "SEGUNDA MANO", 0.0
		if rnd.Intn(2) == 1 {
			housing, housingPremium = "NUEVA", 300
		}

		renta := 25000 + rnd.Float64()*35000
		paro := 3 + rnd.Float64()*9
		seguridad := 4 + rnd.Float64()*5
		superficie := 40 + rnd.Float64()*110
		antiguedad := rnd.Float64() * 80

		price := 2500 + premium + housingPremium +
			0.05*renta - 80*paro + 60*seguridad - 2*superficie - 10*antiguedad +
			rnd.NormFloat64()*100

		rows[i] = []string{
			district, barrio, housing,
			fmtFloat(price), fmtFloat(price * 1.01), strconv.Itoa(rnd.Intn(200)),
			fmtFloat(renta), fmtFloat(paro), fmtFloat(seguridad), fmtFloat(superficie), fmtFloat(antiguedad),
		}
	}

	frame, err := dataset.NewFrame(columns, rows)
	if err != nil {
		panic(err) // fixed header
	}
	return frame
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
