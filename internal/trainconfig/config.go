// Package trainconfig holds the training policy and forest hyperparameters.
package trainconfig

import (
	"github.com/wonny/vivienda/internal/forest"
	"github.com/wonny/vivienda/internal/schema"
)

// Config는 학습 파이프라인 전체 설정
type Config struct {
	Target              string   `yaml:"target" json:"target" default:"PRECIO_EUR_M2_x"`
	CategoricalFeatures []string `yaml:"categorical_features" json:"categorical_features" default:"[\"DISTRITO_x\",\"BARRIO\",\"TIPO_VIVIENDA\"]"`
	LeakSuffix          string   `yaml:"leak_suffix" json:"leak_suffix" default:"_x"`

	DistrictColumn     string `yaml:"district_column" json:"district_column" default:"DISTRITO_x"`
	NeighborhoodColumn string `yaml:"neighborhood_column" json:"neighborhood_column" default:"BARRIO"`
	HousingTypeColumn  string `yaml:"housing_type_column" json:"housing_type_column" default:"TIPO_VIVIENDA"`

	TestRatio float64 `yaml:"test_ratio" json:"test_ratio" default:"0.2"`
	Seed      int64   `yaml:"seed" json:"seed" default:"42"`

	Forest Forest `yaml:"forest" json:"forest"`
	Form   Form   `yaml:"form" json:"form"`
}

// Forest hyperparameters
type Forest struct {
	NEstimators     int  `yaml:"n_estimators" json:"n_estimators" default:"100"`
	MaxDepth        int  `yaml:"max_depth" json:"max_depth" default:"0"` // 0 = 무제한
	MinSamplesSplit int  `yaml:"min_samples_split" json:"min_samples_split" default:"2"`
	MinSamplesLeaf  int  `yaml:"min_samples_leaf" json:"min_samples_leaf" default:"1"`
	MaxFeatures     int  `yaml:"max_features" json:"max_features" default:"0"` // 0 = max(1, p/3), -1 = 전체
	Bootstrap       bool `yaml:"bootstrap" json:"bootstrap" default:"true"`

	// 결과에 영향 없음: 해시에서 제외
	Workers int `yaml:"workers" json:"-" default:"0"`
}

// Form maps the typed prediction form onto dataset columns.
// A field whose column is not in the trained schema is ignored.
type Form struct {
	Transactions       FormField `yaml:"transactions" json:"transactions" default:"{\"column\":\"TRANSACCIONES_x\",\"default\":50}"`
	IncomePerPerson    FormField `yaml:"income_per_person" json:"income_per_person" default:"{\"column\":\"RENTA_NETA_PERSONA_x\",\"default\":20000}"`
	IncomePerHousehold FormField `yaml:"income_per_household" json:"income_per_household" default:"{\"column\":\"RENTA_NETA_HOGAR_x\",\"default\":40000}"`
	TouristHomes       FormField `yaml:"tourist_homes" json:"tourist_homes" default:"{\"column\":\"VIVIENDAS_TURISTICAS_REAL_x\",\"default\":100}"`
	Unemployment       FormField `yaml:"unemployment" json:"unemployment" default:"{\"column\":\"Tasa absoluta de paro registrado (febrero)\",\"default\":7.0}"`
	Safety             FormField `yaml:"safety" json:"safety" default:"{\"column\":\"Percepción de seguridad en el barrio (media) (Robusto 1-10)\",\"default\":7.5}"`
	Satisfaction       FormField `yaml:"satisfaction" json:"satisfaction" default:"{\"column\":\"Satisfacción de la vida en el barrio (media) (Robusto 1-10)\",\"default\":7.0}"`
}

// FormField is one numeric input of the form
type FormField struct {
	Column  string  `yaml:"column" json:"column"`
	Default float64 `yaml:"default" json:"default"`
}

// Fields returns the form inputs keyed by their request name
func (f Form) Fields() map[string]FormField {
	return map[string]FormField{
		"transactions":         f.Transactions,
		"income_per_person":    f.IncomePerPerson,
		"income_per_household": f.IncomePerHousehold,
		"tourist_homes":        f.TouristHomes,
		"unemployment":         f.Unemployment,
		"safety":               f.Safety,
		"satisfaction":         f.Satisfaction,
	}
}

// Policy returns the schema derivation policy
func (c *Config) Policy() schema.Policy {
	return schema.Policy{
		Target:      c.Target,
		Categorical: c.CategoricalFeatures,
		LeakSuffix:  c.LeakSuffix,
	}
}

// Params returns the forest hyperparameters seeded with Seed
func (c *Config) Params() forest.Params {
	return forest.Params{
		NEstimators:     c.Forest.NEstimators,
		MaxDepth:        c.Forest.MaxDepth,
		MinSamplesSplit: c.Forest.MinSamplesSplit,
		MinSamplesLeaf:  c.Forest.MinSamplesLeaf,
		MaxFeatures:     c.Forest.MaxFeatures,
		Bootstrap:       c.Forest.Bootstrap,
		RandomState:     c.Seed,
	}
}

// ForestOptions returns the options building the configured forest
func (c *Config) ForestOptions() []forest.Option {
	return []forest.Option{
		forest.WithParams(c.Params()),
		forest.WithWorkers(c.Forest.Workers),
	}
}
