package trainconfig

import (
	"fmt"
	"strings"
)

// ValidationError 검증 실패 (학습 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Schema policy ===
	if strings.TrimSpace(cfg.Target) == "" {
		return ValidationError{"target", "required"}
	}

	seen := make(map[string]bool, len(cfg.CategoricalFeatures))
	for _, c := range cfg.CategoricalFeatures {
		if strings.TrimSpace(c) == "" {
			return ValidationError{"categorical_features", "empty column name"}
		}
		if c == cfg.Target {
			return ValidationError{"categorical_features", "must not contain the target"}
		}
		if seen[c] {
			return ValidationError{"categorical_features", fmt.Sprintf("duplicate column %q", c)}
		}
		seen[c] = true
	}

	// === Catalog ===
	if cfg.DistrictColumn == "" {
		return ValidationError{"district_column", "required"}
	}
	if cfg.NeighborhoodColumn == "" {
		return ValidationError{"neighborhood_column", "required"}
	}
	if cfg.DistrictColumn == cfg.NeighborhoodColumn {
		return ValidationError{"neighborhood_column", "must differ from district_column"}
	}

	// === Split ===
	if cfg.TestRatio <= 0 || cfg.TestRatio >= 1 {
		return ValidationError{"test_ratio", "must be in (0, 1)"}
	}

	// === Forest ===
	if err := cfg.Params().Validate(); err != nil {
		return ValidationError{"forest", err.Error()}
	}
	if cfg.Forest.Workers < 0 {
		return ValidationError{"forest.workers", "must be >= 0"}
	}

	// === Form ===
	for name, f := range cfg.Form.Fields() {
		if strings.TrimSpace(f.Column) == "" {
			return ValidationError{"form." + name + ".column", "required"}
		}
	}

	return nil
}
