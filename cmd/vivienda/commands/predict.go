package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/vivienda/internal/inference"
	"github.com/wonny/vivienda/internal/training"
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "단건 가격 예측",
	Long: `저장된 아티팩트로 한 행의 €/m² 가격을 예측합니다.

--field 는 스키마 컬럼 이름=값 형식이며 여러 번 지정할 수 있습니다.
생략된 숫자 컬럼은 0, 생략된 범주 컬럼은 누락 값으로 처리됩니다.

Example:
  go run ./cmd/vivienda predict --field DISTRITO_x=Centro --field BARRIO=Sol --field TIPO_VIVIENDA=NUEVA
  go run ./cmd/vivienda predict --field "TIPO_VIVIENDA=SEGUNDA MANO" --json`,
	RunE: runPredict,
}

var (
	predictFields []string
	predictJSON   bool
)

func init() {
	rootCmd.AddCommand(predictCmd)

	// Flags
	predictCmd.Flags().StringArrayVar(&predictFields, "field", nil, "컬럼=값 (반복 가능)")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "JSON 출력")
}

// parseFields turns repeated k=v flags into prediction fields
func parseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q: want column=value", pair)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("duplicate --field %q", key)
		}
		fields[key] = value
	}
	return fields, nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	fields, err := parseFields(predictFields)
	if err != nil {
		return err
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	svc, err := inference.Load(training.PathsFrom(rt.cfg.Paths), rt.log.Zerolog())
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	row, err := svc.BuildRow(fields)
	if err != nil {
		return err
	}
	price, err := svc.PredictRow(cmd.Context(), row)
	if err != nil {
		return err
	}
	unseen := svc.Unseen(row)

	out := cmd.OutOrStdout()
	if predictJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"price_eur_m2": price,
			"artifact_id":  svc.Meta().ID,
			"unseen":       unseen,
		})
	}

	fmt.Fprintf(out, "%.2f €/m²\n", price)
	if len(unseen) > 0 {
		fmt.Fprintf(out, "⚠️  unseen categories: %s\n", strings.Join(unseen, ", "))
	}
	return nil
}
