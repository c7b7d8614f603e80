package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vivienda/internal/inference"
	"github.com/wonny/vivienda/internal/trainconfig"
	"github.com/wonny/vivienda/internal/training"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "서빙 파일 및 아티팩트 상태",
	Long: `서빙 파일(아티팩트, 컬럼 파일, 카탈로그)을 로드하고 메타데이터를 출력합니다.

표시 정보:
- 아티팩트 ID, 생성 시각, 데이터 출처
- 평가 지표 (MAE, RMSE, R², baseline RMSE)
- forest 통계 및 상위 피처 중요도
- 현재 학습 설정과의 일치 여부

Example:
  go run ./cmd/vivienda status`,
	RunE: runStatus,
}

var statusTop int

func init() {
	rootCmd.AddCommand(statusCmd)

	// Flags
	statusCmd.Flags().IntVar(&statusTop, "top", 10, "출력할 피처 중요도 개수")
}

func runStatus(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	svc, err := inference.Load(training.PathsFrom(rt.cfg.Paths), rt.log.Zerolog())
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	meta := svc.Meta()

	fresh := "yes"
	if hash, err := trainconfig.Hash(rt.tcfg); err != nil || hash != meta.ConfigHash {
		fresh = "no (retrain needed)"
	}

	out := cmd.OutOrStdout()
	printHeader(out, "Model status")
	printKV(out, "Artifact", meta.ID)
	printKV(out, "Created", meta.CreatedAt.Format(time.RFC3339))
	printKV(out, "Source", meta.Source)
	printKV(out, "Config", fresh)
	printKV(out, "Rows", fmt.Sprintf("train %d / test %d", meta.Metrics.TrainRows, meta.Metrics.TestRows))
	printKV(out, "MAE", fmt.Sprintf("%.2f", meta.Metrics.MAE))
	printKV(out, "RMSE", fmt.Sprintf("%.2f (baseline %.2f)", meta.Metrics.RMSE, meta.Metrics.BaselineRMSE))
	printKV(out, "R²", fmt.Sprintf("%.4f", meta.Metrics.R2))
	printKV(out, "Trees", fmt.Sprintf("%d (mean depth %.1f, max %d, %d leaves)",
		meta.Forest.Trees, meta.Forest.MeanDepth, meta.Forest.MaxDepth, meta.Forest.Leaves))
	if cat := svc.Catalog(); cat != nil {
		printKV(out, "Catalog", fmt.Sprintf("%d districts, %d pairs", len(cat.Districts()), cat.Len()))
	}
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────")

	sort.SliceStable(meta.FeatureImportances, func(i, j int) bool {
		return meta.FeatureImportances[i].Importance > meta.FeatureImportances[j].Importance
	})
	for i, fi := range meta.FeatureImportances {
		if i >= statusTop {
			break
		}
		fmt.Fprintf(out, "  %2d. %-50s %.4f\n", i+1, fi.Feature, fi.Importance)
	}
	printFooter(out)

	return nil
}
