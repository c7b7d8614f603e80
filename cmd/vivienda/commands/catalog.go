package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/vivienda/internal/catalog"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "구역/동네 카탈로그 조회",
	Long: `학습 시 저장된 카탈로그 파일을 읽어 구역 또는 동네 목록을 출력합니다.

Example:
  go run ./cmd/vivienda catalog
  go run ./cmd/vivienda catalog --district Centro`,
	RunE: runCatalog,
}

var catalogDistrict string

func init() {
	rootCmd.AddCommand(catalogCmd)

	// Flags
	catalogCmd.Flags().StringVar(&catalogDistrict, "district", "", "해당 구역의 동네만 출력")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}

	cat, err := catalog.Load(rt.cfg.Paths.Catalog)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	if catalogDistrict == "" {
		for _, d := range cat.Districts() {
			fmt.Fprintln(out, d)
		}
		return nil
	}

	neighborhoods := cat.Neighborhoods(catalogDistrict)
	if len(neighborhoods) == 0 {
		return fmt.Errorf("unknown district %q", catalogDistrict)
	}
	for _, n := range neighborhoods {
		fmt.Fprintln(out, n)
	}
	return nil
}
