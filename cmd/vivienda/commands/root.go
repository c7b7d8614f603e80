package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/vivienda/internal/trainconfig"
	"github.com/wonny/vivienda/internal/training"
	"github.com/wonny/vivienda/pkg/config"
	"github.com/wonny/vivienda/pkg/logger"
)

var (
	// Global flags
	trainingConfig string
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vivienda",
	Short: "Madrid 주택 가격 (€/m²) 추정 서비스",
	Long: `vivienda Unified CLI

Madrid 주택 데이터셋으로 random forest 회귀 모델을 학습하고,
아티팩트를 로드해 구역/동네/주택 유형별 €/m² 가격을 예측합니다.

Usage:
  go run ./cmd/vivienda [command]

Examples:
  go run ./cmd/vivienda train
  go run ./cmd/vivienda serve --port 8089
  go run ./cmd/vivienda predict --field DISTRITO_x=Centro --field BARRIO=Sol
  go run ./cmd/vivienda catalog --district Centro
  go run ./cmd/vivienda scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Ctrl+C / SIGTERM cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&trainingConfig, "training-config", "", "training YAML (default: TRAINING_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// runtime holds what every command needs
type runtime struct {
	cfg     *config.Config
	log     *logger.Logger
	tcfg    *trainconfig.Config
	trainer *training.Trainer
}

// loadRuntime reads the environment and training config and builds the trainer
func loadRuntime() (*runtime, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if trainingConfig != "" {
		cfg.Paths.TrainingConfig = trainingConfig
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load training config (missing file = defaults)
	tcfg, err := trainconfig.LoadOrDefault(cfg.Paths.TrainingConfig)
	if err != nil {
		return nil, fmt.Errorf("load training config: %w", err)
	}

	trainer := training.NewTrainer(tcfg, training.PathsFrom(cfg.Paths), log.Zerolog())

	return &runtime{cfg: cfg, log: log, tcfg: tcfg, trainer: trainer}, nil
}
