package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/vivienda/internal/api"
	"github.com/wonny/vivienda/internal/api/handlers"
	"github.com/wonny/vivienda/internal/inference"
	"github.com/wonny/vivienda/pkg/metrics"
	"github.com/wonny/vivienda/pkg/redis"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "예측 API 서버 시작",
	Long: `아티팩트를 로드하고 예측 REST API 서버를 시작합니다.

아티팩트가 없거나 현재 학습 설정과 맞지 않으면 서빙 전에 동기적으로
학습합니다 (--no-auto-train 으로 비활성화).

Endpoints:
  GET  /health                                        - Health check
  GET  /api/schema                                    - 피처 컬럼 및 폼 기본값
  GET  /api/model                                     - 아티팩트 메타데이터
  GET  /api/model/artifact                            - 아티팩트 다운로드
  GET  /api/catalog/districts                         - 구역 목록
  GET  /api/catalog/districts/{district}/neighborhoods - 동네 목록
  POST /api/predict                                   - 컬럼 이름 기반 예측
  POST /api/predict/madrid                            - UI 폼 기반 예측

Example:
  go run ./cmd/vivienda serve
  go run ./cmd/vivienda serve --port 8080 --no-auto-train`,
	RunE: runServe,
}

var (
	servePort        string
	serveNoAutoTrain bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (default: PORT)")
	serveCmd.Flags().BoolVar(&serveNoAutoTrain, "no-auto-train", false, "아티팩트가 없으면 학습하지 않고 종료")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fmt.Fprintln(cmd.OutOrStdout(), "=== vivienda API Server ===")

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	cfg, log := rt.cfg, rt.log

	// Override port if flag is set
	if servePort != "" {
		cfg.Port = servePort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 1. Load (or train) the serving files
	svc, err := inference.Bootstrap(ctx, inference.BootstrapOptions{
		Trainer:   rt.trainer,
		Dataset:   cfg.Dataset,
		Database:  cfg.Database,
		AutoTrain: cfg.AutoTrain && !serveNoAutoTrain,
	}, log.Zerolog())
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	meta := svc.Meta()
	metrics.ObserveQuality(metrics.Quality{
		MAE:          meta.Metrics.MAE,
		RMSE:         meta.Metrics.RMSE,
		R2:           meta.Metrics.R2,
		BaselineRMSE: meta.Metrics.BaselineRMSE,
	})

	// 2. Optional Redis prediction cache
	var estimator inference.Estimator = svc
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, serving without prediction cache")
	} else {
		defer rdb.Close()
		if rdb.Enabled() {
			cache := redis.NewCache(rdb, "vivienda")
			estimator = inference.NewCachedPredictor(svc, cache, cfg.Redis.CacheTTL, log.Zerolog())
			log.Info("Prediction cache enabled")
		}
	}

	// 3. Create handlers and router
	router := api.NewRouter(api.Handlers{
		Predict:    handlers.NewPredictHandler(estimator, svc, rt.tcfg, log),
		Model:      handlers.NewModelHandler(svc, rt.tcfg, log),
		Catalog:    handlers.NewCatalogHandler(svc.Catalog()),
		ArtifactID: meta.ID,
	}, log, cfg.RateLimit)

	// 4. Metrics server
	if cfg.MetricsEnabled {
		metricsServer := metrics.NewServer(":"+cfg.MetricsPort, log)
		metricsServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	// 5. Start server with graceful shutdown
	server := api.New(cfg, log, router)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	log.WithField("artifact_id", meta.ID).Info("API server started successfully")
	fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Server running on http://localhost:%s (artifact %s)\n", cfg.Port, meta.ID)
	fmt.Fprintln(cmd.OutOrStdout(), "\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
