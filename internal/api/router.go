package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/vivienda/internal/api/handlers"
	"github.com/wonny/vivienda/pkg/config"
	"github.com/wonny/vivienda/pkg/logger"
)

// Handlers groups the endpoint handlers mounted by NewRouter
type Handlers struct {
	Predict *handlers.PredictHandler
	Model   *handlers.ModelHandler
	Catalog *handlers.CatalogHandler

	// ArtifactID is reported by /health
	ArtifactID string
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, log *logger.Logger, limit config.RateLimitConfig) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(h.ArtifactID)).Methods("GET")

	// 서브라우터 사용 금지: PathPrefix 서브라우터는 메서드 불일치를 405 대신 404로 응답
	// Model endpoints
	r.HandleFunc("/api/schema", h.Model.GetSchema).Methods("GET")
	r.HandleFunc("/api/model", h.Model.GetModel).Methods("GET")
	r.HandleFunc("/api/model/artifact", h.Model.DownloadArtifact).Methods("GET")

	// Catalog endpoints
	r.HandleFunc("/api/catalog/districts", h.Catalog.GetDistricts).Methods("GET")
	r.HandleFunc("/api/catalog/districts/{district}/neighborhoods", h.Catalog.GetNeighborhoods).Methods("GET")

	// Prediction endpoints (rate limited)
	limited := rateLimitMiddleware(limit, log)
	r.Handle("/api/predict", limited(http.HandlerFunc(h.Predict.Predict))).Methods("POST")
	r.Handle("/api/predict/madrid", limited(http.HandlerFunc(h.Predict.PredictMadrid))).Methods("POST")

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(metricsMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(artifactID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"service":     "vivienda-api",
			"artifact_id": artifactID,
		})
	}
}
