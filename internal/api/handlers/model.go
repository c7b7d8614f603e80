package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/wonny/vivienda/internal/inference"
	"github.com/wonny/vivienda/internal/schema"
	"github.com/wonny/vivienda/internal/trainconfig"
	"github.com/wonny/vivienda/pkg/logger"
)

// ModelHandler exposes the deployed artifact
type ModelHandler struct {
	svc    *inference.Service
	cfg    *trainconfig.Config
	logger *logger.Logger
}

// NewModelHandler creates a new model handler
func NewModelHandler(svc *inference.Service, cfg *trainconfig.Config, log *logger.Logger) *ModelHandler {
	return &ModelHandler{svc: svc, cfg: cfg, logger: log}
}

// SchemaResponse describes the inputs a prediction accepts
type SchemaResponse struct {
	Target  string                           `json:"target"`
	Columns []schema.Column                  `json:"columns"`
	Form    map[string]trainconfig.FormField `json:"form"`
}

// GetSchema returns the feature columns and the form defaults
// GET /api/schema
func (h *ModelHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	sch := h.svc.Schema()
	respondJSON(w, http.StatusOK, SchemaResponse{
		Target:  sch.Target,
		Columns: sch.Columns,
		Form:    h.cfg.Form.Fields(),
	})
}

// GetModel returns the artifact metadata
// GET /api/model
func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Meta())
}

// DownloadArtifact streams the serialized artifact
// GET /api/model/artifact
func (h *ModelHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	path := h.svc.ArtifactPath()
	if path == "" {
		respondError(w, http.StatusNotFound, "Artifact file is not available")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.logger.WithError(err).WithField("path", path).Error("Failed to open artifact")
		respondError(w, http.StatusNotFound, "Artifact file is not available")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read artifact")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}
