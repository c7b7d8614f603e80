package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/vivienda/internal/catalog"
)

// CatalogHandler serves the district → neighborhood catalog
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// GetDistricts returns the sorted district list
// GET /api/catalog/districts
func (h *CatalogHandler) GetDistricts(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		respondError(w, http.StatusServiceUnavailable, "Catalog is not available")
		return
	}

	districts := h.catalog.Districts()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"districts": districts,
		"count":     len(districts),
	})
}

// GetNeighborhoods returns the neighborhoods of one district
// GET /api/catalog/districts/{district}/neighborhoods
func (h *CatalogHandler) GetNeighborhoods(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		respondError(w, http.StatusServiceUnavailable, "Catalog is not available")
		return
	}

	district := mux.Vars(r)["district"]

	neighborhoods := h.catalog.Neighborhoods(district)
	if len(neighborhoods) == 0 {
		respondError(w, http.StatusNotFound, "Unknown district")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"district":      district,
		"neighborhoods": neighborhoods,
		"count":         len(neighborhoods),
	})
}
