package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/vivienda/internal/inference"
	"github.com/wonny/vivienda/internal/trainconfig"
	"github.com/wonny/vivienda/pkg/logger"
)

// PredictHandler handles price prediction endpoints
// ⭐ SSOT: 예측 API 핸들러는 여기서만
type PredictHandler struct {
	estimator inference.Estimator
	svc       *inference.Service
	cfg       *trainconfig.Config
	validate  *validator.Validate
	logger    *logger.Logger
}

// NewPredictHandler creates a new prediction handler.
// est may add caching on top of svc; both must serve the same artifact.
func NewPredictHandler(est inference.Estimator, svc *inference.Service, cfg *trainconfig.Config, log *logger.Logger) *PredictHandler {
	return &PredictHandler{
		estimator: est,
		svc:       svc,
		cfg:       cfg,
		validate:  newValidator(),
		logger:    log,
	}
}

// PredictRequest carries raw field values keyed by schema column name
type PredictRequest struct {
	Fields map[string]any `json:"fields"`
}

// PredictResponse is the answer of both prediction endpoints
type PredictResponse struct {
	PriceEURM2    float64  `json:"price_eur_m2"`
	ArtifactID    string   `json:"artifact_id"`
	Unseen        []string `json:"unseen,omitempty"`
	IgnoredFields []string `json:"ignored_fields,omitempty"`
}

// Predict returns the price per m² for one row of raw fields
// POST /api/predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Fields == nil {
		req.Fields = map[string]any{}
	}

	h.respondPrediction(w, r, req.Fields, nil)
}

// MadridRequest is the typed form of the Madrid prediction UI
type MadridRequest struct {
	District     string `json:"district" validate:"required"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	HousingType  string `json:"housing_type" validate:"required,oneof='NUEVA' 'SEGUNDA MANO'"`

	Transactions       *float64 `json:"transactions" validate:"omitempty,gte=0"`
	IncomePerPerson    *float64 `json:"income_per_person" validate:"omitempty,gte=0"`
	IncomePerHousehold *float64 `json:"income_per_household" validate:"omitempty,gte=0"`
	TouristHomes       *float64 `json:"tourist_homes" validate:"omitempty,gte=0"`
	Unemployment       *float64 `json:"unemployment" validate:"omitempty,gte=0,lte=100"`
	Safety             *float64 `json:"safety" validate:"omitempty,gte=1,lte=10"`
	Satisfaction       *float64 `json:"satisfaction" validate:"omitempty,gte=1,lte=10"`
}

func (req *MadridRequest) numeric() map[string]*float64 {
	return map[string]*float64{
		"transactions":         req.Transactions,
		"income_per_person":    req.IncomePerPerson,
		"income_per_household": req.IncomePerHousehold,
		"tourist_homes":        req.TouristHomes,
		"unemployment":         req.Unemployment,
		"safety":               req.Safety,
		"satisfaction":         req.Satisfaction,
	}
}

// PredictMadrid maps the typed form onto schema columns and predicts.
// Omitted numeric inputs take the form defaults; inputs whose column is not
// part of the deployed schema are reported in ignored_fields.
// POST /api/predict/madrid
func (h *PredictHandler) PredictMadrid(w http.ResponseWriter, r *http.Request) {
	var req MadridRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, validationResponse(err))
		return
	}

	sch := h.svc.Schema()
	fields := make(map[string]any)
	var ignored []string
	put := func(name, column string, value any) {
		if sch.Index(column) < 0 {
			ignored = append(ignored, name)
			return
		}
		fields[column] = value
	}

	put("district", h.cfg.DistrictColumn, req.District)
	put("neighborhood", h.cfg.NeighborhoodColumn, req.Neighborhood)
	put("housing_type", h.cfg.HousingTypeColumn, req.HousingType)

	form := h.cfg.Form.Fields()
	for name, v := range req.numeric() {
		f := form[name]
		value := f.Default
		if v != nil {
			value = *v
		}
		put(name, f.Column, value)
	}
	sort.Strings(ignored)

	h.respondPrediction(w, r, fields, ignored)
}

func (h *PredictHandler) respondPrediction(w http.ResponseWriter, r *http.Request, fields map[string]any, ignored []string) {
	price, err := h.estimator.Predict(r.Context(), fields)
	if err != nil {
		respondPredictionError(w, h.logger, err)
		return
	}

	resp := PredictResponse{
		PriceEURM2:    price,
		ArtifactID:    h.svc.Meta().ID,
		IgnoredFields: ignored,
	}
	if row, err := h.svc.BuildRow(fields); err == nil {
		resp.Unseen = h.svc.Unseen(row)
	}

	respondJSON(w, http.StatusOK, resp)
}

// newValidator reports fields by their JSON name
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationResponse(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrorResponse{Error: err.Error()}
	}

	fe := verrs[0]
	msg := fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("%s failed %s=%s validation", fe.Field(), fe.Tag(), fe.Param())
	}
	return ErrorResponse{Error: msg, Field: fe.Field()}
}
