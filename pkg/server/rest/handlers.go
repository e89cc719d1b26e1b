package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/danastri/streetlab/pkg/datastructure"
	"github.com/danastri/streetlab/pkg/routing"
	"github.com/danastri/streetlab/pkg/server/rest/service"
	"github.com/danastri/streetlab/pkg/simulator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type AnalysisService interface {
	Route(ctx context.Context, homeLat, homeLon, workLat, workLon float64, weightKey string) (service.RouteResult, error)
	SimulateTrips(ctx context.Context, odPairs []simulator.ODPair, weightKey string) (simulator.Summary, error)
	PerturbationAnalysis(ctx context.Context, odPairs []simulator.ODPair, weightKey string,
		fraction float64, seed uint64) (service.PerturbationReport, error)
	Accessibility(ctx context.Context, category string, pois []datastructure.Coordinate, maxItems int,
		maxDistance float64, weightKey string, decayName string, countCap int) (service.AccessibilityResult, error)
}

type AnalysisHandler struct {
	svc AnalysisService
	m   *Metrics
}

func AnalysisRouter(r *chi.Mux, svc AnalysisService, m *Metrics) {
	handler := &AnalysisHandler{svc, m}

	r.Group(func(r chi.Router) {
		r.Route("/api/analysis", func(r chi.Router) {
			r.Post("/route", handler.Route)
			r.Post("/trips", handler.SimulateTrips)
			r.Post("/perturbation", handler.Perturbation)
			r.Post("/accessibility", handler.Accessibility)
		})
	})
}

type Coord struct {
	Lat float64 `json:"lat" validate:"required,lt=90,gt=-90"`
	Lon float64 `json:"lon" validate:"required,lt=180,gt=-180"`
}

type RouteRequest struct {
	Home      Coord  `json:"home" validate:"required"`
	Work      Coord  `json:"work" validate:"required"`
	WeightKey string `json:"weight_key" validate:"omitempty,oneof=length travel_time"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	if s.WeightKey == "" {
		s.WeightKey = datastructure.WeightLength
	}
	return nil
}

type RouteResponse struct {
	Path       []Coord `json:"path"`
	Polyline   string  `json:"polyline"`
	Dist       float64 `json:"distance"`
	Efficiency float64 `json:"efficiency"`
}

func RenderRouteResponse(res service.RouteResult) *RouteResponse {
	path := make([]Coord, 0, len(res.Route))
	for _, c := range res.Route {
		path = append(path, Coord{Lat: c.Lat, Lon: c.Lon})
	}
	return &RouteResponse{
		Path:       path,
		Polyline:   res.Polyline,
		Dist:       res.Dist,
		Efficiency: res.Efficiency,
	}
}

func (h *AnalysisHandler) Route(w http.ResponseWriter, r *http.Request) {
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, data) {
		return
	}

	res, err := h.svc.Route(r.Context(), data.Home.Lat, data.Home.Lon, data.Work.Lat, data.Work.Lon, data.WeightKey)
	if err != nil {
		if errors.Is(err, routing.ErrNoPath) {
			render.Render(w, r, ErrNotFoundRend(err))
			return
		}
		render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
		return
	}

	h.m.CountAnalysis("route")
	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderRouteResponse(res))
}

type ODPairReq struct {
	HomeLat float64 `json:"home_lat" validate:"required,lt=90,gt=-90"`
	HomeLon float64 `json:"home_lon" validate:"required,lt=180,gt=-180"`
	WorkLat float64 `json:"work_lat" validate:"required,lt=90,gt=-90"`
	WorkLon float64 `json:"work_lon" validate:"required,lt=180,gt=-180"`
}

type TripsRequest struct {
	ODPairs   []ODPairReq `json:"od_pairs" validate:"required,dive"`
	WeightKey string      `json:"weight_key" validate:"omitempty,oneof=length travel_time"`
}

func (s *TripsRequest) Bind(r *http.Request) error {
	if len(s.ODPairs) == 0 {
		return errors.New("invalid request")
	}
	if s.WeightKey == "" {
		s.WeightKey = datastructure.WeightLength
	}
	return nil
}

func (s *TripsRequest) odPairs() []simulator.ODPair {
	odPairs := make([]simulator.ODPair, 0, len(s.ODPairs))
	for _, od := range s.ODPairs {
		odPairs = append(odPairs, simulator.ODPair{
			HomeLat: od.HomeLat,
			HomeLon: od.HomeLon,
			WorkLat: od.WorkLat,
			WorkLon: od.WorkLon,
		})
	}
	return odPairs
}

type SummaryResponse struct {
	Solved         int     `json:"solved"`
	Excluded       int     `json:"excluded"`
	MeanEfficiency float64 `json:"mean_efficiency"`
	StdEfficiency  float64 `json:"std_efficiency"`
	MinEfficiency  float64 `json:"min_efficiency"`
	Q1Efficiency   float64 `json:"q1_efficiency"`
	MedEfficiency  float64 `json:"median_efficiency"`
	Q3Efficiency   float64 `json:"q3_efficiency"`
	MaxEfficiency  float64 `json:"max_efficiency"`
}

func RenderSummary(s simulator.Summary) SummaryResponse {
	return SummaryResponse{
		Solved:         s.Solved,
		Excluded:       s.Excluded,
		MeanEfficiency: s.MeanEfficiency,
		StdEfficiency:  s.StdEfficiency,
		MinEfficiency:  s.MinEfficiency,
		Q1Efficiency:   s.Q1Efficiency,
		MedEfficiency:  s.MedEfficiency,
		Q3Efficiency:   s.Q3Efficiency,
		MaxEfficiency:  s.MaxEfficiency,
	}
}

func (h *AnalysisHandler) SimulateTrips(w http.ResponseWriter, r *http.Request) {
	data := &TripsRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, data) {
		return
	}

	summary, err := h.svc.SimulateTrips(r.Context(), data.odPairs(), data.WeightKey)
	if err != nil {
		render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
		return
	}

	h.m.CountAnalysis("trips")
	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderSummary(summary))
}

type PerturbationRequest struct {
	ODPairs   []ODPairReq `json:"od_pairs" validate:"required,dive"`
	WeightKey string      `json:"weight_key" validate:"omitempty,oneof=length travel_time"`
	Fraction  float64     `json:"fraction" validate:"gte=0,lte=1"`
	Seed      uint64      `json:"seed"`
}

func (s *PerturbationRequest) Bind(r *http.Request) error {
	if len(s.ODPairs) == 0 {
		return errors.New("invalid request")
	}
	if s.WeightKey == "" {
		s.WeightKey = datastructure.WeightLength
	}
	return nil
}

func (s *PerturbationRequest) odPairs() []simulator.ODPair {
	odPairs := make([]simulator.ODPair, 0, len(s.ODPairs))
	for _, od := range s.ODPairs {
		odPairs = append(odPairs, simulator.ODPair{
			HomeLat: od.HomeLat,
			HomeLon: od.HomeLon,
			WorkLat: od.WorkLat,
			WorkLon: od.WorkLon,
		})
	}
	return odPairs
}

type PerturbationResponse struct {
	RemovedNodes          int             `json:"removed_nodes"`
	Before                SummaryResponse `json:"before"`
	After                 SummaryResponse `json:"after"`
	FractionUnsolvable    *float64        `json:"fraction_unsolvable,omitempty"`
	EfficiencyDegradation *float64        `json:"efficiency_degradation,omitempty"`
}

func RenderPerturbationResponse(report service.PerturbationReport) *PerturbationResponse {
	resp := &PerturbationResponse{
		RemovedNodes: report.RemovedNodes,
		Before:       RenderSummary(report.Before),
		After:        RenderSummary(report.After),
	}
	if report.Comparison.FractionUnsolvableDefined {
		v := report.Comparison.FractionUnsolvable
		resp.FractionUnsolvable = &v
	}
	if report.Comparison.EfficiencyDegradationDefined {
		v := report.Comparison.EfficiencyDegradation
		resp.EfficiencyDegradation = &v
	}
	return resp
}

func (h *AnalysisHandler) Perturbation(w http.ResponseWriter, r *http.Request) {
	data := &PerturbationRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, data) {
		return
	}

	report, err := h.svc.PerturbationAnalysis(r.Context(), data.odPairs(), data.WeightKey, data.Fraction, data.Seed)
	if err != nil {
		render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
		return
	}

	h.m.CountAnalysis("perturbation")
	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderPerturbationResponse(report))
}

type AccessibilityRequest struct {
	Category    string  `json:"category" validate:"required"`
	POIs        []Coord `json:"pois" validate:"required,dive"`
	MaxItems    int     `json:"max_items" validate:"required,gt=0"`
	MaxDistance float64 `json:"max_distance" validate:"required,gt=0"`
	WeightKey   string  `json:"weight_key" validate:"omitempty,oneof=length travel_time"`
	Decay       string  `json:"decay" validate:"omitempty,oneof=flat linear exponential"`
	Cap         int     `json:"cap" validate:"gte=0"`
}

func (s *AccessibilityRequest) Bind(r *http.Request) error {
	if len(s.POIs) == 0 {
		return errors.New("invalid request")
	}
	if s.WeightKey == "" {
		s.WeightKey = datastructure.WeightLength
	}
	return nil
}

type NodeAccessibility struct {
	NodeID           int32     `json:"node_id"`
	NearestDistances []float64 `json:"nearest_distances"`
	Count            float64   `json:"count"`
}

type AccessibilityResponse struct {
	Category string              `json:"category"`
	Nodes    []NodeAccessibility `json:"nodes"`
}

func RenderAccessibilityResponse(category string, res service.AccessibilityResult) *AccessibilityResponse {
	nodes := make([]NodeAccessibility, 0, len(res.Counts))
	for nodeID, count := range res.Counts {
		nodes = append(nodes, NodeAccessibility{
			NodeID:           nodeID,
			NearestDistances: res.NearestDistances[nodeID],
			Count:            count,
		})
	}
	return &AccessibilityResponse{
		Category: category,
		Nodes:    nodes,
	}
}

func (h *AnalysisHandler) Accessibility(w http.ResponseWriter, r *http.Request) {
	data := &AccessibilityRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, data) {
		return
	}

	pois := make([]datastructure.Coordinate, 0, len(data.POIs))
	for _, p := range data.POIs {
		pois = append(pois, datastructure.NewCoordinate(p.Lat, p.Lon))
	}

	res, err := h.svc.Accessibility(r.Context(), data.Category, pois, data.MaxItems, data.MaxDistance,
		data.WeightKey, data.Decay, data.Cap)
	if err != nil {
		render.Render(w, r, ErrInternalServerErrorRend(errors.New("internal server error")))
		return
	}

	h.m.CountAnalysis("accessibility")
	render.Status(r, http.StatusOK)
	render.JSON(w, r, RenderAccessibilityResponse(data.Category, res))
}

func validateRequest(w http.ResponseWriter, r *http.Request, data any) bool {
	validate := validator.New()
	if err := validate.Struct(data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return false
	}
	return true
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := errors.New(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

// ErrResponse model info
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrValidation(err error, validations []error) render.Renderer {
	validationTexts := make([]string, 0, len(validations))
	for _, v := range validations {
		validationTexts = append(validationTexts, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  validationTexts,
	}
}

func ErrNotFoundRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 404,
		StatusText:     "Resource not found.",
		ErrorText:      err.Error(),
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 500,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}
