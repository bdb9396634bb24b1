package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"temperature-forecast/internal/earthdata"
	"temperature-forecast/internal/forecast"
	"temperature-forecast/internal/repository"
	"temperature-forecast/internal/services"
	"temperature-forecast/pkg/logging"
	"temperature-forecast/pkg/metrics"
)

// ForecastHandler handles the temperature and forecast API endpoints
type ForecastHandler struct {
	acquisitionService *services.AcquisitionService
	forecastService    *services.ForecastService
	logger             *logging.StructuredLogger
	metrics            *metrics.Collector
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(
	acquisitionService *services.AcquisitionService,
	forecastService *services.ForecastService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ForecastHandler {
	return &ForecastHandler{
		acquisitionService: acquisitionService,
		forecastService:    forecastService,
		logger:             logger,
		metrics:            metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// CreateForecastRequest is the POST /api/forecasts payload
type CreateForecastRequest struct {
	Location    string `json:"location"`
	HorizonDays int    `json:"horizon_days"`
}

// GetLocations handles GET /api/locations
func (h *ForecastHandler) GetLocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/locations").Observe(duration.Seconds())
	}()

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	locations, err := h.acquisitionService.GetLocations(ctx, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_LOCATIONS_ERROR] Failed to list locations", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/locations")
		h.sendError(w, r, "failed to retrieve locations", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/locations", "GET", "200")
	h.sendJSON(w, map[string]interface{}{"data": locations}, http.StatusOK)
}

// GetTemperatures handles GET /api/temperatures
func (h *ForecastHandler) GetTemperatures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/temperatures").Observe(duration.Seconds())
	}()

	locationName := r.URL.Query().Get("location")
	startDateStr := r.URL.Query().Get("start_date")
	endDateStr := r.URL.Query().Get("end_date")

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	// Build filter
	filter := repository.TemperatureFilter{
		Limit:  limit,
		Offset: offset,
	}

	if locationName != "" {
		location, err := h.acquisitionService.GetLocation(ctx, locationName)
		if err != nil {
			var notFound *repository.NotFoundError
			if errors.As(err, &notFound) {
				h.sendError(w, r, "unknown location", http.StatusNotFound)
				return
			}
			h.metrics.RecordAPIError("internal_error", "/api/temperatures")
			h.sendError(w, r, "failed to resolve location", http.StatusInternalServerError)
			return
		}
		filter.LocationID = &location.ID
	}

	if startDateStr != "" {
		startDate, err := time.Parse("2006-01-02", startDateStr)
		if err != nil {
			h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.StartDate = &startDate
	}

	if endDateStr != "" {
		endDate, err := time.Parse("2006-01-02", endDateStr)
		if err != nil {
			h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		filter.EndDate = &endDate
	}

	temps, total, err := h.acquisitionService.GetDailyTemperatures(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_TEMPERATURES_ERROR] Failed to get daily temperatures", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/temperatures")
		h.sendError(w, r, "failed to retrieve daily temperatures", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       temps,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/temperatures", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetForecastRuns handles GET /api/forecasts
func (h *ForecastHandler) GetForecastRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/forecasts").Observe(duration.Seconds())
	}()

	locationName := r.URL.Query().Get("location")

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	filter := repository.RunFilter{
		Limit:  limit,
		Offset: offset,
	}

	if locationName != "" {
		location, err := h.acquisitionService.GetLocation(ctx, locationName)
		if err != nil {
			var notFound *repository.NotFoundError
			if errors.As(err, &notFound) {
				h.sendError(w, r, "unknown location", http.StatusNotFound)
				return
			}
			h.metrics.RecordAPIError("internal_error", "/api/forecasts")
			h.sendError(w, r, "failed to resolve location", http.StatusInternalServerError)
			return
		}
		filter.LocationID = &location.ID
	}

	runs, total, err := h.forecastService.GetForecastRuns(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_RUNS_ERROR] Failed to get forecast runs", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/forecasts")
		h.sendError(w, r, "failed to retrieve forecast runs", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       runs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/forecasts", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetForecastPoints handles GET /api/forecasts/{id}/points
func (h *ForecastHandler) GetForecastPoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/forecasts/points").Observe(duration.Seconds())
	}()

	runID := mux.Vars(r)["id"]

	points, err := h.forecastService.GetForecastPoints(ctx, runID)
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.sendError(w, r, "forecast run not found", http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_GET_POINTS_ERROR] Failed to get forecast points", logging.Fields{
			"run_id": runID,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/forecasts/points")
		h.sendError(w, r, "failed to retrieve forecast points", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/forecasts/points", "GET", "200")
	h.sendJSON(w, map[string]interface{}{"data": points}, http.StatusOK)
}

// CreateForecast handles POST /api/forecasts
func (h *ForecastHandler) CreateForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/forecasts").Observe(duration.Seconds())
	}()

	var req CreateForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Location == "" {
		h.sendError(w, r, "location is required", http.StatusBadRequest)
		return
	}
	if req.HorizonDays < 0 {
		h.sendError(w, r, "horizon_days must be positive", http.StatusBadRequest)
		return
	}

	result, err := h.forecastService.Run(ctx, services.RunRequest{
		LocationName: req.Location,
		HorizonDays:  req.HorizonDays,
	})
	if err != nil {
		var notFound *repository.NotFoundError
		var unknownLocation *earthdata.UnknownLocationError
		switch {
		case errors.As(err, &notFound) || errors.As(err, &unknownLocation):
			h.sendError(w, r, err.Error(), http.StatusNotFound)
		case errors.Is(err, forecast.ErrNoViableModel):
			h.metrics.RecordAPIError("no_viable_model", "/api/forecasts")
			h.sendError(w, r, "no candidate model could be fit to the stored series", http.StatusUnprocessableEntity)
		default:
			h.logger.Error(ctx, "[API_CREATE_FORECAST_ERROR] Forecast run failed", logging.Fields{
				"location": req.Location,
			}, err)
			h.metrics.RecordAPIError("internal_error", "/api/forecasts")
			h.sendError(w, r, "forecast run failed", http.StatusInternalServerError)
		}
		return
	}

	response := map[string]interface{}{
		"run":    result.Run,
		"points": result.Points,
	}

	h.metrics.RecordAPIRequest("/api/forecasts", "POST", "201")
	h.sendJSON(w, response, http.StatusCreated)
}

// HealthCheck handles GET /health
func (h *ForecastHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parsePagination extracts page and limit query parameters with defaults
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 100

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}

	return page, limit
}

// sendJSON sends a JSON response
func (h *ForecastHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *ForecastHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all forecast API routes
func (h *ForecastHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/locations", h.GetLocations).Methods("GET")
	router.HandleFunc("/api/temperatures", h.GetTemperatures).Methods("GET")
	router.HandleFunc("/api/forecasts", h.GetForecastRuns).Methods("GET")
	router.HandleFunc("/api/forecasts", h.CreateForecast).Methods("POST")
	router.HandleFunc("/api/forecasts/{id}/points", h.GetForecastPoints).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
