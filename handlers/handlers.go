package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"occupancy-dashboard/middleware"
	"occupancy-dashboard/models"
	"occupancy-dashboard/services"

	"github.com/gin-gonic/gin"
)

// DashboardHandler handles HTTP requests for the occupancy dashboard.
type DashboardHandler struct {
	scopeService       *services.ScopeService
	aggregationService *services.AggregationService
	complianceService  *services.ComplianceService
	settingsService    *services.SettingsService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(
	scopeService *services.ScopeService,
	aggregationService *services.AggregationService,
	complianceService *services.ComplianceService,
	settingsService *services.SettingsService,
) *DashboardHandler {
	return &DashboardHandler{
		scopeService:       scopeService,
		aggregationService: aggregationService,
		complianceService:  complianceService,
		settingsService:    settingsService,
	}
}

// HealthHandler handles health check requests.
func (h *DashboardHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: "occupancy-dashboard",
	})
}

// CheckInsHandler returns the 12-month check-ins time series.
func (h *DashboardHandler) CheckInsHandler(c *gin.Context) {
	scope, year, ok := h.resolveScopeAndYear(c)
	if !ok {
		return
	}

	series, err := h.aggregationService.MonthlyCheckIns(scope, year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "months": series})
}

// MetricsHandler returns the 12 dense monthly rollups.
func (h *DashboardHandler) MetricsHandler(c *gin.Context) {
	scope, year, ok := h.resolveScopeAndYear(c)
	if !ok {
		return
	}

	rollups, err := h.aggregationService.MonthlyRollups(scope, year)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"year": year, "months": rollups})
}

// NationalitiesHandler returns per-nationality guest counts with a gender
// split for one month.
func (h *DashboardHandler) NationalitiesHandler(c *gin.Context) {
	scope, year, month, ok := h.resolveScopeYearAndMonth(c)
	if !ok {
		return
	}

	counts, err := h.aggregationService.NationalityCounts(scope, year, month)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":          year,
		"month":         month,
		"nationalities": counts,
	})
}

// GroupedNationalitiesHandler returns nationality counts bucketed by
// establishment or municipality.
func (h *DashboardHandler) GroupedNationalitiesHandler(c *gin.Context) {
	scope, year, month, ok := h.resolveScopeYearAndMonth(c)
	if !ok {
		return
	}

	grouped, err := h.aggregationService.GroupedNationalityCounts(scope, year, month, c.Query("group_by"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":   year,
		"month":  month,
		"groups": grouped,
	})
}

// NationalityDistributionHandler returns the taxonomy rollup with the
// resident partition.
func (h *DashboardHandler) NationalityDistributionHandler(c *gin.Context) {
	scope, year, month, ok := h.resolveScopeYearAndMonth(c)
	if !ok {
		return
	}

	dist, err := h.aggregationService.NationalityDistribution(scope, year, month)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dist)
}

// DemographicsHandler returns guest counts per gender, age group and
// status bucket.
func (h *DashboardHandler) DemographicsHandler(c *gin.Context) {
	scope, year, month, ok := h.resolveScopeYearAndMonth(c)
	if !ok {
		return
	}

	demographics, err := h.aggregationService.GuestDemographics(scope, year, month)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":         year,
		"month":        month,
		"demographics": demographics,
	})
}

// ComplianceHandler returns the paginated compliance listing.
func (h *DashboardHandler) ComplianceHandler(c *gin.Context) {
	requester := middleware.GetRequesterFromContext(c)
	scope, err := h.scopeService.Resolve(requester, narrowingFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	filters := services.ComplianceFilters{
		Status:  c.Query("status"),
		Penalty: c.Query("penalty"),
		Search:  c.Query("search"),
	}
	if filters.Month, err = optionalIntQuery(c, "month"); err != nil {
		respondError(c, err)
		return
	}
	if filters.Year, err = optionalIntQuery(c, "year"); err != nil {
		respondError(c, err)
		return
	}
	if filters.Page, err = optionalIntQuery(c, "page"); err != nil {
		respondError(c, err)
		return
	}
	if filters.Limit, err = optionalIntQuery(c, "limit"); err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.aggregationService.ComplianceList(scope, filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PenaltyPaymentHandler records a penalty payment for a late submission.
func (h *DashboardHandler) PenaltyPaymentHandler(c *gin.Context) {
	var req models.PenaltyPaymentRequest
	if err := c.BindJSON(&req); err != nil {
		respondError(c, &models.ValidationError{Message: "could not read JSON input"})
		return
	}
	if req.SubmissionID == 0 {
		respondError(c, &models.ValidationError{Message: "submission_id is required"})
		return
	}
	if req.AccessCode == "" {
		respondError(c, &models.ValidationError{Message: "access_code is required"})
		return
	}

	resp, err := h.complianceService.RecordPenaltyPayment(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AutoApprovalGetHandler reads the registration auto-approval toggle.
func (h *DashboardHandler) AutoApprovalGetHandler(c *gin.Context) {
	enabled, err := h.settingsService.GetAutoApproval()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

// AutoApprovalSetHandler writes the registration auto-approval toggle.
func (h *DashboardHandler) AutoApprovalSetHandler(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.BindJSON(&req); err != nil || req.Enabled == nil {
		respondError(c, &models.ValidationError{Message: "enabled is required"})
		return
	}

	if err := h.settingsService.SetAutoApproval(*req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}

// resolveScopeAndYear resolves the requester's scope and the mandatory
// year parameter. Writes the error response itself on failure.
func (h *DashboardHandler) resolveScopeAndYear(c *gin.Context) (models.GeographicScope, int, bool) {
	requester := middleware.GetRequesterFromContext(c)

	scope, err := h.scopeService.Resolve(requester, narrowingFromQuery(c))
	if err != nil {
		respondError(c, err)
		return models.GeographicScope{}, 0, false
	}

	year, err := requiredIntQuery(c, "year")
	if err != nil {
		respondError(c, err)
		return models.GeographicScope{}, 0, false
	}

	return scope, year, true
}

// resolveScopeYearAndMonth additionally parses the mandatory month.
func (h *DashboardHandler) resolveScopeYearAndMonth(c *gin.Context) (models.GeographicScope, int, int, bool) {
	scope, year, ok := h.resolveScopeAndYear(c)
	if !ok {
		return models.GeographicScope{}, 0, 0, false
	}

	month, err := requiredIntQuery(c, "month")
	if err != nil {
		respondError(c, err)
		return models.GeographicScope{}, 0, 0, false
	}

	return scope, year, month, true
}

func narrowingFromQuery(c *gin.Context) services.Narrowing {
	return services.Narrowing{
		Province:     c.Query("province"),
		Municipality: c.Query("municipality"),
	}
}

func requiredIntQuery(c *gin.Context, name string) (int, error) {
	value := c.Query(name)
	if value == "" {
		return 0, &models.ValidationError{Message: name + " parameter is required"}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &models.ValidationError{Message: name + " must be a valid integer"}
	}
	return n, nil
}

func optionalIntQuery(c *gin.Context, name string) (int, error) {
	value := c.Query(name)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &models.ValidationError{Message: name + " must be a valid integer"}
	}
	return n, nil
}

// respondError maps service errors onto the structured error body. Store
// errors are logged but never exposed.
func respondError(c *gin.Context, err error) {
	var scopeViolation *models.ScopeViolationError
	var validation *models.ValidationError

	switch {
	case errors.As(err, &scopeViolation):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error: scopeViolation.Message,
			Kind:  models.ErrKindScopeViolation,
		})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: validation.Message,
			Kind:  models.ErrKindValidation,
		})
	case errors.Is(err, models.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: err.Error(),
			Kind:  models.ErrKindNotFound,
		})
	case errors.Is(err, models.ErrAccessCodeMismatch):
		c.JSON(http.StatusForbidden, models.ErrorResponse{
			Error: err.Error(),
			Kind:  models.ErrKindScopeViolation,
		})
	default:
		log.Printf("Internal error handling %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error",
			Kind:  models.ErrKindInternal,
		})
	}
}
