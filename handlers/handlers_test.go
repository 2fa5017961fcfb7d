package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jknair0/beforeeach"
	"github.com/shopspring/decimal"

	"occupancy-dashboard/config"
	"occupancy-dashboard/middleware"
	"occupancy-dashboard/models"
	"occupancy-dashboard/services"
)

var (
	handlerDB   *sql.DB
	handlerMock sqlmock.Sqlmock
	router      *gin.Engine
)

const handlerSecret = "handler-test-secret"

func handlerSetUp() {
	gin.SetMode(gin.TestMode)
	handlerDB, handlerMock, _ = sqlmock.New()

	cfg := &config.Config{JWTSecret: handlerSecret, PenaltyFee: decimal.NewFromInt(2000)}

	databaseService := services.NewDatabaseServiceFromDB(handlerDB)
	scopeService := services.NewScopeService(databaseService)
	complianceService := services.NewComplianceService(databaseService, cfg.PenaltyFee)
	aggregationService := services.NewAggregationService(databaseService, services.NewNationalityClassifier(), complianceService)
	settingsService := services.NewSettingsService(databaseService)

	handler := NewDashboardHandler(scopeService, aggregationService, complianceService, settingsService)

	router = gin.New()
	router.GET("/health", handler.HealthHandler)
	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg))
	{
		protected.GET("/api/v1/checkins", handler.CheckInsHandler)
		protected.GET("/api/v1/metrics", handler.MetricsHandler)
		protected.GET("/api/v1/nationalities/grouped", handler.GroupedNationalitiesHandler)
		protected.POST("/api/v1/penalty-payments", handler.PenaltyPaymentHandler)

		admin := protected.Group("/api/v1/settings")
		admin.Use(middleware.RequireRole(models.RoleRegionAdmin))
		{
			admin.GET("/auto-approval", handler.AutoApprovalGetHandler)
		}
	}
}

func handlerTearDown() {
	handlerDB.Close()
}

var handlerIt = beforeeach.Create(handlerSetUp, handlerTearDown)

func tokenFor(t *testing.T, requester models.Requester) string {
	t.Helper()
	token, err := middleware.GenerateToken(requester, handlerSecret, time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("failed to mint test token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func provinceAdmin() models.Requester {
	return models.Requester{
		UserID:   "user-1",
		Role:     models.RoleProvinceAdmin,
		Region:   "Region IV-A",
		Province: "Laguna",
	}
}

func TestHealthIsPublic(t *testing.T) {
	handlerIt(func() {
		recorder := doRequest(t, http.MethodGet, "/health", "", "")
		if recorder.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", recorder.Code)
		}
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	handlerIt(func() {
		recorder := doRequest(t, http.MethodGet, "/api/v1/metrics?year=2024", "", "")
		if recorder.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", recorder.Code)
		}
	})
}

func TestMetricsMissingYear(t *testing.T) {
	handlerIt(func() {
		recorder := doRequest(t, http.MethodGet, "/api/v1/metrics", tokenFor(t, provinceAdmin()), "")

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		var resp models.ErrorResponse
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad error body: %v", err)
		}
		if resp.Kind != models.ErrKindValidation {
			t.Errorf("expected validation kind, got %q", resp.Kind)
		}
	})
}

func TestMetricsScopeViolationIs403(t *testing.T) {
	handlerIt(func() {
		handlerMock.ExpectQuery("SELECT EXISTS").
			WithArgs("Laguna", "Tagaytay").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).FromCSVString("0"))

		recorder := doRequest(t, http.MethodGet,
			"/api/v1/metrics?year=2024&municipality=Tagaytay", tokenFor(t, provinceAdmin()), "")

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
		var resp models.ErrorResponse
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad error body: %v", err)
		}
		if resp.Kind != models.ErrKindScopeViolation {
			t.Errorf("expected scope_violation kind, got %q", resp.Kind)
		}
	})
}

func TestCheckInsDenseSeries(t *testing.T) {
	handlerIt(func() {
		handlerMock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM establishments e").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).FromCSVString("1"))
		handlerMock.ExpectQuery("SELECT s.month, s.room_count").
			WillReturnRows(sqlmock.NewRows([]string{"month", "room_count", "check_ins", "overnight_stays", "occupied_rooms"}).
				AddRow(4, 10, 40, 35, 180))

		recorder := doRequest(t, http.MethodGet, "/api/v1/checkins?year=2024", tokenFor(t, provinceAdmin()), "")

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
		}
		var resp struct {
			Year   int                      `json:"year"`
			Months []models.MonthlyCheckIns `json:"months"`
		}
		if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if len(resp.Months) != 12 {
			t.Errorf("expected 12 dense rows, got %d", len(resp.Months))
		}
	})
}

func TestGroupedNationalitiesBadGroupBy(t *testing.T) {
	handlerIt(func() {
		recorder := doRequest(t, http.MethodGet,
			"/api/v1/nationalities/grouped?year=2024&month=4&group_by=barangay",
			tokenFor(t, provinceAdmin()), "")

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for unsupported group_by, got %d", recorder.Code)
		}
	})
}

func TestPenaltyPaymentValidation(t *testing.T) {
	handlerIt(func() {
		testCases := []struct {
			name string
			body string
		}{
			{name: "Not JSON", body: "not-json"},
			{name: "Missing submission id", body: `{"access_code":"x"}`},
			{name: "Missing access code", body: `{"submission_id":7}`},
		}

		for _, testCase := range testCases {
			recorder := doRequest(t, http.MethodPost, "/api/v1/penalty-payments",
				tokenFor(t, provinceAdmin()), testCase.body)
			if recorder.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", testCase.name, recorder.Code)
			}
		}
	})
}

func TestSettingsRequireRegionAdmin(t *testing.T) {
	handlerIt(func() {
		recorder := doRequest(t, http.MethodGet, "/api/v1/settings/auto-approval",
			tokenFor(t, provinceAdmin()), "")
		if recorder.Code != http.StatusForbidden {
			t.Errorf("expected 403 for province admin, got %d", recorder.Code)
		}

		regionAdmin := models.Requester{UserID: "user-2", Role: models.RoleRegionAdmin, Region: "Region IV-A"}
		handlerMock.ExpectQuery("SELECT value FROM settings").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).FromCSVString("1"))

		recorder = doRequest(t, http.MethodGet, "/api/v1/settings/auto-approval",
			tokenFor(t, regionAdmin), "")
		if recorder.Code != http.StatusOK {
			t.Errorf("expected 200 for region admin, got %d: %s", recorder.Code, recorder.Body.String())
		}
	})
}
