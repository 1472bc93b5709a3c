package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/core/domain"
	portssvc "github.com/SscSPs/school_finance_core/internal/core/ports/services"
	"github.com/SscSPs/school_finance_core/internal/handlers"
	"github.com/SscSPs/school_finance_core/internal/middleware"
)

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) CollectionMetrics(ctx context.Context, scope domain.AnalyticsScope) (*domain.CollectionMetrics, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionMetrics), args.Error(1)
}
func (m *MockAnalyticsService) PaymentTrends(ctx context.Context, scope domain.AnalyticsScope, from, to time.Time) (*domain.PaymentTrends, error) {
	args := m.Called(ctx, scope, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTrends), args.Error(1)
}
func (m *MockAnalyticsService) Defaulters(ctx context.Context, scope domain.AnalyticsScope, days int) (*domain.DefaulterReport, error) {
	args := m.Called(ctx, scope, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DefaulterReport), args.Error(1)
}
func (m *MockAnalyticsService) ScholarshipImpact(ctx context.Context, scope domain.AnalyticsScope) (*domain.ScholarshipImpact, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScholarshipImpact), args.Error(1)
}
func (m *MockAnalyticsService) Dashboard(ctx context.Context, scope domain.AnalyticsScope) (*domain.Dashboard, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

var _ portssvc.AnalyticsSvc = (*MockAnalyticsService)(nil)

const analyticsSecret = "analytics-secret-key-long-enough"

func newAnalyticsRouter(svc portssvc.AnalyticsSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(analyticsSecret))
	handlers.RegisterAnalyticsRoutes(v1, svc, 30)
	return r
}

func getAnalytics(t *testing.T, r *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(analyticsSecret, "bursar-1"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDefaulters_DefaultThreshold(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("Defaulters", mock.Anything, domain.AnalyticsScope{AcademicYearID: "ay-2024"}, 30).
		Return(&domain.DefaulterReport{ThresholdDays: 30}, nil).Once()

	w := getAnalytics(t, newAnalyticsRouter(svc), "/api/v1/analytics/defaulters?academicYearID=ay-2024")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestDefaulters_ExplicitThresholdAndScope(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("Defaulters", mock.Anything, mock.MatchedBy(func(s domain.AnalyticsScope) bool {
		return s.AcademicYearID == "ay-2024" && s.TermID != nil && *s.TermID == "term-1" && s.SectionID == nil
	}), 0).Return(&domain.DefaulterReport{}, nil).Once()

	w := getAnalytics(t, newAnalyticsRouter(svc), "/api/v1/analytics/defaulters?academicYearID=ay-2024&termID=term-1&days=0")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestDefaulters_NegativeThresholdRejected(t *testing.T) {
	svc := new(MockAnalyticsService)

	w := getAnalytics(t, newAnalyticsRouter(svc), "/api/v1/analytics/defaulters?academicYearID=ay-2024&days=-1")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Defaulters")
}

func TestTrends_ParsesWindow(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("PaymentTrends", mock.Anything, mock.Anything, domain.MustDate("2024-05-01"), domain.MustDate("2024-05-31")).
		Return(&domain.PaymentTrends{Incomplete: true}, nil).Once()

	w := getAnalytics(t, newAnalyticsRouter(svc), "/api/v1/analytics/trends?academicYearID=ay-2024&from=2024-05-01&to=2024-05-31")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"incomplete":true`)
	svc.AssertExpectations(t)
}

func TestCollection_MissingYear(t *testing.T) {
	svc := new(MockAnalyticsService)

	w := getAnalytics(t, newAnalyticsRouter(svc), "/api/v1/analytics/collection")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "CollectionMetrics")
}

func TestCollection_ServiceValidationError(t *testing.T) {
	svc := new(MockAnalyticsService)
	svc.On("CollectionMetrics", mock.Anything, mock.Anything).Return(nil, apperrors.ErrValidation).Once()

	w := getAnalytics(t, newAnalyticsRouter(svc), "/api/v1/analytics/collection?academicYearID=ay-2024")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
