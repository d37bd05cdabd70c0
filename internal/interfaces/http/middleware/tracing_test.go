package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse/stocksync/internal/infrastructure/auth"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
	})

	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no ended span named %q", name)
	return nil
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, attr := range span.Attributes() {
		if string(attr.Key) == key {
			return attr.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false, ServiceName: "test-service"}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTracing_RequestAndOperatorAttributes(t *testing.T) {
	sr := setupTestTracer(t)
	svc := newTestJWTService()

	router := gin.New()
	router.Use(RequestID(), TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service"}))
	router.Use(JWTAuthMiddleware(svc), TracingAttributeInjector())
	router.GET("/api/v1/ledger/:item", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/X", nil)
	req.Header.Set(RequestIDHeader, "test-request-id-123")
	req.Header.Set(AuthHeaderKey, BearerPrefix+newTestToken(t, svc, auth.ScopeReadOnly))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	span := findSpan(t, sr, "GET /api/v1/ledger/:item")
	requestID, ok := spanAttr(span, "request_id")
	assert.True(t, ok)
	assert.Equal(t, "test-request-id-123", requestID)
	operator, ok := spanAttr(span, "operator")
	assert.True(t, ok)
	assert.Equal(t, "ops", operator)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
	}{
		{"not found", http.StatusNotFound, "Not Found"},
		{"conflict", http.StatusConflict, "Conflict"},
		{"unauthorized", http.StatusUnauthorized, "Unauthorized"},
		{"bad request", http.StatusBadRequest, "Client Error"},
		// otelgin resets the description of 5xx spans, only the code is checked
		{"bad gateway", http.StatusBadGateway, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)
			router := gin.New()
			router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service"}), SpanErrorMarker())
			router.GET("/test", func(c *gin.Context) { c.Status(tt.status) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			span := findSpan(t, sr, "GET /test")
			assert.Equal(t, codes.Error, span.Status().Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, span.Status().Description)
			}
		})
	}
}

func TestSpanErrorMarker_SuccessResponse(t *testing.T) {
	sr := setupTestTracer(t)
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: true, ServiceName: "test-service"}), SpanErrorMarker())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	span := findSpan(t, sr, "GET /test")
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestSpanErrorMarker_WithNoSpan(t *testing.T) {
	router := gin.New()
	router.Use(SpanErrorMarker())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
