package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"a4blend/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(Logging(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/broken", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/api/files/stream/*filepath", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		path  string
		level zapcore.Level
	}{
		{"/ok", zapcore.InfoLevel},
		{"/broken", zapcore.ErrorLevel},
		{"/missing", zapcore.WarnLevel},
		{"/api/files/stream/a.mp3", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			entries := logs.TakeAll()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.path, entries[0].ContextMap()["path"])
		})
	}
}

func TestSecurity(t *testing.T) {
	r := gin.New()
	r.Use(Security())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetrics_SkipsConfiguredPaths(t *testing.T) {
	r := gin.New()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/catalog", func(c *gin.Context) { c.Status(http.StatusOK) })

	catalog := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/catalog", "200")
	unmatched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	health := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200")
	before := []float64{testutil.ToFloat64(catalog), testutil.ToFloat64(unmatched), testutil.ToFloat64(health)}

	for _, path := range []string{"/health", "/api/catalog", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, before[0]+1, testutil.ToFloat64(catalog))
	assert.Equal(t, before[1]+1, testutil.ToFloat64(unmatched), "unknown routes share one label")
	assert.Equal(t, before[2], testutil.ToFloat64(health))
}
