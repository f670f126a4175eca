package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newRouter 按生产顺序挂载中间件
func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(Logger())
	r.Use(Recovery())
	r.Use(Metrics())

	r.GET("/api/books/:id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	r.NoRoute(NoRoute)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestLogger_RequestID(t *testing.T) {
	r := newRouter()

	t.Run("沿用客户端请求ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/books/1", nil)
		req.Header.Set(RequestIDHeader, "req-abc-123")

		rec := serve(r, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "req-abc-123", rec.Header().Get(RequestIDHeader))
		assert.Equal(t, "req-abc-123", rec.Body.String(), "上下文中可取到同一ID")
	})

	t.Run("未携带时生成UUID", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/books/1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, rec.Body.String())

		again := serve(r, httptest.NewRequest(http.MethodGet, "/api/books/1", nil))
		assert.NotEqual(t, id, again.Header().Get(RequestIDHeader), "每个请求独立生成")
	})
}

func TestMetrics_PathLabel(t *testing.T) {
	metrics.InitMetrics()
	r := newRouter()

	t.Run("使用路由模板", func(t *testing.T) {
		counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/books/:id", "200")
		before := testutil.ToFloat64(counter)

		serve(r, httptest.NewRequest(http.MethodGet, "/api/books/7", nil))
		serve(r, httptest.NewRequest(http.MethodGet, "/api/books/8", nil))

		assert.Equal(t, before+2, testutil.ToFloat64(counter))
	})

	t.Run("未知路由记为unmatched", func(t *testing.T) {
		counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
		before := testutil.ToFloat64(counter)

		rec := serve(r, httptest.NewRequest(http.MethodGet, "/no/such/path/42", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)

		assert.Equal(t, before+1, testutil.ToFloat64(counter))
		assert.Zero(t, testutil.ToFloat64(
			metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/no/such/path/42", "404"),
		), "原始路径不作为标签")
	})
}

func TestRecovery(t *testing.T) {
	r := newRouter()

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrCodeInternal, resp.Code)
	assert.Equal(t, apperrors.ErrInternal.Message, resp.Message)
}

func TestNoRoute(t *testing.T) {
	rec := serve(newRouter(), httptest.NewRequest(http.MethodDelete, "/nothing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrCodeNotFound, resp.Code)
}
