package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"pennywise/internal/log"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(m *Middleware, seen *string) *gin.Engine {
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/ping", func(c *gin.Context) {
		*seen = GetRequestID(c.Request.Context())
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestHandler_GeneratesRequestID(t *testing.T) {
	m := NewMiddleware(log.Discard(), nil)
	var seen string
	r := newRouter(m, &seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	got := w.Header().Get(HeaderRequestID)
	if !strings.HasPrefix(got, "req_") {
		t.Fatalf("request id = %q, want req_ prefix", got)
	}
	if seen != got {
		t.Errorf("context id %q != header id %q", seen, got)
	}
}

func TestHandler_KeepsIncomingRequestID(t *testing.T) {
	m := NewMiddleware(nil, nil)
	var seen string
	r := newRouter(m, &seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "abc-123" {
		t.Errorf("seen = %q, want abc-123", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "bad id\n")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if seen == "bad id\n" || !strings.HasPrefix(seen, "req_") {
		t.Errorf("unsafe id was accepted: %q", seen)
	}
}

func TestMetrics(t *testing.T) {
	m := NewMiddleware(log.Discard(), nil)
	var seen string
	r := newRouter(m, &seen)
	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	}
	if got := m.GetMetrics().TotalRequests; got != 3 {
		t.Errorf("TotalRequests = %d, want 3", got)
	}
}

func TestGenerateRequestID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
