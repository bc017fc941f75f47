package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"gwmux/internal/config"
)

type fakeRegistrar struct{ registered bool }

func (f *fakeRegistrar) RegisterRoutes(engine *gin.Engine) {
	f.registered = true
	engine.GET("/fake", func(c *gin.Context) { c.Status(http.StatusTeapot) })
}

func TestBuildEngineMountsRegistrarRoutes(t *testing.T) {
	cfg := &config.Config{}
	reg := &fakeRegistrar{}
	engine := BuildEngine(cfg, reg)
	if !reg.registered {
		t.Fatalf("expected RegisterRoutes to be called")
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fake", nil)
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, w.Code)
	}
}

func TestBuildEngineExposesHealthz(t *testing.T) {
	cfg := &config.Config{}
	engine := BuildEngine(cfg, &fakeRegistrar{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}
