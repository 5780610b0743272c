package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/smartretail/storefront/internal/cart"
	"github.com/smartretail/storefront/internal/catalog"
	"github.com/smartretail/storefront/internal/optimize"
	"github.com/smartretail/storefront/internal/session"
	"github.com/smartretail/storefront/pkg/config"
	"github.com/smartretail/storefront/pkg/metrics"
	"github.com/smartretail/storefront/pkg/store"
)

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, string, int) (*catalog.SearchResult, error) {
	return &catalog.SearchResult{Count: 1}, nil
}

type stubOptimizer struct{}

func (stubOptimizer) Optimize(context.Context, []optimize.LineItem, optimize.Weights) (*optimize.Suggestion, error) {
	return &optimize.Suggestion{TotalPrice: decimal.RequireFromString("1.00")}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.App.Env = config.AppEnvDev

	st := store.NewMemory()
	machine, err := cart.NewMachine(ctx, st, nil, nil)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	sess, err := session.New(ctx, session.Params{
		Cart:      machine,
		Catalog:   stubSearcher{},
		Optimizer: stubOptimizer{},
		Store:     st,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	registry := prometheus.NewRegistry()
	_ = metrics.NewSessionMetrics(registry)

	return NewRouter(cfg, nil, st, sess, registry)
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 from %s, got %d", path, rec.Code)
		}
	}
}

func TestRouterServesSessionRoutes(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products?q=oat", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from products, got %d: %s", rec.Code, rec.Body.String())
	}

	body, _ := json.Marshal(map[string]any{
		"id":       7,
		"quantity": 2,
		"product":  map[string]any{"id": 7, "name": "oats", "price": "3.00"},
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart/items", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from cart add, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart/optimize", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from optimize, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart/suggestion", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from suggestion, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterUnknownRouteIs404(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
