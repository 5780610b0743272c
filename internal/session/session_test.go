package session

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/smartretail/storefront/internal/cart"
	"github.com/smartretail/storefront/internal/catalog"
	"github.com/smartretail/storefront/internal/optimize"
	pkgerrors "github.com/smartretail/storefront/pkg/errors"
	"github.com/smartretail/storefront/pkg/logger"
	"github.com/smartretail/storefront/pkg/store"
)

type searchFunc func(ctx context.Context, query string, page int) (*catalog.SearchResult, error)

func (f searchFunc) Search(ctx context.Context, query string, page int) (*catalog.SearchResult, error) {
	return f(ctx, query, page)
}

type optimizeFunc func(ctx context.Context, items []optimize.LineItem, weights optimize.Weights) (*optimize.Suggestion, error)

func (f optimizeFunc) Optimize(ctx context.Context, items []optimize.LineItem, weights optimize.Weights) (*optimize.Suggestion, error) {
	return f(ctx, items, weights)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
}

func noopSearcher() searchFunc {
	return func(context.Context, string, int) (*catalog.SearchResult, error) {
		return &catalog.SearchResult{}, nil
	}
}

func noopOptimizer() optimizeFunc {
	return func(context.Context, []optimize.LineItem, optimize.Weights) (*optimize.Suggestion, error) {
		return &optimize.Suggestion{}, nil
	}
}

func newTestSession(t *testing.T, st store.Store, search searchFunc, opt optimizeFunc) *Session {
	t.Helper()
	ctx := context.Background()
	machine, err := cart.NewMachine(ctx, st, testLogger(), nil)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	sess, err := New(ctx, Params{
		Cart:      machine,
		Catalog:   search,
		Optimizer: opt,
		Store:     st,
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return sess
}

func testProduct(id int64, price string) catalog.Product {
	return catalog.Product{ID: id, Name: "p", Price: decimal.RequireFromString(price)}
}

func TestStaleSearchResponseDoesNotOverwriteNewerView(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	search := searchFunc(func(_ context.Context, _ string, page int) (*catalog.SearchResult, error) {
		if page == 1 {
			close(started)
			<-release
			return &catalog.SearchResult{Count: 111}, nil
		}
		return &catalog.SearchResult{Count: 222, HasPrevious: true}, nil
	})

	sess := newTestSession(t, store.NewMemory(), search, noopOptimizer())
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	var slowResult *catalog.SearchResult
	go func() {
		defer wg.Done()
		slowResult, _ = sess.Search(ctx, "milk", 1)
	}()

	<-started
	if _, err := sess.Search(ctx, "milk", 2); err != nil {
		t.Fatalf("page 2 search: %v", err)
	}

	close(release)
	wg.Wait()

	// The slow call still got its own page back...
	if slowResult == nil || slowResult.Count != 111 {
		t.Fatalf("slow caller should receive its own result, got %+v", slowResult)
	}
	// ...but the session's committed view belongs to the newer request.
	view, result := sess.CurrentSearch()
	if view.Page != 2 {
		t.Fatalf("expected view on page 2, got %+v", view)
	}
	if result == nil || result.Count != 222 {
		t.Fatalf("stale response must not overwrite the newer result, got %+v", result)
	}
}

func TestSearchViewPersistsAcrossSessions(t *testing.T) {
	t.Parallel()

	st := store.NewMemory()
	sess := newTestSession(t, st, noopSearcher(), noopOptimizer())

	if _, err := sess.Search(context.Background(), "bread", 3); err != nil {
		t.Fatalf("search: %v", err)
	}

	restored := newTestSession(t, st, noopSearcher(), noopOptimizer())
	view, _ := restored.CurrentSearch()
	if view.Query != "bread" || view.Page != 3 {
		t.Fatalf("expected restored view bread/3, got %+v", view)
	}
}

func TestSearchFailureSurfacesRetryableError(t *testing.T) {
	t.Parallel()

	search := searchFunc(func(context.Context, string, int) (*catalog.SearchResult, error) {
		return nil, pkgerrors.New(pkgerrors.CodeCatalog, "connection refused")
	})
	sess := newTestSession(t, store.NewMemory(), search, noopOptimizer())

	_, err := sess.Search(context.Background(), "milk", 1)
	if !pkgerrors.Retryable(err) {
		t.Fatalf("catalog failure must stay retryable, got %v", err)
	}
	if _, result := sess.CurrentSearch(); result != nil {
		t.Fatalf("failed search must not commit a result, got %+v", result)
	}
}

func TestOptimizeEndToEndLeavesCartUntouched(t *testing.T) {
	t.Parallel()

	suggestion := &optimize.Suggestion{
		Lines: []optimize.SuggestionLine{{
			RequestedID: 7,
			ChosenID:    9,
			Name:        "EcoBrand",
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("2.80"),
			UnitCO2Kg:   0.4,
		}},
		TotalPrice: decimal.RequireFromString("5.60"),
		TotalCO2Kg: 0.8,
	}
	var gotItems []optimize.LineItem
	opt := optimizeFunc(func(_ context.Context, items []optimize.LineItem, _ optimize.Weights) (*optimize.Suggestion, error) {
		gotItems = items
		return suggestion, nil
	})

	sess := newTestSession(t, store.NewMemory(), noopSearcher(), opt)
	ctx := context.Background()

	if _, err := sess.AddItem(ctx, 7, 2, testProduct(7, "3.00")); err != nil {
		t.Fatalf("add item: %v", err)
	}

	got, err := sess.Optimize(ctx, optimize.Weights{Price: 0.5, CO2: 0.5})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}

	if len(gotItems) != 1 || gotItems[0].ID != 7 || gotItems[0].Quantity != 2 {
		t.Fatalf("unexpected items sent to oracle: %+v", gotItems)
	}
	// Totals render as received, never recomputed.
	if !got.TotalPrice.Equal(decimal.RequireFromString("5.60")) || got.TotalCO2Kg != 0.8 {
		t.Fatalf("totals must pass through untouched, got %+v", got)
	}
	// Accepting a suggestion is not a cart mutation.
	state := sess.Cart()
	if len(state.Items) != 1 || state.Items[0].ID != 7 || state.Items[0].Quantity != 2 {
		t.Fatalf("cart must still reference id 7, got %+v", state.Items)
	}
	if held, ok := sess.Suggestion(); !ok || held != suggestion {
		t.Fatalf("suggestion must be held for the session, got %v ok=%v", held, ok)
	}
}

func TestOptimizeRefusesEmptyCart(t *testing.T) {
	t.Parallel()

	called := false
	opt := optimizeFunc(func(context.Context, []optimize.LineItem, optimize.Weights) (*optimize.Suggestion, error) {
		called = true
		return &optimize.Suggestion{}, nil
	})
	sess := newTestSession(t, store.NewMemory(), noopSearcher(), opt)

	_, err := sess.Optimize(context.Background(), optimize.DefaultWeights())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("empty cart must never reach the oracle")
	}
}

func TestOptimizeDiscardsSuggestionWhenCartChangedMidFlight(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	opt := optimizeFunc(func(context.Context, []optimize.LineItem, optimize.Weights) (*optimize.Suggestion, error) {
		close(started)
		<-release
		return &optimize.Suggestion{TotalCO2Kg: 1.5}, nil
	})

	sess := newTestSession(t, store.NewMemory(), noopSearcher(), opt)
	ctx := context.Background()

	if _, err := sess.AddItem(ctx, 7, 2, testProduct(7, "3.00")); err != nil {
		t.Fatalf("add item: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var optErr error
	go func() {
		defer wg.Done()
		_, optErr = sess.Optimize(ctx, optimize.DefaultWeights())
	}()

	<-started
	if _, err := sess.AddItem(ctx, 8, 1, testProduct(8, "1.00")); err != nil {
		t.Fatalf("add item: %v", err)
	}
	close(release)
	wg.Wait()

	typed := pkgerrors.As(optErr)
	if typed == nil || typed.Code() != pkgerrors.CodeOptimization {
		t.Fatalf("stale optimization must report a retryable failure, got %v", optErr)
	}
	if _, ok := sess.Suggestion(); ok {
		t.Fatal("stale suggestion must be discarded, not held")
	}
}

func TestCartCommandInvalidatesHeldSuggestion(t *testing.T) {
	t.Parallel()

	sess := newTestSession(t, store.NewMemory(), noopSearcher(), noopOptimizer())
	ctx := context.Background()

	if _, err := sess.AddItem(ctx, 7, 2, testProduct(7, "3.00")); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if _, err := sess.Optimize(ctx, optimize.DefaultWeights()); err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if _, ok := sess.Suggestion(); !ok {
		t.Fatal("expected a held suggestion")
	}

	if _, err := sess.RemoveItem(ctx, 7); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if _, ok := sess.Suggestion(); ok {
		t.Fatal("cart mutation must discard the held suggestion")
	}
}
