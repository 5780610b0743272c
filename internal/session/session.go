// Package session holds the per-session context object: the cart machine,
// the catalog and optimizer clients, and the durable search view. It owns
// the ordering rules for in-flight network calls: a response belonging to a
// superseded request is discarded, never applied over newer state.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/smartretail/storefront/internal/cart"
	"github.com/smartretail/storefront/internal/catalog"
	"github.com/smartretail/storefront/internal/optimize"
	pkgerrors "github.com/smartretail/storefront/pkg/errors"
	"github.com/smartretail/storefront/pkg/logger"
	"github.com/smartretail/storefront/pkg/metrics"
	"github.com/smartretail/storefront/pkg/store"
)

type searcher interface {
	Search(ctx context.Context, query string, page int) (*catalog.SearchResult, error)
}

type optimizer interface {
	Optimize(ctx context.Context, items []optimize.LineItem, weights optimize.Weights) (*optimize.Suggestion, error)
}

// SearchView is the persisted search position; a returning session resumes
// the last query and page.
type SearchView struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

// Session is the single authoritative state holder for a running client
// session. It lives for the session; there is no teardown.
type Session struct {
	cart      *cart.Machine
	catalog   searcher
	optimizer optimizer
	store     store.Store
	logg      *logger.Logger
	metrics   *metrics.SessionMetrics

	mu        sync.Mutex
	searchSeq uint64
	view      SearchView
	result    *catalog.SearchResult

	suggestion *optimize.Suggestion
}

// Params carries the session's collaborators.
type Params struct {
	Cart      *cart.Machine
	Catalog   searcher
	Optimizer optimizer
	Store     store.Store
	Logger    *logger.Logger
	Metrics   *metrics.SessionMetrics
}

// New restores the search view from its slot, or starts at an empty query on
// page 1 when the slot is missing or unreadable.
func New(ctx context.Context, p Params) (*Session, error) {
	if p.Cart == nil {
		return nil, fmt.Errorf("cart machine required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("catalog client required")
	}
	if p.Optimizer == nil {
		return nil, fmt.Errorf("optimization client required")
	}
	if p.Store == nil {
		return nil, fmt.Errorf("store required")
	}

	s := &Session{
		cart:      p.Cart,
		catalog:   p.Catalog,
		optimizer: p.Optimizer,
		store:     p.Store,
		logg:      p.Logger,
		metrics:   p.Metrics,
		view:      SearchView{Page: 1},
	}

	var persisted SearchView
	found, err := p.Store.Load(ctx, store.SlotSearch, &persisted)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Warn(p.Logger.WithField(ctx, "slot", store.SlotSearch), "search slot unreadable, starting fresh")
		}
		return s, nil
	}
	if found {
		if persisted.Page < 1 {
			persisted.Page = 1
		}
		s.view = persisted
	}
	return s, nil
}

// Search issues a catalog query and commits the result as the session's
// current view unless a newer search was issued while it was in flight. The
// fetched page is returned to the caller either way; stale pages just never
// overwrite newer state.
func (s *Session) Search(ctx context.Context, query string, page int) (*catalog.SearchResult, error) {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	s.searchSeq++
	seq := s.searchSeq
	s.view = SearchView{Query: query, Page: page}
	s.mu.Unlock()

	s.persistView(ctx)

	start := time.Now()
	result, err := s.catalog.Search(ctx, query, page)
	s.metrics.ObserveUpstream("catalog", time.Since(start))
	if err != nil {
		s.metrics.IncUpstreamFailure("catalog")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.searchSeq {
		s.metrics.IncStaleDiscard("search")
		return result, nil
	}
	s.result = result
	return result, nil
}

func (s *Session) persistView(ctx context.Context) {
	s.mu.Lock()
	view := s.view
	s.mu.Unlock()
	if err := s.store.Save(ctx, store.SlotSearch, view); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithField(ctx, "slot", store.SlotSearch), "search view persist failed", err)
	}
}

// CurrentSearch returns the latest issued view and the latest committed
// result; the result is nil until a search completes.
func (s *Session) CurrentSearch() (SearchView, *catalog.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.result
}

// AddItem appends or merges a cart line.
func (s *Session) AddItem(ctx context.Context, id int64, quantity int, product catalog.Product) (cart.State, error) {
	return s.dispatch(ctx, cart.Add{ID: id, Quantity: quantity, Product: product})
}

// RemoveItem deletes a cart line.
func (s *Session) RemoveItem(ctx context.Context, id int64) (cart.State, error) {
	return s.dispatch(ctx, cart.Remove{ID: id})
}

// SetItemQuantity sets a line's quantity exactly; non-positive removes.
func (s *Session) SetItemQuantity(ctx context.Context, id int64, quantity int) (cart.State, error) {
	return s.dispatch(ctx, cart.SetQuantity{ID: id, Quantity: quantity})
}

// ClearCart empties the cart.
func (s *Session) ClearCart(ctx context.Context) (cart.State, error) {
	return s.dispatch(ctx, cart.Clear{})
}

func (s *Session) dispatch(ctx context.Context, cmd cart.Command) (cart.State, error) {
	state, err := s.cart.Dispatch(ctx, cmd)
	if err != nil {
		return state, err
	}
	// A held suggestion describes a cart that no longer exists.
	s.mu.Lock()
	s.suggestion = nil
	s.mu.Unlock()
	return state, nil
}

// Cart returns the current cart snapshot.
func (s *Session) Cart() cart.State {
	return s.cart.Snapshot()
}

// Optimize submits the current cart to the oracle. The result is held as the
// session's suggestion only when the cart is unchanged since the request was
// issued; otherwise it is discarded and the caller is told to retry.
func (s *Session) Optimize(ctx context.Context, weights optimize.Weights) (*optimize.Suggestion, error) {
	state, version := s.cart.SnapshotVersion()
	if len(state.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot optimize an empty cart")
	}

	items := make([]optimize.LineItem, 0, len(state.Items))
	for _, line := range state.Items {
		items = append(items, optimize.LineItem{ID: line.ID, Quantity: line.Quantity})
	}

	start := time.Now()
	suggestion, err := s.optimizer.Optimize(ctx, items, weights)
	s.metrics.ObserveUpstream("optimizer", time.Since(start))
	if err != nil {
		s.metrics.IncUpstreamFailure("optimizer")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart.Version() != version {
		s.metrics.IncStaleDiscard("optimize")
		return nil, pkgerrors.New(pkgerrors.CodeOptimization, "cart changed while optimizing, retry with the current cart")
	}
	s.suggestion = suggestion
	return suggestion, nil
}

// Suggestion returns the most recent committed suggestion, if any.
func (s *Session) Suggestion() (*optimize.Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suggestion == nil {
		return nil, false
	}
	return s.suggestion, true
}
