package controllers

import (
	"net/http"

	"github.com/smartretail/storefront/api/responses"
	"github.com/smartretail/storefront/api/validators"
	"github.com/smartretail/storefront/internal/catalog"
	"github.com/smartretail/storefront/internal/session"
	pkgerrors "github.com/smartretail/storefront/pkg/errors"
	"github.com/smartretail/storefront/pkg/logger"
)

const maxPage = 100000

type searchViewResponse struct {
	Query  string                `json:"query"`
	Page   int                   `json:"page"`
	Result *catalog.SearchResult `json:"result,omitempty"`
}

// SearchProducts runs a catalog query through the session so stale
// responses are dropped, and returns the fetched page.
func SearchProducts(sess *session.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, maxPage)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := sess.Search(r.Context(), r.URL.Query().Get("q"), page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// CurrentSearch exposes the persisted search view and the latest committed
// result, so a returning client resumes where it left off.
func CurrentSearch(sess *session.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}

		view, result := sess.CurrentSearch()
		responses.WriteSuccess(w, searchViewResponse{
			Query:  view.Query,
			Page:   view.Page,
			Result: result,
		})
	}
}
