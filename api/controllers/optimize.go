package controllers

import (
	"net/http"

	"github.com/smartretail/storefront/api/responses"
	"github.com/smartretail/storefront/api/validators"
	"github.com/smartretail/storefront/internal/optimize"
	"github.com/smartretail/storefront/internal/session"
	pkgerrors "github.com/smartretail/storefront/pkg/errors"
	"github.com/smartretail/storefront/pkg/logger"
)

type optimizeWeights struct {
	Price float64 `json:"price" validate:"gte=0,lte=1"`
	CO2   float64 `json:"co2" validate:"gte=0,lte=1"`
}

type optimizeRequest struct {
	Weights *optimizeWeights `json:"weights"`
}

// OptimizeCart submits the current cart to the optimization oracle. Omitted
// weights weigh price and CO2 equally.
func OptimizeCart(sess *session.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}

		weights := optimize.DefaultWeights()
		if r.ContentLength != 0 {
			var body optimizeRequest
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if body.Weights != nil {
				weights = optimize.Weights{Price: body.Weights.Price, CO2: body.Weights.CO2}
			}
		}

		suggestion, err := sess.Optimize(r.Context(), weights)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, suggestion)
	}
}

// CartSuggestion returns the suggestion held for the current cart, if one
// survived since the last optimization.
func CartSuggestion(sess *session.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}

		suggestion, ok := sess.Suggestion()
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no suggestion for the current cart"))
			return
		}

		responses.WriteSuccess(w, suggestion)
	}
}
