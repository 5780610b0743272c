package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/smartretail/storefront/api/responses"
	"github.com/smartretail/storefront/api/validators"
	"github.com/smartretail/storefront/internal/cart"
	"github.com/smartretail/storefront/internal/catalog"
	"github.com/smartretail/storefront/internal/session"
	pkgerrors "github.com/smartretail/storefront/pkg/errors"
	"github.com/smartretail/storefront/pkg/logger"
)

type addCartItemRequest struct {
	ID int64 `json:"id" validate:"required"`
	// Quantity is validated by the cart itself so that a zero or negative
	// quantity is rejected as an invalid command, not a malformed body.
	Quantity int             `json:"quantity"`
	Product  catalog.Product `json:"product"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartLineResponse struct {
	ID       int64           `json:"id"`
	Quantity int             `json:"quantity"`
	Product  catalog.Product `json:"product"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Items []cartLineResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

func newCartResponse(state cart.State) cartResponse {
	resp := cartResponse{
		Items: make([]cartLineResponse, 0, len(state.Items)),
		Total: decimal.Zero,
	}
	for _, line := range state.Items {
		subtotal := line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		resp.Items = append(resp.Items, cartLineResponse{
			ID:       line.ID,
			Quantity: line.Quantity,
			Product:  line.Product,
			Subtotal: subtotal,
		})
		resp.Total = resp.Total.Add(subtotal)
	}
	return resp
}

// GetCart returns the current cart snapshot with line subtotals.
func GetCart(sess *session.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}
		responses.WriteSuccess(w, newCartResponse(sess.Cart()))
	}
}

// AddCartItem merges a product into the cart, creating or growing its line.
func AddCartItem(sess *session.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sess.AddItem(r.Context(), body.ID, body.Quantity, body.Product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(state))
	}
}

// SetCartItemQuantity sets a line's quantity exactly; a non-positive
// quantity removes the line.
func SetCartItemQuantity(sess *session.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}

		id, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sess.SetItemQuantity(r.Context(), id, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(state))
	}
}

// RemoveCartItem deletes a line; removing an absent id is a no-op.
func RemoveCartItem(sess *session.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}

		id, err := parseProductID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sess.RemoveItem(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(state))
	}
}

// ClearCart empties the cart.
func ClearCart(sess *session.Session, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session unavailable"))
			return
		}

		state, err := sess.ClearCart(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCartResponse(state))
	}
}

func parseProductID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "product id must be a positive integer").
			WithDetails(map[string]any{"id": raw})
	}
	return id, nil
}
