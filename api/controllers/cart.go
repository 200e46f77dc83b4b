package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/excommerce-backend/api/middleware"
	"github.com/angelmondragon/excommerce-backend/api/responses"
	"github.com/angelmondragon/excommerce-backend/api/validators"
	"github.com/angelmondragon/excommerce-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
)

type addCartItemRequest struct {
	ItemCode string `json:"item_code" validate:"required,max=140"`
	Qty      *int   `json:"qty,omitempty" validate:"omitempty,min=1,max=10000"`
}

type updateCartItemRequest struct {
	Qty *int `json:"qty" validate:"required,min=0,max=10000"`
}

type cartMutationResponse struct {
	Message    string          `json:"message"`
	CartItems  []cart.LineItem `json:"cart_items"`
	TotalItems int             `json:"total_items"`
}

func mutationResponse(result *cart.Result) cartMutationResponse {
	out := cartMutationResponse{Message: result.Message, CartItems: []cart.LineItem{}}
	if result.Cart != nil {
		if result.Cart.Items != nil {
			out.CartItems = result.Cart.Items
		}
		out.TotalItems = result.Cart.TotalItems
	}
	return out
}

// CartGet returns the caller's cart.
func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		current, err := svc.Get(r.Context(), middleware.CartIdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if current.Items == nil {
			current.Items = []cart.LineItem{}
		}
		responses.WriteSuccess(w, current)
	}
}

// CartAddItem adds qty (default 1) of an item, merging into an existing line.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty := 1
		if body.Qty != nil {
			qty = *body.Qty
		}

		result, err := svc.Add(r.Context(), middleware.CartIdentityFromContext(r.Context()), body.ItemCode, qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mutationResponse(result))
	}
}

// CartUpdateItem overwrites a line quantity; zero removes the line.
func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		itemCode := chi.URLParam(r, "itemCode")
		if itemCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item code is required"))
			return
		}

		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Update(r.Context(), middleware.CartIdentityFromContext(r.Context()), itemCode, *body.Qty)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mutationResponse(result))
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		itemCode := chi.URLParam(r, "itemCode")
		if itemCode == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "item code is required"))
			return
		}

		result, err := svc.Remove(r.Context(), middleware.CartIdentityFromContext(r.Context()), itemCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mutationResponse(result))
	}
}

func CartClear(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		result, err := svc.Clear(r.Context(), middleware.CartIdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mutationResponse(result))
	}
}
