package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/excommerce-backend/api/middleware"
	"github.com/angelmondragon/excommerce-backend/api/responses"
	"github.com/angelmondragon/excommerce-backend/api/validators"
	"github.com/angelmondragon/excommerce-backend/internal/orders"
	"github.com/angelmondragon/excommerce-backend/internal/salesorders"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
)

type placeOrderRequest struct {
	CustomerInfo *orders.CustomerInfo `json:"customer_info,omitempty"`
	DeliveryInfo *orders.DeliveryInfo `json:"delivery_info,omitempty"`
}

// OrdersPlace turns the caller's cart into a submitted draft order. An empty
// body reaches the service, which reports the missing customer block.
func OrdersPlace(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var body placeOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil && !isEmptyBody(err) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), middleware.CartIdentityFromContext(r.Context()), body.CustomerInfo, body.DeliveryInfo)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// isEmptyBody reports a decode failure caused by a request without a body.
func isEmptyBody(err error) bool {
	return errors.Is(err, validators.ErrEmptyBody)
}

func OrdersGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		detail, err := svc.Get(r.Context(), orderIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func OrdersStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		status, err := svc.Status(r.Context(), orderIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

// OrdersAssignCustomer attaches a customer built from the order's guest fields.
func OrdersAssignCustomer(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		assignment, err := svc.AssignGuestCustomer(r.Context(), orderIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if assignment.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, assignment)
	}
}

// SalesOrderCreate promotes a submitted draft order to a sales order.
func SalesOrderCreate(svc salesorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales order service unavailable"))
			return
		}

		result, err := svc.Promote(r.Context(), orderIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func SalesOrderStatus(svc salesorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales order service unavailable"))
			return
		}

		status, err := svc.Status(r.Context(), orderIDParam(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}

func orderIDParam(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "orderId"))
}
