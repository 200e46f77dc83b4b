package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/excommerce-backend/api/responses"
	"github.com/angelmondragon/excommerce-backend/api/validators"
	"github.com/angelmondragon/excommerce-backend/internal/customers"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
	"github.com/angelmondragon/excommerce-backend/pkg/logger"
)

const maxPhoneLen = 32

type customerLookupResponse struct {
	Found    bool               `json:"found"`
	Customer *customers.Summary `json:"customer,omitempty"`
	Source   string             `json:"source,omitempty"`
}

// CustomersLookup finds a customer by exact phone number.
func CustomersLookup(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		phone := validators.QueryString(r, "phone_number", maxPhoneLen)
		match, err := svc.FindByPhone(r.Context(), phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if match == nil {
			responses.WriteSuccess(w, customerLookupResponse{Found: false})
			return
		}
		responses.WriteSuccess(w, customerLookupResponse{Found: true, Customer: &match.Customer, Source: match.Source})
	}
}

// CustomersCreate creates a customer with a primary contact and shipping address.
func CustomersCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var body customers.CreateCustomerInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.CreateWithDetails(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// CustomersCreateFromGuest returns the customer already holding the guest
// email, or creates one with billing and shipping addresses.
func CustomersCreateFromGuest(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var body customers.GuestCustomerInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.CreateFromGuest(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if detail.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, detail)
	}
}

func CustomersAddresses(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		addresses, err := svc.Addresses(r.Context(), strings.TrimSpace(chi.URLParam(r, "customerId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if addresses == nil {
			addresses = []customers.AddressView{}
		}
		responses.WriteSuccess(w, map[string]any{"addresses": addresses})
	}
}
