package api

import (
	"errors"
	"net/http"

	"github.com/mergington/activities-portal/internal/domain"
	"github.com/mergington/activities-portal/internal/pkg/httputil"
)

// ListCustomers returns all customers in insertion order.
//
//	GET /customers
func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.ListCustomers(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, customers)
}

// CreateCustomer validates and persists a customer.
//
//	POST /customers
func (h *Handlers) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in domain.CustomerInput
	if !httputil.Decode(w, r, &in) {
		return
	}

	res, err := h.customers.CreateCustomer(r.Context(), in)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr) && verr.MissingFields():
			httputil.Unprocessable(w, verr.Message, verr.Fields)
		case errors.As(err, &verr):
			httputil.BadRequest(w, verr.Message)
		default:
			httputil.InternalError(w, err)
		}
		return
	}
	httputil.OK(w, res)
}
