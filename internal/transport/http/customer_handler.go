// Copyright 2026 The Registra Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/registra/registra/internal/customer"
	"github.com/registra/registra/internal/entity"
	"github.com/registra/registra/internal/observability/logger"
)

// ListCustomers lists the customers visible to the request's tenant
// @Summary List customers
// @Description List the enabled customers of the current tenant
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Router /customers [get]
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.List(r.Context(), GetScope(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list customers", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"customers": customers,
	})
}

// CreateCustomer creates a customer under the request's tenant
// @Summary Create customer
// @Description Create a customer owned by the current tenant
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} customer.Customer
// @Failure 400 {object} map[string]string
// @Router /customers [post]
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c customer.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	created, err := h.customerService.Create(r.Context(), GetScope(r.Context()), claims.PrincipalID, &c)
	if err != nil {
		switch {
		case errors.Is(err, customer.ErrNameRequired):
			respondError(w, http.StatusBadRequest, "customer name is required")
		case errors.Is(err, entity.ErrTenantDisabled), errors.Is(err, entity.ErrNoTenant):
			respondError(w, http.StatusForbidden, "tenant cannot accept new records")
		default:
			slog.ErrorContext(r.Context(), "failed to create customer", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to create customer")
		}
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// GetCustomer retrieves one customer of the current tenant
// @Summary Get customer
// @Tags Customers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} customer.Customer
// @Failure 404 {object} map[string]string
// @Router /customers/{customerID} [get]
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	c, err := h.customerService.Get(r.Context(), GetScope(r.Context()), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "customer not found")
		return
	}

	respondJSON(w, http.StatusOK, c)
}

// UpdateCustomer rewrites a customer's mutable fields
// @Summary Update customer
// @Tags Customers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} customer.Customer
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /customers/{customerID} [put]
func (h *Handler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	var c customer.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := GetClaims(r.Context())
	updated, err := h.customerService.Update(r.Context(), GetScope(r.Context()), claims.PrincipalID, id, &c)
	if err != nil {
		switch {
		case errors.Is(err, customer.ErrNameRequired):
			respondError(w, http.StatusBadRequest, "customer name is required")
		case errors.Is(err, entity.ErrNotFound):
			respondError(w, http.StatusNotFound, "customer not found")
		default:
			slog.ErrorContext(r.Context(), "failed to update customer", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "failed to update customer")
		}
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteCustomer soft-deletes a customer. The row survives with
// enabled = false and disappears from default queries.
// @Summary Delete customer
// @Tags Customers
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /customers/{customerID} [delete]
func (h *Handler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if err := h.customerService.Disable(r.Context(), GetScope(r.Context()), claims.PrincipalID, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			respondError(w, http.StatusNotFound, "customer not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete customer", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete customer")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusNotFound, "customer not found")
		return 0, false
	}
	return id, true
}
