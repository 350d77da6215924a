package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/bpay/checkout-system/checkout-service/application"
	"github.com/bpay/checkout-system/checkout-service/domain"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// CheckoutHandlers contains checkout HTTP handlers
type CheckoutHandlers struct {
	quoteAllocation       *application.QuoteAllocation
	createCheckout        *application.CreateCheckout
	getCheckout           *application.GetCheckout
	updateCheckoutSources *application.UpdateCheckoutSources
	submitCheckout        *application.SubmitCheckout
	reopenCheckout        *application.ReopenCheckout
	handleGatewayWebhooks *application.HandleGatewayWebhooks
}

// NewCheckoutHandlers creates new checkout handlers
func NewCheckoutHandlers(
	quoteAllocation *application.QuoteAllocation,
	createCheckout *application.CreateCheckout,
	getCheckout *application.GetCheckout,
	updateCheckoutSources *application.UpdateCheckoutSources,
	submitCheckout *application.SubmitCheckout,
	reopenCheckout *application.ReopenCheckout,
	handleGatewayWebhooks *application.HandleGatewayWebhooks,
) *CheckoutHandlers {
	return &CheckoutHandlers{
		quoteAllocation:       quoteAllocation,
		createCheckout:        createCheckout,
		getCheckout:           getCheckout,
		updateCheckoutSources: updateCheckoutSources,
		submitCheckout:        submitCheckout,
		reopenCheckout:        reopenCheckout,
		handleGatewayWebhooks: handleGatewayWebhooks,
	}
}

// QuoteAllocation handles allocation quote requests
func (h *CheckoutHandlers) QuoteAllocation(w http.ResponseWriter, r *http.Request) {
	var cmd application.QuoteAllocationCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.quoteAllocation.Execute(r.Context(), &cmd)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CreateCheckout handles checkout creation requests
func (h *CheckoutHandlers) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateCheckoutCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	response, err := h.createCheckout.Execute(r.Context(), &cmd)
	if err != nil {
		if strings.Contains(err.Error(), "invalid command") {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// GetCheckout handles checkout retrieval requests
func (h *CheckoutHandlers) GetCheckout(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "id")
	if checkoutID == "" {
		http.Error(w, "Checkout ID is required", http.StatusBadRequest)
		return
	}

	query := &application.GetCheckoutQuery{
		CheckoutID: checkoutID,
	}

	response, err := h.getCheckout.Execute(r.Context(), query)
	if err != nil {
		if strings.Contains(err.Error(), "checkout not found") {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// UpdateSources handles source set replacement requests
func (h *CheckoutHandlers) UpdateSources(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "id")
	if checkoutID == "" {
		http.Error(w, "Checkout ID is required", http.StatusBadRequest)
		return
	}

	var cmd application.UpdateCheckoutSourcesCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.CheckoutID = checkoutID

	response, err := h.updateCheckoutSources.Execute(r.Context(), &cmd)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "checkout not found"):
			http.Error(w, err.Error(), http.StatusNotFound)
		case strings.Contains(err.Error(), "invalid sources"):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case strings.Contains(err.Error(), "only be updated while collecting"):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// SubmitCheckout handles checkout submission requests
func (h *CheckoutHandlers) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "id")
	if checkoutID == "" {
		http.Error(w, "Checkout ID is required", http.StatusBadRequest)
		return
	}

	cmd := &application.SubmitCheckoutCommand{
		CheckoutID: checkoutID,
	}

	response, err := h.submitCheckout.Execute(r.Context(), cmd)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "checkout not found"):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrNoSourceSelected) || errors.Is(err, domain.ErrAllocationMismatch):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case strings.Contains(err.Error(), "already in flight"):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ReopenCheckout handles checkout reopen requests
func (h *CheckoutHandlers) ReopenCheckout(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "id")
	if checkoutID == "" {
		http.Error(w, "Checkout ID is required", http.StatusBadRequest)
		return
	}

	cmd := &application.ReopenCheckoutCommand{
		CheckoutID: checkoutID,
	}

	if err := h.reopenCheckout.Execute(r.Context(), cmd); err != nil {
		switch {
		case strings.Contains(err.Error(), "checkout not found"):
			http.Error(w, err.Error(), http.StatusNotFound)
		case strings.Contains(err.Error(), "only a failed checkout"):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GatewayWebhook handles processor webhook deliveries
func (h *CheckoutHandlers) GatewayWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if provider == "" {
		http.Error(w, "Provider is required", http.StatusBadRequest)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	cmd := &application.HandleGatewayWebhooksCommand{
		Provider:  provider,
		Payload:   payload,
		Signature: r.Header.Get("X-Webhook-Signature"),
	}

	if err := h.handleGatewayWebhooks.Execute(r.Context(), cmd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// RegisterRoutes registers checkout routes
func (h *CheckoutHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/checkouts", func(r chi.Router) {
		r.Post("/", h.CreateCheckout)
		r.Post("/quote", h.QuoteAllocation)
		r.Get("/{id}", h.GetCheckout)
		r.Put("/{id}/sources", h.UpdateSources)
		r.Post("/{id}/submit", h.SubmitCheckout)
		r.Post("/{id}/reopen", h.ReopenCheckout)
	})

	r.Post("/webhooks/{provider}", h.GatewayWebhook)
}
