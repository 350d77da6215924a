package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bpay/checkout-system/card-service/application"
	"github.com/go-chi/chi/v5"
)

// CardHandlers contains card HTTP handlers
type CardHandlers struct {
	getCard      *application.GetCard
	captureCard  *application.CaptureCard
	freezeCard   *application.FreezeCard
	unfreezeCard *application.UnfreezeCard
	cancelCard   *application.CancelCard
}

// NewCardHandlers creates new card handlers
func NewCardHandlers(
	getCard *application.GetCard,
	captureCard *application.CaptureCard,
	freezeCard *application.FreezeCard,
	unfreezeCard *application.UnfreezeCard,
	cancelCard *application.CancelCard,
) *CardHandlers {
	return &CardHandlers{
		getCard:      getCard,
		captureCard:  captureCard,
		freezeCard:   freezeCard,
		unfreezeCard: unfreezeCard,
		cancelCard:   cancelCard,
	}
}

// GetCard handles card retrieval requests
func (h *CardHandlers) GetCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "id")
	if cardID == "" {
		http.Error(w, "Card ID is required", http.StatusBadRequest)
		return
	}

	response, err := h.getCard.Execute(r.Context(), &application.GetCardQuery{CardID: cardID})
	if err != nil {
		if strings.Contains(err.Error(), "card not found") {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// CaptureCard handles merchant capture requests
func (h *CardHandlers) CaptureCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "id")
	if cardID == "" {
		http.Error(w, "Card ID is required", http.StatusBadRequest)
		return
	}

	var cmd application.CaptureCardCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.CardID = cardID

	response, err := h.captureCard.Execute(r.Context(), &cmd)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "card not found"):
			http.Error(w, err.Error(), http.StatusNotFound)
		case strings.Contains(err.Error(), "invalid command"):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case strings.Contains(err.Error(), "insufficient card balance"):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case strings.Contains(err.Error(), "card is not active"):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// FreezeCard handles card freeze requests
func (h *CardHandlers) FreezeCard(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, func(ctx *http.Request, cardID string) error {
		return h.freezeCard.Execute(ctx.Context(), &application.FreezeCardCommand{CardID: cardID})
	})
}

// UnfreezeCard handles card unfreeze requests
func (h *CardHandlers) UnfreezeCard(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, func(ctx *http.Request, cardID string) error {
		return h.unfreezeCard.Execute(ctx.Context(), &application.UnfreezeCardCommand{CardID: cardID})
	})
}

// CancelCard handles card cancellation requests
func (h *CardHandlers) CancelCard(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, func(ctx *http.Request, cardID string) error {
		return h.cancelCard.Execute(ctx.Context(), &application.CancelCardCommand{CardID: cardID})
	})
}

// changeStatus shares the request plumbing of the freeze, unfreeze and cancel
// endpoints
func (h *CardHandlers) changeStatus(w http.ResponseWriter, r *http.Request, execute func(r *http.Request, cardID string) error) {
	cardID := chi.URLParam(r, "id")
	if cardID == "" {
		http.Error(w, "Card ID is required", http.StatusBadRequest)
		return
	}

	if err := execute(r, cardID); err != nil {
		switch {
		case strings.Contains(err.Error(), "card not found"):
			http.Error(w, err.Error(), http.StatusNotFound)
		case strings.Contains(err.Error(), "card is"), strings.Contains(err.Error(), "cannot"):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes registers card routes
func (h *CardHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/cards", func(r chi.Router) {
		r.Get("/{id}", h.GetCard)
		r.Post("/{id}/capture", h.CaptureCard)
		r.Post("/{id}/freeze", h.FreezeCard)
		r.Post("/{id}/unfreeze", h.UnfreezeCard)
		r.Post("/{id}/cancel", h.CancelCard)
	})
}
