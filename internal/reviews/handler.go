package reviews

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jvz16/traeme/internal/domain"
	"github.com/jvz16/traeme/internal/messaging"
)

type Handler struct {
	repo     *ReviewRepository
	producer *messaging.Producer
	logger   *slog.Logger
}

func NewHandler(repo *ReviewRepository, producer *messaging.Producer, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

type createReviewRequest struct {
	CustomerID string `json:"customer_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CustomerID == "" {
		h.writeError(w, http.StatusBadRequest, "missing customer id")
		return
	}

	if req.Rating < 1 || req.Rating > 5 {
		h.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	review, err := h.repo.Create(r.Context(), orderID, req.CustomerID, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotDelivered):
			h.writeError(w, http.StatusConflict, "order is not delivered")
		case errors.Is(err, ErrAlreadyReviewed):
			h.writeError(w, http.StatusConflict, "order already reviewed")
		default:
			h.logger.Error("failed to create review", "error", err, "order_id", orderID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	if review == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if h.producer != nil {
		event := domain.ReviewCreatedEvent{
			OrderID:   review.OrderID,
			ShopperID: review.ShopperID,
			Rating:    review.Rating,
			Timestamp: time.Now().UTC(),
		}
		if err := h.producer.Publish(r.Context(), orderID, domain.EventReviewCreated, event); err != nil {
			h.logger.Error("failed to publish review created event", "error", err, "order_id", orderID)
		}
	}

	h.logger.Info("review created", "review_id", review.ID, "order_id", orderID,
		"shopper_id", review.ShopperID, "rating", review.Rating)
	h.writeJSON(w, http.StatusCreated, review)
}

func (h *Handler) HandleListForShopper(w http.ResponseWriter, r *http.Request) {
	shopperID := r.PathValue("id")

	reviews, err := h.repo.ListForShopper(r.Context(), shopperID)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err, "shopper_id", shopperID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
