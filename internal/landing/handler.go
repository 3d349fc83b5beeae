package landing

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type Handler struct {
	repo   *LandingRepository
	logger *slog.Logger
}

func NewHandler(repo *LandingRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// HandleGet assembles the home page payload.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.repo.Stats(ctx)
	if err != nil {
		h.logger.Error("failed to load landing stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	inUSA, err := h.repo.ShoppersInUSA(ctx)
	if err != nil {
		h.logger.Error("failed to load shoppers abroad", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	traveling, err := h.repo.TravelingToUSA(ctx, time.Now().UTC())
	if err != nil {
		h.logger.Error("failed to load upcoming travelers", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	slides, err := h.repo.ActiveSlides(ctx)
	if err != nil {
		h.logger.Error("failed to load carousel slides", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	hero, err := h.repo.ActiveHero(ctx)
	if err != nil {
		h.logger.Error("failed to load hero background", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	page := Page{
		Stats:          stats,
		ShoppersInUSA:  inUSA,
		TravelingToUSA: traveling,
		CarouselSlides: slides,
		HeroBackground: hero,
	}

	h.writeJSON(w, http.StatusOK, page)
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
