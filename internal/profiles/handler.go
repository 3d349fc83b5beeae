package profiles

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jvz16/traeme/internal/domain"
)

const defaultTopShoppers = 5

type Handler struct {
	repo   *ProfileRepository
	logger *slog.Logger
}

func NewHandler(repo *ProfileRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

type registerCustomerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Country    string `json:"country"`
	Province   string `json:"province"`
	Canton     string `json:"canton"`
	District   string `json:"district"`
	Phone      string `json:"phone"`
	StyleNotes string `json:"style_notes"`
}

func (h *Handler) HandleRegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var req registerCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Phone == "" {
		h.writeError(w, http.StatusBadRequest, "missing name or phone")
		return
	}

	if _, ok := domain.CountryNames[req.Country]; !ok {
		req.Country = "CR"
	}

	customer := &domain.CustomerProfile{
		Name:       req.Name,
		Email:      req.Email,
		Country:    req.Country,
		Province:   req.Province,
		Canton:     req.Canton,
		District:   req.District,
		Phone:      req.Phone,
		StyleNotes: req.StyleNotes,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.repo.CreateCustomer(r.Context(), customer); err != nil {
		h.logger.Error("failed to register customer", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("customer registered", "customer_id", customer.ID)
	h.writeJSON(w, http.StatusCreated, customer)
}

type registerShopperRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Country     string   `json:"country"`
	Province    string   `json:"province"`
	Canton      string   `json:"canton"`
	District    string   `json:"district"`
	Phone       string   `json:"phone"`
	Bio         string   `json:"bio"`
	Specialties []string `json:"specialties"`
	BaseCity    string   `json:"base_city"`
}

func (h *Handler) HandleRegisterShopper(w http.ResponseWriter, r *http.Request) {
	var req registerShopperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Phone == "" {
		h.writeError(w, http.StatusBadRequest, "missing name or phone")
		return
	}

	if _, ok := domain.CountryNames[req.Country]; !ok {
		req.Country = "CR"
	}

	shopper := &domain.ShopperProfile{
		Name:        req.Name,
		Email:       req.Email,
		Country:     req.Country,
		Province:    req.Province,
		Canton:      req.Canton,
		District:    req.District,
		Phone:       req.Phone,
		Bio:         req.Bio,
		Specialties: req.Specialties,
		BaseCity:    req.BaseCity,
		CreatedAt:   time.Now().UTC(),
	}
	if shopper.Specialties == nil {
		shopper.Specialties = []string{}
	}

	if err := h.repo.CreateShopper(r.Context(), shopper); err != nil {
		h.logger.Error("failed to register shopper", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// New shoppers start with the schema defaults; reflect them back
	// without a second read.
	shopper.AcceptsPartialPayments = true
	shopper.AcceptsNewOrders = true

	h.logger.Info("shopper registered", "shopper_id", shopper.ID)
	h.writeJSON(w, http.StatusCreated, shopper)
}

func (h *Handler) HandleListShoppers(w http.ResponseWriter, r *http.Request) {
	shoppers, err := h.repo.ListShoppers(r.Context())
	if err != nil {
		h.logger.Error("failed to list shoppers", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, shoppers)
}

type shopperDetailResponse struct {
	*domain.ShopperProfile
	CurrentLocation string `json:"current_location"`
	WhatsAppLink    string `json:"whatsapp_link,omitempty"`
}

func (h *Handler) HandleGetShopper(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	shopper, err := h.repo.GetShopper(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get shopper", "error", err, "shopper_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if shopper == nil {
		h.writeError(w, http.StatusNotFound, "shopper not found")
		return
	}

	h.writeJSON(w, http.StatusOK, shopperDetailResponse{
		ShopperProfile:  shopper,
		CurrentLocation: shopper.CurrentLocation(),
		WhatsAppLink:    shopper.WhatsAppLink(),
	})
}

type updateShopperRequest struct {
	Province               *string   `json:"province"`
	Canton                 *string   `json:"canton"`
	District               *string   `json:"district"`
	Phone                  *string   `json:"phone"`
	Bio                    *string   `json:"bio"`
	Specialties            *[]string `json:"specialties"`
	BaseCity               *string   `json:"base_city"`
	Abroad                 *bool     `json:"abroad"`
	AbroadCity             *string   `json:"abroad_city"`
	AbroadCountry          *string   `json:"abroad_country"`
	ReturnDate             *string   `json:"return_date"`
	AcceptsPartialPayments *bool     `json:"accepts_partial_payments"`
	AcceptsNewOrders       *bool     `json:"accepts_new_orders"`
	MinUsualAmount         *string   `json:"min_usual_amount"`
	MaxUsualAmount         *string   `json:"max_usual_amount"`
	FeeSchedule            *string   `json:"fee_schedule"`
	PhotoURL               *string   `json:"photo_url"`
}

func (h *Handler) HandleUpdateShopper(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateShopperRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	shopper, err := h.repo.GetShopper(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get shopper", "error", err, "shopper_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if shopper == nil {
		h.writeError(w, http.StatusNotFound, "shopper not found")
		return
	}

	if req.Province != nil {
		shopper.Province = *req.Province
	}
	if req.Canton != nil {
		shopper.Canton = *req.Canton
	}
	if req.District != nil {
		shopper.District = *req.District
	}
	if req.Phone != nil {
		shopper.Phone = *req.Phone
	}
	if req.Bio != nil {
		shopper.Bio = *req.Bio
	}
	if req.Specialties != nil {
		shopper.Specialties = *req.Specialties
	}
	if req.BaseCity != nil {
		shopper.BaseCity = *req.BaseCity
	}
	if req.Abroad != nil {
		shopper.Abroad = *req.Abroad
	}
	if req.AbroadCity != nil {
		shopper.AbroadCity = *req.AbroadCity
	}
	if req.AbroadCountry != nil {
		shopper.AbroadCountry = *req.AbroadCountry
	}
	if req.ReturnDate != nil {
		if *req.ReturnDate == "" {
			shopper.ReturnDate = nil
		} else if d, err := time.Parse("2006-01-02", *req.ReturnDate); err == nil {
			shopper.ReturnDate = &d
		}
	}
	if req.AcceptsPartialPayments != nil {
		shopper.AcceptsPartialPayments = *req.AcceptsPartialPayments
	}
	if req.AcceptsNewOrders != nil {
		shopper.AcceptsNewOrders = *req.AcceptsNewOrders
	}
	if req.MinUsualAmount != nil {
		if n, err := strconv.ParseInt(*req.MinUsualAmount, 10, 64); err == nil && n >= 0 {
			shopper.MinUsualAmount = n
		}
	}
	if req.MaxUsualAmount != nil {
		if n, err := strconv.ParseInt(*req.MaxUsualAmount, 10, 64); err == nil && n >= 0 {
			shopper.MaxUsualAmount = n
		}
	}
	if req.FeeSchedule != nil {
		shopper.FeeSchedule = *req.FeeSchedule
	}
	if req.PhotoURL != nil {
		shopper.PhotoURL = *req.PhotoURL
	}

	if err := h.repo.UpdateShopper(r.Context(), shopper); err != nil {
		h.logger.Error("failed to update shopper", "error", err, "shopper_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("shopper profile updated", "shopper_id", id)
	h.writeJSON(w, http.StatusOK, shopper)
}

func (h *Handler) HandleTopShoppers(w http.ResponseWriter, r *http.Request) {
	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		h.writeError(w, http.StatusBadRequest, "missing customer_id")
		return
	}

	customer, err := h.repo.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to get customer", "error", err, "customer_id", customerID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if customer == nil {
		h.writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	limit := defaultTopShoppers
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	shoppers, err := h.repo.TopShoppersFor(r.Context(), customer, limit)
	if err != nil {
		h.logger.Error("failed to rank shoppers", "error", err, "customer_id", customerID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, shoppers)
}

func (h *Handler) HandleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	customer, err := h.repo.GetCustomer(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get customer", "error", err, "customer_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if customer == nil {
		h.writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	h.writeJSON(w, http.StatusOK, customer)
}

type createTripRequest struct {
	Origin             string `json:"origin"`
	DestinationCity    string `json:"destination_city"`
	DestinationCountry string `json:"destination_country"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
	Notes              string `json:"notes"`
}

func (h *Handler) HandleCreateTrip(w http.ResponseWriter, r *http.Request) {
	shopperID := r.PathValue("id")

	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.DestinationCity == "" {
		h.writeError(w, http.StatusBadRequest, "missing destination city")
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid end date")
		return
	}

	shopper, err := h.repo.GetShopper(r.Context(), shopperID)
	if err != nil {
		h.logger.Error("failed to get shopper", "error", err, "shopper_id", shopperID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if shopper == nil {
		h.writeError(w, http.StatusNotFound, "shopper not found")
		return
	}

	trip := &domain.Trip{
		ShopperID:          shopperID,
		Origin:             req.Origin,
		DestinationCity:    req.DestinationCity,
		DestinationCountry: req.DestinationCountry,
		StartDate:          startDate,
		EndDate:            endDate,
		Notes:              req.Notes,
		CreatedAt:          time.Now().UTC(),
	}

	if err := h.repo.CreateTrip(r.Context(), trip); err != nil {
		h.logger.Error("failed to create trip", "error", err, "shopper_id", shopperID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("trip created", "trip_id", trip.ID, "shopper_id", shopperID, "destination", trip.DestinationCity)
	h.writeJSON(w, http.StatusCreated, trip)
}

type tripsResponse struct {
	Upcoming []domain.Trip `json:"upcoming"`
	Past     []domain.Trip `json:"past"`
}

func (h *Handler) HandleListTrips(w http.ResponseWriter, r *http.Request) {
	shopperID := r.PathValue("id")

	trips, err := h.repo.ListTrips(r.Context(), shopperID)
	if err != nil {
		h.logger.Error("failed to list trips", "error", err, "shopper_id", shopperID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	resp := tripsResponse{Upcoming: []domain.Trip{}, Past: []domain.Trip{}}
	for _, trip := range trips {
		if !trip.StartDate.Before(today) {
			resp.Upcoming = append(resp.Upcoming, trip)
		} else {
			resp.Past = append(resp.Past, trip)
		}
	}

	// Past trips read newest first.
	for i, j := 0, len(resp.Past)-1; i < j; i, j = i+1, j-1 {
		resp.Past[i], resp.Past[j] = resp.Past[j], resp.Past[i]
	}

	h.writeJSON(w, http.StatusOK, resp)
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
