package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jvz16/traeme/internal/domain"
	"github.com/jvz16/traeme/internal/messaging"
)

type Handler struct {
	repo     *OrderRepository
	producer *messaging.Producer
	logger   *slog.Logger
}

func NewHandler(repo *OrderRepository, producer *messaging.Producer, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// Numeric fields that come from form-style input arrive as strings and
// degrade silently: a value that is not all digits is simply ignored.
func parseDigits(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	for _, ch := range raw {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

type createOrderItemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity string `json:"quantity"`
	Note     string `json:"note"`
}

type createOrderRequest struct {
	CustomerID     string                   `json:"customer_id"`
	ShopperID      string                   `json:"shopper_id"`
	Description    string                   `json:"description"`
	Currency       string                   `json:"currency"`
	MaxBudgetTotal string                   `json:"max_budget_total"`
	Deadline       string                   `json:"deadline"`
	PhotoURL       string                   `json:"photo_url"`
	Items          []createOrderItemRequest `json:"items"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CustomerID == "" {
		h.writeError(w, http.StatusBadRequest, "missing customer id")
		return
	}

	currency := domain.Currency(req.Currency)
	if currency != domain.CurrencyUSD {
		currency = domain.CurrencyCRC
	}

	order := &domain.Order{
		CustomerID:  req.CustomerID,
		Description: req.Description,
		Currency:    currency,
		BudgetMode:  domain.BudgetModeTotal,
		PhotoURL:    req.PhotoURL,
		Status:      domain.OrderStatusSearching,
		CreatedAt:   time.Now().UTC(),
	}

	if req.ShopperID != "" {
		order.ShopperID = &req.ShopperID
		order.Status = domain.OrderStatusSelection
	}

	if budget, ok := parseDigits(req.MaxBudgetTotal); ok {
		order.MaxBudgetTotal = &budget
	}

	if req.Deadline != "" {
		if deadline, err := time.Parse("2006-01-02", req.Deadline); err == nil {
			order.Deadline = &deadline
		}
	}

	var names []string
	for _, item := range req.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		names = append(names, name)

		category := domain.ItemCategory(item.Category)
		if category == "" {
			category = domain.CategoryOther
		}

		quantity := int64(1)
		if q, ok := parseDigits(item.Quantity); ok && q > 0 {
			quantity = q
		}

		order.Items = append(order.Items, domain.OrderItem{
			Name:     name,
			Category: category,
			Quantity: int(quantity),
			Note:     strings.TrimSpace(item.Note),
		})
	}

	order.Title = domain.OrderTitle(names)

	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to create order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.producer != nil {
		event := domain.OrderCreatedEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Title:      order.Title,
			Currency:   order.Currency,
			Timestamp:  order.CreatedAt,
		}
		if err := h.producer.Publish(r.Context(), order.ID, domain.EventOrderCreated, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order created", "order_id", order.ID, "customer_id", order.CustomerID, "status", order.Status)
	h.writeJSON(w, http.StatusCreated, order)
}

type orderDetailResponse struct {
	*domain.Order
	Ledger *domain.Ledger `json:"ledger"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var (
		order *domain.Order
		err   error
	)

	// Lookups are scoped to the requesting owner: an order that belongs
	// to someone else reads as not found.
	switch {
	case r.URL.Query().Get("customer_id") != "":
		order, err = h.repo.GetForCustomer(r.Context(), id, r.URL.Query().Get("customer_id"))
	case r.URL.Query().Get("shopper_id") != "":
		order, err = h.repo.GetForShopper(r.Context(), id, r.URL.Query().Get("shopper_id"))
	default:
		h.writeError(w, http.StatusBadRequest, "missing customer_id or shopper_id")
		return
	}

	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	ledger, err := h.repo.Ledger(r.Context(), order.ID)
	if err != nil {
		h.logger.Error("failed to compute ledger", "error", err, "order_id", order.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orderDetailResponse{Order: order, Ledger: ledger})
}

func (h *Handler) HandleListOpen(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.ListOpen(r.Context())
	if err != nil {
		h.logger.Error("failed to list open orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleCustomerOrders(w http.ResponseWriter, r *http.Request) {
	customerID := r.PathValue("id")
	if customerID == "" {
		h.writeError(w, http.StatusBadRequest, "missing customer id")
		return
	}

	orders, err := h.repo.ListByCustomer(r.Context(), customerID)
	if err != nil {
		h.logger.Error("failed to list customer orders", "error", err, "customer_id", customerID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

type shopperOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
	Totals *ShopperTotals `json:"totals"`
}

func (h *Handler) HandleShopperOrders(w http.ResponseWriter, r *http.Request) {
	shopperID := r.PathValue("id")
	if shopperID == "" {
		h.writeError(w, http.StatusBadRequest, "missing shopper id")
		return
	}

	orders, err := h.repo.ListByShopper(r.Context(), shopperID)
	if err != nil {
		h.logger.Error("failed to list shopper orders", "error", err, "shopper_id", shopperID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	totals, err := h.repo.ShopperTotals(r.Context(), shopperID)
	if err != nil {
		h.logger.Error("failed to compute shopper totals", "error", err, "shopper_id", shopperID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, shopperOrdersResponse{Orders: orders, Totals: totals})
}

type claimRequest struct {
	ShopperID string `json:"shopper_id"`
}

func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShopperID == "" {
		h.writeError(w, http.StatusBadRequest, "missing shopper id")
		return
	}

	order, err := h.repo.Claim(r.Context(), id, req.ShopperID)
	if err != nil {
		if errors.Is(err, ErrOrderTaken) {
			h.writeError(w, http.StatusConflict, "order already taken")
			return
		}
		h.logger.Error("failed to claim order", "error", err, "order_id", id, "shopper_id", req.ShopperID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if h.producer != nil {
		event := domain.OrderClaimedEvent{
			OrderID:   order.ID,
			ShopperID: req.ShopperID,
			Timestamp: time.Now().UTC(),
		}
		if err := h.producer.Publish(r.Context(), order.ID, domain.EventOrderClaimed, event); err != nil {
			h.logger.Error("failed to publish order claimed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order claimed", "order_id", order.ID, "shopper_id", req.ShopperID)
	h.writeJSON(w, http.StatusOK, order)
}

type statusRequest struct {
	ShopperID string             `json:"shopper_id"`
	Status    domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShopperID == "" {
		h.writeError(w, http.StatusBadRequest, "missing shopper id")
		return
	}

	if !KnownStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	order, err := h.repo.Transition(r.Context(), id, req.ShopperID, req.Status)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			h.writeError(w, http.StatusConflict, "invalid status transition")
			return
		}
		h.logger.Error("failed to update order status", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if h.producer != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			ShopperID:  req.ShopperID,
			Status:     order.Status,
			Timestamp:  time.Now().UTC(),
		}
		if err := h.producer.Publish(r.Context(), order.ID, domain.EventOrderStatusChanged, event); err != nil {
			h.logger.Error("failed to publish status changed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

type setPriceRequest struct {
	ShopperID string `json:"shopper_id"`
	Price     string `json:"price"`
}

func (h *Handler) HandleSetPrice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req setPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShopperID == "" {
		h.writeError(w, http.StatusBadRequest, "missing shopper id")
		return
	}

	price, ok := parseDigits(req.Price)
	if !ok {
		// Non-numeric price: nothing is written, the request still succeeds.
		order, err := h.repo.GetForShopper(r.Context(), id, req.ShopperID)
		if err != nil {
			h.logger.Error("failed to get order", "error", err, "order_id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if order == nil {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.writeJSON(w, http.StatusOK, order)
		return
	}

	order, err := h.repo.SetPrice(r.Context(), id, req.ShopperID, price)
	if err != nil {
		h.logger.Error("failed to set order price", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("order price set", "order_id", order.ID, "price", price)
	h.writeJSON(w, http.StatusOK, order)
}

type setItemPriceRequest struct {
	ShopperID string `json:"shopper_id"`
	UnitPrice string `json:"unit_price"`
}

func (h *Handler) HandleSetItemPrice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	itemID := r.PathValue("itemId")

	var req setItemPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShopperID == "" {
		h.writeError(w, http.StatusBadRequest, "missing shopper id")
		return
	}

	var unitPrice *int64
	raw := strings.TrimSpace(req.UnitPrice)
	if raw != "" {
		price, ok := parseDigits(raw)
		if !ok {
			// Ignored silently, same as the order price backfill.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		unitPrice = &price
	}

	updated, err := h.repo.SetItemPrice(r.Context(), id, req.ShopperID, itemID, unitPrice)
	if err != nil {
		h.logger.Error("failed to set item price", "error", err, "order_id", id, "item_id", itemID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !updated {
		h.writeError(w, http.StatusNotFound, "order item not found")
		return
	}

	h.logger.Info("item price updated", "order_id", id, "item_id", itemID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleLedger(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	ledger, err := h.repo.Ledger(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to compute ledger", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if ledger == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, ledger)
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
