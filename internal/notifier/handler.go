package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jvz16/traeme/internal/domain"
)

// NotificationHandler reacts to marketplace events. Delivery is a
// structured log line carrying the wa.me link the recipient would be
// contacted through.
type NotificationHandler struct {
	serverURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewNotificationHandler(serverURL string, client *http.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		serverURL:  serverURL,
		httpClient: client,
		logger:     logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, eventType domain.EventType, payload []byte) error {
	switch eventType {
	case domain.EventOrderCreated:
		return h.handleOrderCreated(ctx, payload)
	case domain.EventPaymentReported:
		return h.handlePaymentReported(ctx, payload)
	case domain.EventOrderStatusChanged:
		return h.handleStatusChanged(ctx, payload)
	default:
		h.logger.Debug("ignoring event", "event_type", eventType)
		return nil
	}
}

// handleOrderCreated asks the server for the customer's ranked shoppers
// and pings each one about the new order.
func (h *NotificationHandler) handleOrderCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "customer_id", event.CustomerID)

	shoppers, err := h.fetchTopShoppers(ctx, event.CustomerID)
	if err != nil {
		return fmt.Errorf("fetch top shoppers: %w", err)
	}

	for _, shopper := range shoppers {
		h.logger.Info("notifying shopper of new order",
			"order_id", event.OrderID,
			"shopper_id", shopper.ID,
			"shopper_name", shopper.Name,
			"title", event.Title,
			"whatsapp", domain.WhatsAppLink(shopper.Country, shopper.Phone),
		)
	}

	h.logger.Info("order created notifications sent", "order_id", event.OrderID, "shoppers", len(shoppers))
	return nil
}

// handlePaymentReported nudges the assigned shopper to confirm a
// customer-reported payment. Shopper-recorded payments are already
// approved and need no confirmation.
func (h *NotificationHandler) handlePaymentReported(ctx context.Context, payload []byte) error {
	var event domain.PaymentReportedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal payment reported event: %w", err)
	}

	if event.CreatedBy != domain.PaymentOriginCustomer {
		return nil
	}

	h.logger.Info("notifying shopper to confirm payment",
		"order_id", event.OrderID,
		"payment_id", event.PaymentID,
		"amount", event.Amount,
	)
	return nil
}

// handleStatusChanged asks the customer for a review once the order is
// delivered.
func (h *NotificationHandler) handleStatusChanged(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal status changed event: %w", err)
	}

	if event.Status != domain.OrderStatusDelivered {
		return nil
	}

	h.logger.Info("notifying customer to review delivered order",
		"order_id", event.OrderID,
		"customer_id", event.CustomerID,
		"shopper_id", event.ShopperID,
	)
	return nil
}

type topShopper struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

func (h *NotificationHandler) fetchTopShoppers(ctx context.Context, customerID string) ([]topShopper, error) {
	endpoint := fmt.Sprintf("%s/shoppers/top?customer_id=%s", h.serverURL, url.QueryEscape(customerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create top shoppers request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call top shoppers: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("top shoppers returned status %d", resp.StatusCode)
	}

	var shoppers []topShopper
	if err := json.NewDecoder(resp.Body).Decode(&shoppers); err != nil {
		return nil, fmt.Errorf("decode top shoppers: %w", err)
	}

	return shoppers, nil
}
