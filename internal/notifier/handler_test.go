package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvz16/traeme/internal/domain"
)

func newTestHandler(serverURL string) *NotificationHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNotificationHandler(serverURL, &http.Client{Timeout: 5 * time.Second}, logger)
}

func TestHandleOrderCreatedFetchesTopShoppers(t *testing.T) {
	var gotCustomerID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shoppers/top", r.URL.Path)
		gotCustomerID = r.URL.Query().Get("customer_id")

		shoppers := []topShopper{
			{ID: "shopper-1", Name: "María", Country: "CR", Phone: "88887777"},
			{ID: "shopper-2", Name: "Carlos", Country: "CR", Phone: "89990000"},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(shoppers)
	}))
	defer server.Close()

	handler := newTestHandler(server.URL)

	event := domain.OrderCreatedEvent{
		OrderID:    "order-1",
		CustomerID: "customer-1",
		Title:      "Tenis Nike",
		Currency:   domain.CurrencyCRC,
		Timestamp:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	err = handler.Handle(context.Background(), domain.EventOrderCreated, payload)
	require.NoError(t, err)
	assert.Equal(t, "customer-1", gotCustomerID)
}

func TestHandleOrderCreatedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	handler := newTestHandler(server.URL)

	payload, err := json.Marshal(domain.OrderCreatedEvent{OrderID: "order-1", CustomerID: "customer-1"})
	require.NoError(t, err)

	err = handler.Handle(context.Background(), domain.EventOrderCreated, payload)
	assert.Error(t, err)
}

func TestHandlePaymentReportedSkipsShopperPayments(t *testing.T) {
	// No server: a shopper-recorded payment must not trigger any call.
	handler := newTestHandler("http://127.0.0.1:0")

	payload, err := json.Marshal(domain.PaymentReportedEvent{
		OrderID:   "order-1",
		PaymentID: "payment-1",
		Amount:    40000,
		CreatedBy: domain.PaymentOriginShopper,
	})
	require.NoError(t, err)

	err = handler.Handle(context.Background(), domain.EventPaymentReported, payload)
	assert.NoError(t, err)
}

func TestHandlePaymentReportedCustomerOrigin(t *testing.T) {
	handler := newTestHandler("http://127.0.0.1:0")

	payload, err := json.Marshal(domain.PaymentReportedEvent{
		OrderID:   "order-1",
		PaymentID: "payment-1",
		Amount:    20000,
		CreatedBy: domain.PaymentOriginCustomer,
	})
	require.NoError(t, err)

	err = handler.Handle(context.Background(), domain.EventPaymentReported, payload)
	assert.NoError(t, err)
}

func TestHandleStatusChangedOnlyDeliveredNotifies(t *testing.T) {
	handler := newTestHandler("http://127.0.0.1:0")

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusPurchased,
		domain.OrderStatusInTransit,
		domain.OrderStatusDelivered,
	} {
		payload, err := json.Marshal(domain.OrderStatusChangedEvent{
			OrderID:    "order-1",
			CustomerID: "customer-1",
			ShopperID:  "shopper-1",
			Status:     status,
		})
		require.NoError(t, err)

		err = handler.Handle(context.Background(), domain.EventOrderStatusChanged, payload)
		assert.NoError(t, err)
	}
}

func TestHandleIgnoresUnknownEvents(t *testing.T) {
	handler := newTestHandler("http://127.0.0.1:0")

	err := handler.Handle(context.Background(), domain.EventOrderClaimed, []byte(`{}`))
	assert.NoError(t, err)
}

func TestHandleRejectsMalformedPayload(t *testing.T) {
	handler := newTestHandler("http://127.0.0.1:0")

	err := handler.Handle(context.Background(), domain.EventOrderCreated, []byte(`not json`))
	assert.Error(t, err)
}
