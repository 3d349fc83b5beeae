//go:build integration

package test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jvz16/traeme/internal/billing"
	"github.com/jvz16/traeme/internal/domain"
	"github.com/jvz16/traeme/internal/landing"
	"github.com/jvz16/traeme/internal/messaging"
	"github.com/jvz16/traeme/internal/orders"
	"github.com/jvz16/traeme/internal/profiles"
	"github.com/jvz16/traeme/internal/reviews"
)

func createCustomer(ctx context.Context, t *testing.T, db *sql.DB, name string) *domain.CustomerProfile {
	t.Helper()

	repo := profiles.NewProfileRepository(db)
	customer := &domain.CustomerProfile{
		Name:      name,
		Country:   "CR",
		Province:  "San José",
		Phone:     "88887777",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateCustomer(ctx, customer); err != nil {
		t.Fatalf("failed to create customer: %v", err)
	}
	return customer
}

func createShopper(ctx context.Context, t *testing.T, db *sql.DB, name string) *domain.ShopperProfile {
	t.Helper()

	repo := profiles.NewProfileRepository(db)
	shopper := &domain.ShopperProfile{
		Name:        name,
		Country:     "CR",
		Province:    "San José",
		Phone:       "89990000",
		Specialties: []string{"ropa", "tecnología"},
		BaseCity:    "San José",
		CreatedAt:   time.Now().UTC(),
	}
	if err := repo.CreateShopper(ctx, shopper); err != nil {
		t.Fatalf("failed to create shopper: %v", err)
	}
	return shopper
}

func createOpenOrder(ctx context.Context, t *testing.T, db *sql.DB, customerID string) *domain.Order {
	t.Helper()

	repo := orders.NewOrderRepository(db)
	order := &domain.Order{
		CustomerID: customerID,
		Title:      "Tenis Nike",
		Status:     domain.OrderStatusSearching,
		Currency:   domain.CurrencyCRC,
		BudgetMode: domain.BudgetModeTotal,
		Items: []domain.OrderItem{
			{Name: "Tenis Nike", Category: domain.CategoryClothing, Quantity: 1},
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}
	return order
}

func TestOrderCreationFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	customer := createCustomer(ctx, t, db, "Ana")

	repo := orders.NewOrderRepository(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := orders.NewHandler(repo, nil, logger)

	reqBody := `{
		"customer_id": "` + customer.ID + `",
		"currency": "USD",
		"max_budget_total": "50000",
		"items": [
			{"name": "Perfume", "category": "COSMETICOS", "quantity": "2"},
			{"name": "Audífonos", "category": "TECH", "quantity": "abc"},
			{"name": "   ", "quantity": "1"}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if created.ID == "" {
		t.Fatal("expected order ID to be set")
	}
	if created.Status != domain.OrderStatusSearching {
		t.Fatalf("expected status %s, got %s", domain.OrderStatusSearching, created.Status)
	}
	if created.Title != "Perfume + Audífonos" {
		t.Fatalf("unexpected title: %s", created.Title)
	}
	if len(created.Items) != 2 {
		t.Fatalf("expected 2 items (blank name skipped), got %d", len(created.Items))
	}
	if created.Items[1].Quantity != 1 {
		t.Fatalf("expected bad quantity to fall back to 1, got %d", created.Items[1].Quantity)
	}

	fetched, err := repo.GetForCustomer(ctx, created.ID, customer.ID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if fetched == nil {
		t.Fatal("order not found in database")
	}
	if fetched.MaxBudgetTotal == nil || *fetched.MaxBudgetTotal != 50000 {
		t.Fatalf("expected max budget 50000, got %v", fetched.MaxBudgetTotal)
	}
}

func TestConcurrentClaimSingleWinner(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	customer := createCustomer(ctx, t, db, "Luis")
	shopperA := createShopper(ctx, t, db, "María")
	shopperB := createShopper(ctx, t, db, "Carlos")
	order := createOpenOrder(ctx, t, db, customer.ID)

	repo := orders.NewOrderRepository(db)

	type claimResult struct {
		order *domain.Order
		err   error
	}
	results := make(chan claimResult, 2)

	var wg sync.WaitGroup
	for _, shopperID := range []string{shopperA.ID, shopperB.ID} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			claimed, err := repo.Claim(ctx, order.ID, id)
			results <- claimResult{order: claimed, err: err}
		}(shopperID)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for res := range results {
		switch {
		case res.err == nil && res.order != nil:
			wins++
			if res.order.Status != domain.OrderStatusSelection {
				t.Fatalf("expected claimed order status %s, got %s", domain.OrderStatusSelection, res.order.Status)
			}
		case res.err == orders.ErrOrderTaken:
			conflicts++
		default:
			t.Fatalf("unexpected claim result: order=%v err=%v", res.order, res.err)
		}
	}

	if wins != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one winner and one conflict, got %d wins and %d conflicts", wins, conflicts)
	}
}

func TestLedgerComputation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	customer := createCustomer(ctx, t, db, "Elena")
	shopper := createShopper(ctx, t, db, "Jorge")
	order := createOpenOrder(ctx, t, db, customer.ID)

	orderRepo := orders.NewOrderRepository(db)
	billingRepo := billing.NewBillingRepository(db)

	if _, err := orderRepo.Claim(ctx, order.ID, shopper.ID); err != nil {
		t.Fatalf("failed to claim order: %v", err)
	}
	if _, err := orderRepo.SetPrice(ctx, order.ID, shopper.ID, 100000); err != nil {
		t.Fatalf("failed to set price: %v", err)
	}

	approved := &domain.Payment{
		OrderID:   order.ID,
		Amount:    40000,
		Kind:      domain.PaymentKindAdvance,
		Method:    domain.PaymentMethodSinpe,
		CreatedBy: domain.PaymentOriginShopper,
		Approved:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := billingRepo.CreatePayment(ctx, approved); err != nil {
		t.Fatalf("failed to create approved payment: %v", err)
	}

	pending := &domain.Payment{
		OrderID:   order.ID,
		Amount:    20000,
		Kind:      domain.PaymentKindPartial,
		Method:    domain.PaymentMethodCash,
		CreatedBy: domain.PaymentOriginCustomer,
		Approved:  false,
		CreatedAt: time.Now().UTC(),
	}
	if err := billingRepo.CreatePayment(ctx, pending); err != nil {
		t.Fatalf("failed to create pending payment: %v", err)
	}

	expense := &domain.Expense{
		OrderID:   &order.ID,
		ShopperID: shopper.ID,
		Category:  domain.ExpenseCategoryProduct,
		Amount:    15000,
		Currency:  domain.CurrencyCRC,
		CreatedAt: time.Now().UTC(),
	}
	if err := billingRepo.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}

	ledger, err := orderRepo.Ledger(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to compute ledger: %v", err)
	}
	if ledger == nil {
		t.Fatal("expected ledger, got nil")
	}

	if ledger.TotalPayments != 40000 {
		t.Fatalf("expected total payments 40000, got %d", ledger.TotalPayments)
	}
	if ledger.TotalPendingPayments != 20000 {
		t.Fatalf("expected pending payments 20000, got %d", ledger.TotalPendingPayments)
	}
	if ledger.Balance != 60000 {
		t.Fatalf("expected balance 60000, got %d", ledger.Balance)
	}
	if ledger.TotalExpenses != 15000 {
		t.Fatalf("expected total expenses 15000, got %d", ledger.TotalExpenses)
	}
	if ledger.Margin != 25000 {
		t.Fatalf("expected margin 25000, got %d", ledger.Margin)
	}

	// Confirm the pending payment and check the balance moves.
	ok, err := billingRepo.ApprovePayment(ctx, order.ID, pending.ID, shopper.ID)
	if err != nil {
		t.Fatalf("failed to approve payment: %v", err)
	}
	if !ok {
		t.Fatal("expected payment approval to succeed")
	}

	ledger, err = orderRepo.Ledger(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to recompute ledger: %v", err)
	}
	if ledger.Balance != 40000 {
		t.Fatalf("expected balance 40000 after approval, got %d", ledger.Balance)
	}
}

func TestReviewRecomputesRating(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	customer := createCustomer(ctx, t, db, "Sofía")
	shopper := createShopper(ctx, t, db, "Diego")
	order := createOpenOrder(ctx, t, db, customer.ID)

	orderRepo := orders.NewOrderRepository(db)
	if _, err := orderRepo.Claim(ctx, order.ID, shopper.ID); err != nil {
		t.Fatalf("failed to claim order: %v", err)
	}
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusPurchased,
		domain.OrderStatusInTransit,
		domain.OrderStatusDelivered,
	} {
		if _, err := orderRepo.Transition(ctx, order.ID, shopper.ID, status); err != nil {
			t.Fatalf("failed to transition to %s: %v", status, err)
		}
	}

	reviewRepo := reviews.NewReviewRepository(db)
	review, err := reviewRepo.Create(ctx, order.ID, customer.ID, 4, "Excelente servicio")
	if err != nil {
		t.Fatalf("failed to create review: %v", err)
	}
	if review == nil {
		t.Fatal("expected review, got nil")
	}

	profileRepo := profiles.NewProfileRepository(db)
	updated, err := profileRepo.GetShopper(ctx, shopper.ID)
	if err != nil {
		t.Fatalf("failed to get shopper: %v", err)
	}
	if updated.Rating != 4.0 {
		t.Fatalf("expected rating 4.0, got %v", updated.Rating)
	}
	if updated.CompletedOrders != 1 {
		t.Fatalf("expected 1 completed order, got %d", updated.CompletedOrders)
	}

	// A second review for the same order is rejected.
	if _, err := reviewRepo.Create(ctx, order.ID, customer.ID, 5, ""); err != reviews.ErrAlreadyReviewed {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func markAbroad(ctx context.Context, t *testing.T, db *sql.DB, shopper *domain.ShopperProfile, country string) {
	t.Helper()

	repo := profiles.NewProfileRepository(db)
	shopper.Abroad = true
	shopper.AbroadCountry = country
	if err := repo.UpdateShopper(ctx, shopper); err != nil {
		t.Fatalf("failed to update shopper: %v", err)
	}
}

func addTrip(ctx context.Context, t *testing.T, db *sql.DB, shopperID, country string, start time.Time) {
	t.Helper()

	repo := profiles.NewProfileRepository(db)
	trip := &domain.Trip{
		ShopperID:          shopperID,
		DestinationCity:    "Miami",
		DestinationCountry: country,
		StartDate:          start,
		EndDate:            start.AddDate(0, 0, 5),
		CreatedAt:          time.Now().UTC(),
	}
	if err := repo.CreateTrip(ctx, trip); err != nil {
		t.Fatalf("failed to create trip: %v", err)
	}
}

func setRating(ctx context.Context, t *testing.T, db *sql.DB, shopperID string, rating float64) {
	t.Helper()

	if _, err := db.ExecContext(ctx, `UPDATE shopper_profiles SET rating = $1 WHERE id = $2`, rating, shopperID); err != nil {
		t.Fatalf("failed to set rating: %v", err)
	}
}

func TestLandingPage(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open DB: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Country fields are free text, so the page has to match how people
	// actually spell the destination.
	valeria := createShopper(ctx, t, db, "Valeria")
	markAbroad(ctx, t, db, valeria, "USA")
	setRating(ctx, t, db, valeria.ID, 3.0)

	marco := createShopper(ctx, t, db, "Marco")
	markAbroad(ctx, t, db, marco, "estados unidos")
	setRating(ctx, t, db, marco.ID, 4.5)

	lucia := createShopper(ctx, t, db, "Lucía")
	markAbroad(ctx, t, db, lucia, "Francia")

	homebody := createShopper(ctx, t, db, "Pedro")
	setRating(ctx, t, db, homebody.ID, 5.0)

	now := time.Now().UTC()

	traveler := createShopper(ctx, t, db, "Andrea")
	setRating(ctx, t, db, traveler.ID, 2.0)
	addTrip(ctx, t, db, traveler.ID, "United States", now)
	addTrip(ctx, t, db, traveler.ID, "usa", now.AddDate(0, 0, 3))

	boundary := createShopper(ctx, t, db, "Raúl")
	setRating(ctx, t, db, boundary.ID, 5.0)
	addTrip(ctx, t, db, boundary.ID, "EEUU", now.AddDate(0, 0, 7))

	late := createShopper(ctx, t, db, "Gabriel")
	addTrip(ctx, t, db, late.ID, "USA", now.AddDate(0, 0, 8))
	addTrip(ctx, t, db, late.ID, "Panamá", now.AddDate(0, 0, 2))

	repo := landing.NewLandingRepository(db)

	inUSA, err := repo.ShoppersInUSA(ctx)
	if err != nil {
		t.Fatalf("failed to list shoppers in USA: %v", err)
	}
	if len(inUSA) != 2 {
		t.Fatalf("expected 2 shoppers in USA, got %d", len(inUSA))
	}
	if inUSA[0].ID != marco.ID || inUSA[1].ID != valeria.ID {
		t.Fatalf("expected [Marco, Valeria], got [%s, %s]", inUSA[0].Name, inUSA[1].Name)
	}

	traveling, err := repo.TravelingToUSA(ctx, now)
	if err != nil {
		t.Fatalf("failed to list travelers: %v", err)
	}
	if len(traveling) != 2 {
		t.Fatalf("expected 2 travelers (one row per shopper, window inclusive of day 7), got %d", len(traveling))
	}
	if traveling[0].ID != traveler.ID || traveling[1].ID != boundary.ID {
		t.Fatalf("expected [Andrea, Raúl] ordered by departure, got [%s, %s]", traveling[0].Name, traveling[1].Name)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO carousel_slides (id, image_path, caption, position)
		VALUES ('5e1f6f9e-0000-4000-8000-000000000001', '/img/slide-b.jpg', 'Entregas', 2),
			('5e1f6f9e-0000-4000-8000-000000000002', '/img/slide-a.jpg', 'Compras', 1),
			('5e1f6f9e-0000-4000-8000-000000000003', '/img/slide-c.jpg', '', 3)
	`); err != nil {
		t.Fatalf("failed to seed slides: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
		UPDATE carousel_slides SET active = FALSE WHERE position = 3
	`); err != nil {
		t.Fatalf("failed to deactivate slide: %v", err)
	}
	if _, err := db.ExecContext(ctx, `
		INSERT INTO hero_backgrounds (id, image_path, label)
		VALUES ('5e1f6f9e-0000-4000-8000-000000000004', '/img/hero.jpg', 'Miami')
	`); err != nil {
		t.Fatalf("failed to seed hero: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := landing.NewHandler(repo, logger)

	req := httptest.NewRequest(http.MethodGet, "/landing", nil)
	rec := httptest.NewRecorder()
	handler.HandleGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var page landing.Page
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("failed to decode page: %v", err)
	}

	if page.Stats.Shoppers != 7 {
		t.Fatalf("expected 7 shoppers in stats, got %d", page.Stats.Shoppers)
	}
	if len(page.ShoppersInUSA) != 2 || len(page.TravelingToUSA) != 2 {
		t.Fatalf("unexpected page lists: %d in USA, %d traveling", len(page.ShoppersInUSA), len(page.TravelingToUSA))
	}
	if len(page.CarouselSlides) != 2 {
		t.Fatalf("expected 2 active slides, got %d", len(page.CarouselSlides))
	}
	if page.CarouselSlides[0].Caption != "Compras" {
		t.Fatalf("expected slides ordered by position, got %q first", page.CarouselSlides[0].Caption)
	}
	if page.HeroBackground == nil || page.HeroBackground.Label != "Miami" {
		t.Fatalf("unexpected hero background: %+v", page.HeroBackground)
	}
}

func TestEventRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	producer := messaging.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	event := domain.OrderCreatedEvent{
		OrderID:    "order-1",
		CustomerID: "customer-1",
		Title:      "Tenis Nike",
		Currency:   domain.CurrencyCRC,
		Timestamp:  time.Now().UTC(),
	}
	if err := producer.Publish(ctx, event.OrderID, domain.EventOrderCreated, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, "test-group", messaging.WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	type received struct {
		eventType domain.EventType
		payload   []byte
	}
	got := make(chan received, 1)

	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()

	err := consumer.Consume(consumeCtx, func(_ context.Context, eventType domain.EventType, payload []byte) error {
		got <- received{eventType: eventType, payload: payload}
		stop()
		return nil
	})
	if err != nil && consumeCtx.Err() == nil {
		t.Fatalf("consumer error: %v", err)
	}

	select {
	case msg := <-got:
		if msg.eventType != domain.EventOrderCreated {
			t.Fatalf("expected event type %s, got %s", domain.EventOrderCreated, msg.eventType)
		}
		var decoded domain.OrderCreatedEvent
		if err := json.Unmarshal(msg.payload, &decoded); err != nil {
			t.Fatalf("failed to decode event payload: %v", err)
		}
		if decoded.OrderID != event.OrderID {
			t.Fatalf("expected order ID %s, got %s", event.OrderID, decoded.OrderID)
		}
	default:
		t.Fatal("no event received")
	}
}
