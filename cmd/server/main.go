package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/jvz16/traeme/internal/billing"
	"github.com/jvz16/traeme/internal/landing"
	"github.com/jvz16/traeme/internal/messaging"
	"github.com/jvz16/traeme/internal/orders"
	"github.com/jvz16/traeme/internal/profiles"
	"github.com/jvz16/traeme/internal/reviews"
	"github.com/jvz16/traeme/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "traeme-server", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("traeme-server", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer = messaging.NewProducer(brokers)
		defer func() { _ = producer.Close() }()
	}

	orderRepo := orders.NewOrderRepository(db)
	orderHandler := orders.NewHandler(orderRepo, producer, logger)

	profileRepo := profiles.NewProfileRepository(db)
	profileHandler := profiles.NewHandler(profileRepo, logger)

	billingRepo := billing.NewBillingRepository(db)
	billingHandler := billing.NewHandler(billingRepo, producer, logger)

	reviewRepo := reviews.NewReviewRepository(db)
	reviewHandler := reviews.NewHandler(reviewRepo, producer, logger)

	landingRepo := landing.NewLandingRepository(db)
	landingHandler := landing.NewHandler(landingRepo, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("GET /landing", telemetry.WithHTTPRoute(landingHandler.HandleGet))

	mux.HandleFunc("POST /customers", telemetry.WithHTTPRoute(profileHandler.HandleRegisterCustomer))
	mux.HandleFunc("GET /customers/{id}", telemetry.WithHTTPRoute(profileHandler.HandleGetCustomer))
	mux.HandleFunc("GET /customers/{id}/orders", telemetry.WithHTTPRoute(orderHandler.HandleCustomerOrders))

	mux.HandleFunc("POST /shoppers", telemetry.WithHTTPRoute(profileHandler.HandleRegisterShopper))
	mux.HandleFunc("GET /shoppers", telemetry.WithHTTPRoute(profileHandler.HandleListShoppers))
	mux.HandleFunc("GET /shoppers/top", telemetry.WithHTTPRoute(profileHandler.HandleTopShoppers))
	mux.HandleFunc("GET /shoppers/{id}", telemetry.WithHTTPRoute(profileHandler.HandleGetShopper))
	mux.HandleFunc("PATCH /shoppers/{id}", telemetry.WithHTTPRoute(profileHandler.HandleUpdateShopper))
	mux.HandleFunc("POST /shoppers/{id}/trips", telemetry.WithHTTPRoute(profileHandler.HandleCreateTrip))
	mux.HandleFunc("GET /shoppers/{id}/trips", telemetry.WithHTTPRoute(profileHandler.HandleListTrips))
	mux.HandleFunc("GET /shoppers/{id}/orders", telemetry.WithHTTPRoute(orderHandler.HandleShopperOrders))
	mux.HandleFunc("GET /shoppers/{id}/reviews", telemetry.WithHTTPRoute(reviewHandler.HandleListForShopper))
	mux.HandleFunc("GET /shoppers/{id}/expenses", telemetry.WithHTTPRoute(billingHandler.HandleListGeneralExpenses))
	mux.HandleFunc("POST /shoppers/{id}/expenses", telemetry.WithHTTPRoute(billingHandler.HandleCreateGeneralExpense))
	mux.HandleFunc("PUT /shoppers/{id}/expenses/{expenseId}", telemetry.WithHTTPRoute(billingHandler.HandleUpdateGeneralExpense))

	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(orderHandler.HandleCreate))
	mux.HandleFunc("GET /orders/open", telemetry.WithHTTPRoute(orderHandler.HandleListOpen))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleGet))
	mux.HandleFunc("POST /orders/{id}/claim", telemetry.WithHTTPRoute(orderHandler.HandleClaim))
	mux.HandleFunc("POST /orders/{id}/status", telemetry.WithHTTPRoute(orderHandler.HandleUpdateStatus))
	mux.HandleFunc("PUT /orders/{id}/price", telemetry.WithHTTPRoute(orderHandler.HandleSetPrice))
	mux.HandleFunc("PUT /orders/{id}/items/{itemId}/price", telemetry.WithHTTPRoute(orderHandler.HandleSetItemPrice))
	mux.HandleFunc("GET /orders/{id}/ledger", telemetry.WithHTTPRoute(orderHandler.HandleLedger))

	mux.HandleFunc("POST /orders/{id}/payments", telemetry.WithHTTPRoute(billingHandler.HandleCreatePayment))
	mux.HandleFunc("GET /orders/{id}/payments", telemetry.WithHTTPRoute(billingHandler.HandleListPayments))
	mux.HandleFunc("POST /orders/{id}/payments/{paymentId}/approve", telemetry.WithHTTPRoute(billingHandler.HandleApprovePayment))
	mux.HandleFunc("POST /orders/{id}/expenses", telemetry.WithHTTPRoute(billingHandler.HandleCreateExpense))
	mux.HandleFunc("GET /orders/{id}/expenses", telemetry.WithHTTPRoute(billingHandler.HandleListExpenses))
	mux.HandleFunc("PUT /orders/{id}/expenses/{expenseId}", telemetry.WithHTTPRoute(billingHandler.HandleUpdateExpense))
	mux.HandleFunc("DELETE /orders/{id}/expenses/{expenseId}", telemetry.WithHTTPRoute(billingHandler.HandleDeleteExpense))

	mux.HandleFunc("POST /orders/{id}/review", telemetry.WithHTTPRoute(reviewHandler.HandleCreate))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "traeme-server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
