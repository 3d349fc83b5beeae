package billing

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jvz16/traeme/internal/domain"
	"github.com/jvz16/traeme/internal/messaging"
)

type Handler struct {
	repo     *BillingRepository
	producer *messaging.Producer
	logger   *slog.Logger
}

func NewHandler(repo *BillingRepository, producer *messaging.Producer, logger *slog.Logger) *Handler {
	return &Handler{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

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

func validPaymentKind(k domain.PaymentKind) bool {
	switch k {
	case domain.PaymentKindAdvance, domain.PaymentKindPartial, domain.PaymentKindFinal:
		return true
	}
	return false
}

func validPaymentMethod(m domain.PaymentMethod) bool {
	switch m {
	case domain.PaymentMethodSinpe, domain.PaymentMethodCash, domain.PaymentMethodCard,
		domain.PaymentMethodPaypal, domain.PaymentMethodOther:
		return true
	}
	return false
}

// Order expenses use the product-related subset; general overhead
// expenses may use any category.
var orderExpenseCategories = map[domain.ExpenseCategory]bool{
	domain.ExpenseCategoryProduct:   true,
	domain.ExpenseCategoryShipping:  true,
	domain.ExpenseCategoryTax:       true,
	domain.ExpenseCategoryTransport: true,
	domain.ExpenseCategoryOther:     true,
}

var generalExpenseCategories = map[domain.ExpenseCategory]bool{
	domain.ExpenseCategoryProduct:   true,
	domain.ExpenseCategoryShipping:  true,
	domain.ExpenseCategoryTax:       true,
	domain.ExpenseCategoryFlight:    true,
	domain.ExpenseCategoryLodging:   true,
	domain.ExpenseCategoryFood:      true,
	domain.ExpenseCategoryTransport: true,
	domain.ExpenseCategoryOther:     true,
}

type createPaymentRequest struct {
	ShopperID  string `json:"shopper_id"`
	CustomerID string `json:"customer_id"`
	Amount     string `json:"amount"`
	Kind       string `json:"kind"`
	Method     string `json:"method"`
	Note       string `json:"note"`
}

// HandleCreatePayment records a payment from either party. A shopper's
// own payment is approved immediately; a customer's report stays pending
// until the shopper confirms it.
func (h *Handler) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		createdBy domain.PaymentOrigin
		owned     bool
		err       error
	)
	switch {
	case req.ShopperID != "":
		createdBy = domain.PaymentOriginShopper
		owned, err = h.repo.OrderOwnedByShopper(r.Context(), orderID, req.ShopperID)
	case req.CustomerID != "":
		createdBy = domain.PaymentOriginCustomer
		owned, err = h.repo.OrderOwnedByCustomer(r.Context(), orderID, req.CustomerID)
	default:
		h.writeError(w, http.StatusBadRequest, "missing shopper_id or customer_id")
		return
	}

	if err != nil {
		h.logger.Error("failed to check order ownership", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !owned {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	amount, ok := parseDigits(req.Amount)
	if !ok {
		// Unparsable amount: nothing is written and the request still
		// succeeds.
		h.logger.Info("payment amount ignored", "order_id", orderID, "amount", req.Amount)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	kind := domain.PaymentKind(req.Kind)
	if !validPaymentKind(kind) {
		kind = domain.PaymentKindPartial
	}
	method := domain.PaymentMethod(req.Method)
	if !validPaymentMethod(method) {
		method = domain.PaymentMethodOther
	}

	payment := &domain.Payment{
		OrderID:   orderID,
		Amount:    amount,
		Kind:      kind,
		Method:    method,
		Note:      strings.TrimSpace(req.Note),
		CreatedBy: createdBy,
		Approved:  createdBy == domain.PaymentOriginShopper,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.repo.CreatePayment(r.Context(), payment); err != nil {
		h.logger.Error("failed to create payment", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.producer != nil {
		event := domain.PaymentReportedEvent{
			OrderID:   orderID,
			PaymentID: payment.ID,
			Amount:    payment.Amount,
			CreatedBy: payment.CreatedBy,
			Timestamp: payment.CreatedAt,
		}
		if err := h.producer.Publish(r.Context(), orderID, domain.EventPaymentReported, event); err != nil {
			h.logger.Error("failed to publish payment reported event", "error", err, "order_id", orderID)
		}
	}

	h.logger.Info("payment created", "payment_id", payment.ID, "order_id", orderID,
		"amount", payment.Amount, "created_by", payment.CreatedBy, "approved", payment.Approved)
	h.writeJSON(w, http.StatusCreated, payment)
}

type approvePaymentRequest struct {
	ShopperID string `json:"shopper_id"`
}

func (h *Handler) HandleApprovePayment(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	paymentID := r.PathValue("paymentId")

	var req approvePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShopperID == "" {
		h.writeError(w, http.StatusBadRequest, "missing shopper id")
		return
	}

	approved, err := h.repo.ApprovePayment(r.Context(), orderID, paymentID, req.ShopperID)
	if err != nil {
		h.logger.Error("failed to approve payment", "error", err, "order_id", orderID, "payment_id", paymentID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !approved {
		h.writeError(w, http.StatusNotFound, "payment not found")
		return
	}

	h.logger.Info("payment approved", "order_id", orderID, "payment_id", paymentID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	owned, err := h.orderOwnedByRequester(r, orderID)
	if err != nil {
		h.logger.Error("failed to check order ownership", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !owned {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	payments, err := h.repo.ListPayments(r.Context(), orderID)
	if err != nil {
		h.logger.Error("failed to list payments", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, payments)
}

type createExpenseRequest struct {
	ShopperID   string `json:"shopper_id"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

func (h *Handler) HandleCreateExpense(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShopperID == "" {
		h.writeError(w, http.StatusBadRequest, "missing shopper id")
		return
	}

	category := domain.ExpenseCategory(req.Category)
	if !orderExpenseCategories[category] {
		h.writeError(w, http.StatusBadRequest, "invalid expense category")
		return
	}

	owned, err := h.repo.OrderOwnedByShopper(r.Context(), orderID, req.ShopperID)
	if err != nil {
		h.logger.Error("failed to check order ownership", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !owned {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	amount, ok := parseDigits(req.Amount)
	if !ok {
		h.logger.Info("expense amount ignored", "order_id", orderID, "amount", req.Amount)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	expense := &domain.Expense{
		OrderID:     &orderID,
		ShopperID:   req.ShopperID,
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
		Currency:    expenseCurrency(req.Currency),
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.repo.CreateExpense(r.Context(), expense); err != nil {
		h.logger.Error("failed to create expense", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("expense created", "expense_id", expense.ID, "order_id", orderID, "amount", expense.Amount)
	h.writeJSON(w, http.StatusCreated, expense)
}

type updateExpenseRequest struct {
	ShopperID string `json:"shopper_id"`
	Amount    string `json:"amount"`
}

func (h *Handler) HandleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	expenseID := r.PathValue("expenseId")

	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShopperID == "" {
		h.writeError(w, http.StatusBadRequest, "missing shopper id")
		return
	}

	amount, ok := parseDigits(req.Amount)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	updated, err := h.repo.UpdateExpenseAmount(r.Context(), expenseID, orderID, req.ShopperID, amount)
	if err != nil {
		h.logger.Error("failed to update expense", "error", err, "expense_id", expenseID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !updated {
		h.writeError(w, http.StatusNotFound, "expense not found")
		return
	}

	h.logger.Info("expense updated", "expense_id", expenseID, "order_id", orderID, "amount", amount)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	expenseID := r.PathValue("expenseId")

	shopperID := r.URL.Query().Get("shopper_id")
	if shopperID == "" {
		h.writeError(w, http.StatusBadRequest, "missing shopper_id")
		return
	}

	deleted, err := h.repo.DeleteExpense(r.Context(), expenseID, orderID, shopperID)
	if err != nil {
		h.logger.Error("failed to delete expense", "error", err, "expense_id", expenseID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !deleted {
		h.writeError(w, http.StatusNotFound, "expense not found")
		return
	}

	h.logger.Info("expense deleted", "expense_id", expenseID, "order_id", orderID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListExpenses(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	owned, err := h.orderOwnedByRequester(r, orderID)
	if err != nil {
		h.logger.Error("failed to check order ownership", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !owned {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	expenses, err := h.repo.ListExpenses(r.Context(), orderID)
	if err != nil {
		h.logger.Error("failed to list expenses", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, expenses)
}

type generalExpenseRequest struct {
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
}

func (h *Handler) HandleCreateGeneralExpense(w http.ResponseWriter, r *http.Request) {
	shopperID := r.PathValue("id")

	var req generalExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category := domain.ExpenseCategory(req.Category)
	if !generalExpenseCategories[category] {
		h.writeError(w, http.StatusBadRequest, "invalid expense category")
		return
	}

	amount, ok := parseDigits(req.Amount)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	expense := &domain.Expense{
		ShopperID:   shopperID,
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
		Currency:    expenseCurrency(req.Currency),
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.repo.CreateExpense(r.Context(), expense); err != nil {
		h.logger.Error("failed to create general expense", "error", err, "shopper_id", shopperID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("general expense created", "expense_id", expense.ID, "shopper_id", shopperID, "amount", expense.Amount)
	h.writeJSON(w, http.StatusCreated, expense)
}

func (h *Handler) HandleListGeneralExpenses(w http.ResponseWriter, r *http.Request) {
	shopperID := r.PathValue("id")

	expenses, err := h.repo.ListGeneralExpenses(r.Context(), shopperID)
	if err != nil {
		h.logger.Error("failed to list general expenses", "error", err, "shopper_id", shopperID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, expenses)
}

func (h *Handler) HandleUpdateGeneralExpense(w http.ResponseWriter, r *http.Request) {
	shopperID := r.PathValue("id")
	expenseID := r.PathValue("expenseId")

	var req generalExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category := domain.ExpenseCategory(req.Category)
	if !generalExpenseCategories[category] {
		h.writeError(w, http.StatusBadRequest, "invalid expense category")
		return
	}

	amount, ok := parseDigits(req.Amount)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	expense := &domain.Expense{
		Category:    category,
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
		Currency:    expenseCurrency(req.Currency),
	}

	updated, err := h.repo.UpdateGeneralExpense(r.Context(), expenseID, shopperID, expense)
	if err != nil {
		h.logger.Error("failed to update general expense", "error", err, "expense_id", expenseID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !updated {
		h.writeError(w, http.StatusNotFound, "expense not found")
		return
	}

	h.logger.Info("general expense updated", "expense_id", expenseID, "shopper_id", shopperID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) orderOwnedByRequester(r *http.Request, orderID string) (bool, error) {
	if shopperID := r.URL.Query().Get("shopper_id"); shopperID != "" {
		return h.repo.OrderOwnedByShopper(r.Context(), orderID, shopperID)
	}
	if customerID := r.URL.Query().Get("customer_id"); customerID != "" {
		return h.repo.OrderOwnedByCustomer(r.Context(), orderID, customerID)
	}
	return false, nil
}

func expenseCurrency(raw string) domain.Currency {
	if domain.Currency(raw) == domain.CurrencyUSD {
		return domain.CurrencyUSD
	}
	return domain.CurrencyCRC
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
