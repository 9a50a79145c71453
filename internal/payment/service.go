// Package payment implements the merchant-side business logic: pricing a cart
// into a pending order, charging a wallet token exactly once, and applying
// gateway notifications.
package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result codes stored with idempotent responses.
const (
	CodeDeclined           = "PAYMENT_DECLINED"
	CodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	CodeInvalidPaymentData = "PAYMENT_DATA_INVALID"
)

// replayErrors maps stored result codes back to the error the first attempt returned.
var replayErrors = map[string]error{
	CodeDeclined:           domain.ErrPaymentDeclined,
	CodeGatewayUnavailable: domain.ErrPaymentGatewayError,
	CodeInvalidPaymentData: domain.ErrInvalidPaymentRequest,
	domain.CodeGatewayAuth: domain.ErrPaymentGatewayError,
}

// Settings is the server-held checkout configuration.
// Merchant and gateway identifiers never come from the client.
type Settings struct {
	Environment     string
	Merchant        domain.MerchantInfo
	Wallet          domain.WalletConfiguration
	NotificationURL string
	TokenTTL        time.Duration
	IdempotencyTTL  time.Duration
}

// Service implements the payment business logic.
type Service struct {
	catalog     domain.ProductCatalog
	orders      domain.OrderRepository
	gateway     domain.PaymentGateway
	verifiers   map[string]domain.NotificationVerifier
	tokens      domain.TokenRegistry
	idempotency domain.IdempotencyStore
	settings    Settings
	logger      *slog.Logger
	now         func() time.Time
}

// Dependencies groups the ports the service needs.
type Dependencies struct {
	Catalog     domain.ProductCatalog
	Orders      domain.OrderRepository
	Gateway     domain.PaymentGateway
	Verifiers   map[string]domain.NotificationVerifier
	Tokens      domain.TokenRegistry
	Idempotency domain.IdempotencyStore
}

// NewService creates a new payment service with the required dependencies.
func NewService(deps Dependencies, settings Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.TokenTTL <= 0 {
		settings.TokenTTL = 24 * time.Hour
	}
	if settings.IdempotencyTTL <= 0 {
		settings.IdempotencyTTL = 24 * time.Hour
	}
	return &Service{
		catalog:     deps.Catalog,
		orders:      deps.Orders,
		gateway:     deps.Gateway,
		verifiers:   deps.Verifiers,
		tokens:      deps.Tokens,
		idempotency: deps.Idempotency,
		settings:    settings,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateCheckout prices the cart from the catalog, opens a pending order and
// returns the context the client-side flow is built from.
func (s *Service) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutContext, error) {
	if len(req.Items) == 0 {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
			"at least one item is required", "VALIDATION_ERROR")
	}
	if err := domain.ValidateCountry(req.Country); err != nil {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest, err.Error(), "INVALID_COUNTRY")
	}

	items, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	cur := items[0].currency
	total := decimal.Zero
	lines := make([]domain.LineItem, 0, len(items))
	for _, it := range items {
		if it.currency != cur {
			return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
				"all items must share one currency", "MIXED_CURRENCY")
		}
		total = total.Add(it.line.Subtotal())
		lines = append(lines, it.line)
	}

	price, err := domain.FormatAmount(total, cur)
	if err != nil {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest, err.Error(), "INVALID_CURRENCY")
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:        uuid.New().String(),
		Status:    domain.OrderPending,
		Items:     lines,
		Total:     total,
		Currency:  cur,
		Country:   req.Country,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Payer != nil {
		order.Payer = *req.Payer
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		s.logger.Error("failed to create order", "error", err)
		return nil, err
	}

	s.logger.Info("order created",
		"order_id", order.ID, "total", price, "currency", cur, "country", req.Country)

	return &domain.CheckoutContext{
		OrderID:       order.ID,
		Environment:   s.settings.Environment,
		Configuration: s.settings.Wallet.Clone(),
		MerchantInfo:  s.settings.Merchant,
		TransactionInfo: domain.TransactionInfo{
			TotalPriceStatus: domain.PriceStatusFinal,
			TotalPrice:       price,
			CurrencyCode:     cur,
			CountryCode:      req.Country,
		},
	}, nil
}

type pricedItem struct {
	line     domain.LineItem
	currency string
}

// priceItems merges repeated SKUs and looks each one up in the catalog.
func (s *Service) priceItems(ctx context.Context, reqItems []domain.CheckoutItem) ([]pricedItem, error) {
	quantities := make(map[string]int, len(reqItems))
	var order []string
	for _, it := range reqItems {
		if it.SKU == "" || it.Quantity <= 0 {
			return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
				"each item needs a sku and a positive quantity", "VALIDATION_ERROR")
		}
		if _, seen := quantities[it.SKU]; !seen {
			order = append(order, it.SKU)
		}
		quantities[it.SKU] += it.Quantity
	}

	out := make([]pricedItem, 0, len(order))
	for _, sku := range order {
		p, err := s.catalog.GetProduct(ctx, sku)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, domain.NewPaymentError(err,
					fmt.Sprintf("product '%s' not found", sku), "PRODUCT_NOT_FOUND")
			}
			return nil, err
		}
		out = append(out, pricedItem{
			line: domain.LineItem{
				SKU:       p.SKU,
				Name:      p.Name,
				Quantity:  quantities[sku],
				UnitPrice: p.UnitPrice,
			},
			currency: p.Currency,
		})
	}
	return out, nil
}

// FeaturedProduct suggests one catalog product for the storefront.
func (s *Service) FeaturedProduct(ctx context.Context) (*domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrProductNotFound
	}
	p := products[rand.IntN(len(products))]
	return &p, nil
}

// GetOrder returns the current state of an order.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, id)
}

// PlaceOrder charges the wallet token for a pending order.
//
// The amount, currency and country charged are always the order's own; the
// client's echoed transaction info only has to agree with them. A token is
// accepted once. Repeated requests with the same idempotency key for the same
// order replay the first outcome without contacting the gateway again.
//
// Only a paid charge closes the order. A declined attempt, or a charge the
// gateway never accepted, returns it to pending so a fresh token can be tried.
func (s *Service) PlaceOrder(ctx context.Context, key string, req domain.OrderPaymentRequest) (*domain.OrderSubmissionResult, error) {
	if key != "" {
		key = req.OrderID + ":" + key
		stored, err := s.idempotency.Get(ctx, key)
		if err != nil {
			s.logger.Error("idempotency lookup failed", "order_id", req.OrderID, "error", err)
			return nil, err
		}
		if stored != nil {
			s.logger.Info("replaying order submission", "order_id", stored.OrderID, "code", stored.Code)
			return stored, replayErrors[stored.Code]
		}
	}

	token := req.PaymentData.Token()
	if req.OrderID == "" || token.Empty() {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
			"orderId and payment token are required", "VALIDATION_ERROR")
	}

	order, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderPending {
		return nil, domain.NewPaymentError(domain.ErrOrderNotPending,
			fmt.Sprintf("order is %s", order.Status), "ORDER_NOT_PENDING")
	}

	payer := order.Payer
	if req.Payer != nil {
		payer = *req.Payer
	}
	if payer.Name == "" {
		return nil, domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
			"payer name is required", "MISSING_PAYER")
	}

	if err := matchTransaction(order, req.TransactionInfo); err != nil {
		s.logger.Warn("transaction info mismatch", "order_id", order.ID, "error", err)
		return nil, err
	}

	claimed, err := s.tokens.Claim(ctx, Fingerprint(token), s.settings.TokenTTL)
	if err != nil {
		s.logger.Error("token registry unavailable", "order_id", order.ID, "error", err)
		return nil, err
	}
	if !claimed {
		s.logger.Warn("payment token reused", "order_id", order.ID)
		return nil, domain.NewPaymentError(domain.ErrTokenReused,
			"payment token was already presented", "TOKEN_REUSED")
	}

	if err := s.orders.TransitionOrder(ctx, order.ID, domain.OrderPending, domain.OrderProcessing); err != nil {
		if errors.Is(err, domain.ErrOrderNotPending) {
			return nil, domain.NewPaymentError(domain.ErrOrderNotPending, err.Error(), "ORDER_NOT_PENDING")
		}
		return nil, err
	}

	charge, err := s.gateway.Charge(ctx, domain.ChargeRequest{
		OrderID:         order.ID,
		Amount:          order.Total,
		Currency:        order.Currency,
		Country:         order.Country,
		Payer:           payer,
		Token:           token,
		CardNetwork:     req.PaymentData.PaymentMethodData.Info.CardNetwork,
		NotificationURL: s.settings.NotificationURL,
		Description:     describe(order),
	})
	if err != nil {
		return s.chargeFailed(ctx, key, order, err)
	}

	if err := s.orders.UpdatePayment(ctx, domain.PaymentStatus{
		OrderID:      order.ID,
		PaymentID:    charge.PaymentID,
		Status:       orderStatusFor(charge.Status),
		StatusDetail: charge.StatusDetail,
		Amount:       order.Total,
		Currency:     order.Currency,
		ReceivedAt:   s.now().UTC(),
	}); err != nil {
		// The charge went through; the notification will retry persistence.
		s.logger.Error("failed to persist charge result",
			"order_id", order.ID, "payment_id", charge.PaymentID, "error", err)
	}

	s.logger.Info("order charged",
		"order_id", order.ID,
		"gateway", s.gateway.Name(),
		"payment_id", charge.PaymentID,
		"status", charge.Status)

	result := domain.OrderSubmissionResult{
		Accepted: charge.Status != domain.OrderRejected,
		OrderID:  order.ID,
		Status:   charge.Status,
		Message:  charge.StatusDetail,
	}
	if !result.Accepted {
		result.Code = CodeDeclined
		s.remember(ctx, key, result)
		return &result, domain.NewPaymentError(domain.ErrPaymentDeclined, charge.StatusDetail, CodeDeclined)
	}

	s.remember(ctx, key, result)
	return &result, nil
}

// chargeFailed handles a Charge error. Errors raised before the gateway took
// the payment reopen the order; anything else leaves it processing until the
// gateway notification settles it.
func (s *Service) chargeFailed(ctx context.Context, key string, order *domain.Order, err error) (*domain.OrderSubmissionResult, error) {
	result := domain.OrderSubmissionResult{
		Accepted: false,
		OrderID:  order.ID,
		Status:   domain.OrderProcessing,
	}

	var perr *domain.PaymentError
	switch {
	case errors.Is(err, domain.ErrInvalidPaymentRequest):
		s.logger.Warn("gateway refused payment data", "order_id", order.ID, "gateway", s.gateway.Name(), "error", err)
		s.reopen(ctx, order.ID)
		result.Status = domain.OrderPending
		result.Message = "payment data was refused"
		result.Code = CodeInvalidPaymentData
		s.remember(ctx, key, result)
		return &result, domain.NewPaymentError(domain.ErrInvalidPaymentRequest, result.Message, CodeInvalidPaymentData)

	case errors.As(err, &perr) && perr.Code == domain.CodeGatewayAuth:
		s.logger.Error("gateway rejected merchant credentials", "order_id", order.ID, "gateway", s.gateway.Name(), "error", err)
		s.reopen(ctx, order.ID)
		result.Status = domain.OrderPending
		result.Message = "payment gateway unavailable"
		result.Code = domain.CodeGatewayAuth
		s.remember(ctx, key, result)
		return &result, domain.NewPaymentError(domain.ErrPaymentGatewayError, result.Message, domain.CodeGatewayAuth)
	}

	s.logger.Error("gateway charge failed",
		"order_id", order.ID, "gateway", s.gateway.Name(), "error", err)
	result.Message = "payment gateway unavailable"
	result.Code = CodeGatewayUnavailable
	s.remember(ctx, key, result)
	return &result, domain.NewPaymentError(domain.ErrPaymentGatewayError, result.Message, CodeGatewayUnavailable)
}

func (s *Service) reopen(ctx context.Context, orderID string) {
	if err := s.orders.TransitionOrder(ctx, orderID, domain.OrderProcessing, domain.OrderPending); err != nil {
		s.logger.Error("failed to reopen order", "order_id", orderID, "error", err)
	}
}

// ProcessNotification verifies a gateway callback and applies it to the order.
func (s *Service) ProcessNotification(ctx context.Context, gateway string, n domain.Notification) error {
	verifier, ok := s.verifiers[gateway]
	if !ok {
		return domain.NewPaymentError(domain.ErrInvalidPaymentRequest,
			fmt.Sprintf("gateway '%s' is not configured", gateway), "UNKNOWN_GATEWAY")
	}

	status, err := verifier.ParseNotification(ctx, n)
	if err != nil {
		if errors.Is(err, domain.ErrWebhookValidationFailed) {
			s.logger.Warn("notification signature validation failed", "gateway", gateway)
		}
		return err
	}

	order, err := s.orders.GetOrder(ctx, status.OrderID)
	if err != nil {
		return err
	}

	if !status.Amount.IsZero() && !sameMoney(order, status) {
		s.logger.Warn("notification amount does not match order",
			"order_id", order.ID, "amount", status.Amount.String(), "currency", status.Currency)
		return domain.NewPaymentError(domain.ErrAmountMismatch,
			"notification amount does not match order", "AMOUNT_MISMATCH")
	}

	if isFinal(order.Status) {
		if order.Status != status.Status {
			s.logger.Warn("ignoring notification for settled order",
				"order_id", order.ID, "order_status", order.Status, "notified_status", status.Status)
		}
		return nil
	}

	// A decline for a payment already recorded must not reopen an order
	// that has since moved on to a new attempt.
	if status.Status == domain.OrderRejected && order.Status == domain.OrderProcessing &&
		status.PaymentID != "" && status.PaymentID == order.GatewayPaymentID {
		s.logger.Info("ignoring stale decline", "order_id", order.ID, "payment_id", status.PaymentID)
		return nil
	}

	applied := *status
	applied.Status = orderStatusFor(status.Status)
	if err := s.orders.UpdatePayment(ctx, applied); err != nil {
		return err
	}

	s.logger.Info("notification processed",
		"gateway", gateway,
		"order_id", order.ID,
		"payment_id", status.PaymentID,
		"status", status.Status)
	return nil
}

// Fingerprint identifies a token without storing it.
func Fingerprint(token domain.OpaquePaymentToken) string {
	sum := sha256.Sum256([]byte(token.Reveal()))
	return hex.EncodeToString(sum[:])
}

func (s *Service) remember(ctx context.Context, key string, result domain.OrderSubmissionResult) {
	if key == "" {
		return
	}
	if err := s.idempotency.Put(ctx, key, result, s.settings.IdempotencyTTL); err != nil {
		s.logger.Error("failed to store idempotent result", "order_id", result.OrderID, "error", err)
	}
}

func matchTransaction(order *domain.Order, info domain.TransactionInfo) error {
	if info.CurrencyCode != order.Currency || info.CountryCode != order.Country {
		return domain.NewPaymentError(domain.ErrAmountMismatch,
			"currency or country does not match order", "AMOUNT_MISMATCH")
	}
	expected, err := domain.FormatAmount(order.Total, order.Currency)
	if err != nil {
		return err
	}
	if !domain.SameAmount(info.TotalPrice, expected, order.Currency) {
		return domain.NewPaymentError(domain.ErrAmountMismatch,
			"total price does not match order", "AMOUNT_MISMATCH")
	}
	return nil
}

func sameMoney(order *domain.Order, status *domain.PaymentStatus) bool {
	if status.Currency != "" && status.Currency != order.Currency {
		return false
	}
	return domain.SameAmount(status.Amount.String(), order.Total.String(), order.Currency)
}

func isFinal(s domain.OrderStatus) bool {
	return s == domain.OrderPaid
}

// orderStatusFor maps a charge outcome onto the order: a declined attempt
// leaves the order payable.
func orderStatusFor(charge domain.OrderStatus) domain.OrderStatus {
	if charge == domain.OrderRejected {
		return domain.OrderPending
	}
	return charge
}

func describe(order *domain.Order) string {
	if len(order.Items) == 1 {
		return order.Items[0].Name
	}
	return fmt.Sprintf("Order %s (%d items)", order.ID, len(order.Items))
}
