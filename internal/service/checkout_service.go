package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/promo"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// checkoutService implements CheckoutService.
type checkoutService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	promoRepo   repository.PromoRepository
	evaluator   promo.Evaluator
	gateways    Gateways
	notifier    Notifier
	currency    string
	sanitizer   *bluemonday.Policy
	now         func() time.Time
	logger      zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	promoRepo repository.PromoRepository,
	evaluator promo.Evaluator,
	gateways Gateways,
	notifier Notifier,
	currency string,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		promoRepo:   promoRepo,
		evaluator:   evaluator,
		gateways:    gateways,
		notifier:    notifier,
		currency:    currency,
		sanitizer:   bluemonday.StrictPolicy(),
		now:         time.Now,
		logger:      logger.With().Str("service", "checkout").Logger(),
	}
}

// PlaceOrder runs the checkout: validation, authoritative pricing, promo
// evaluation, one transaction for the order, its lines, the first tracking
// event and the promo redemption, then payment and guest notification.
func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	req := cmd.Request
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	method, err := req.ResolvePaymentMethod()
	if err != nil {
		return nil, err
	}

	lines, subtotal, err := s.priceLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	pricing := model.ApplyDiscount(subtotal, nil, model.None{})
	var promoCode *string
	if req.PromoCode != nil && strings.TrimSpace(*req.PromoCode) != "" {
		result, err := s.evaluator.Validate(ctx, *req.PromoCode, subtotal)
		if err != nil {
			if model.IsPromotionError(err) {
				s.logger.Info().
					Str("promo_code", *req.PromoCode).
					Err(err).
					Msg("promo code rejected at checkout")
				return nil, err
			}
			return nil, fmt.Errorf("failed to evaluate promo code: %w", err)
		}
		pricing = model.ApplyDiscount(subtotal, pricedLines(lines), result.Discount)
		promoCode = &result.Code
	}

	s.logClientTotals(req, pricing)

	accountID, isGuest := customerOf(cmd.Actor, req.IsGuest)
	now := s.now().UTC()
	order := &model.Order{
		ID:             uuid.New(),
		AccountID:      accountID,
		IsGuest:        isGuest,
		Status:         model.StatusPending,
		PaymentMethod:  method,
		Subtotal:       pricing.Subtotal,
		DiscountAmount: pricing.Discount,
		DiscountKind:   pricing.Kind,
		PromoCode:      promoCode,
		Total:          pricing.Total,
		Shipping:       shippingFrom(req.CustomerInfo),
		Notes:          s.sanitizeNotes(req.CustomerInfo.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range lines {
		lines[i].ID = uuid.New()
		lines[i].OrderID = order.ID
	}
	order.Lines = lines

	if err := s.persist(ctx, order, now); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("payment_method", string(method)).
		Str("total", order.Total.StringFixed(2)).
		Bool("guest", order.IsGuest).
		Msg("order placed")

	result := &PlaceOrderResult{Order: order}
	paymentErr := s.requestPayment(ctx, order, result)

	if order.IsGuest {
		s.notifier.Dispatch(context.WithoutCancel(ctx), guestNotificationFor(order))
	}

	if paymentErr != nil {
		return result, paymentErr
	}
	return result, nil
}

// validateRequest checks the cart and the contact block. Guests and
// registered customers are held to the same required fields.
func (s *checkoutService) validateRequest(req *model.OrderRequest) error {
	if req == nil || len(req.Items) == 0 {
		return model.ErrEmptyCart
	}

	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return model.NewFieldError(fmt.Sprintf("items[%d].productId", i), "is required")
		}
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	info := req.CustomerInfo
	required := []struct {
		field string
		value string
	}{
		{"customerInfo.fullName", info.DisplayName()},
		{"customerInfo.email", info.Email},
		{"customerInfo.phone", info.Phone},
		{"customerInfo.address", info.Address},
		{"customerInfo.city", info.City},
		{"customerInfo.postalCode", info.PostalCode},
		{"customerInfo.country", info.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return model.NewFieldError(r.field, "is required")
		}
	}

	return nil
}

// priceLines loads every product once and freezes its current price onto
// the line. Client supplied prices are never used.
func (s *checkoutService) priceLines(ctx context.Context, items []model.OrderItemRequest) ([]model.OrderLine, decimal.Decimal, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(ids)).Msg("failed to load products")
		return nil, decimal.Zero, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]model.OrderLine, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", item.ProductID).Msg("product not found")
			return nil, decimal.Zero, fmt.Errorf("%w: %s", model.ErrProductNotFound, item.ProductID)
		}

		if item.Price != nil && !item.Price.Equal(product.Price) {
			s.logger.Warn().
				Str("product_id", product.ID).
				Str("client_price", item.Price.StringFixed(2)).
				Str("price", product.Price.StringFixed(2)).
				Msg("client price differs from catalogue price")
		}

		lines[i] = model.OrderLine{
			ProductID:   product.ID,
			VendorID:    product.VendorID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
		}
		subtotal = subtotal.Add(lines[i].LineTotal())
	}

	return lines, subtotal.Round(2), nil
}

// persist writes the order, its lines, the first tracking event and the
// promo redemption atomically.
func (s *checkoutService) persist(ctx context.Context, order *model.Order, now time.Time) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderLines(ctx, tx, order.Lines); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("line_count", len(order.Lines)).
			Msg("failed to create order lines")
		return fmt.Errorf("failed to create order lines: %w", err)
	}

	event := &model.TrackingEvent{
		ID:          uuid.New(),
		OrderID:     order.ID,
		Status:      model.StatusPending,
		Description: model.StatusPending.Description(),
		CreatedAt:   now,
	}
	if err = s.orderRepo.AppendTrackingEvent(ctx, tx, event); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record tracking event")
		return fmt.Errorf("failed to record tracking event: %w", err)
	}

	if order.PromoCode != nil {
		if err = s.promoRepo.Redeem(ctx, tx, *order.PromoCode, now); err != nil {
			if model.IsPromotionError(err) {
				s.logger.Info().
					Str("promo_code", *order.PromoCode).
					Err(err).
					Msg("promo code stopped being redeemable during checkout")
				return err
			}
			s.logger.Error().Err(err).Str("promo_code", *order.PromoCode).Msg("failed to redeem promo code")
			return fmt.Errorf("failed to redeem promo code: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// requestPayment asks the method's gateway for a session. A failure keeps
// the order and is returned to the caller alongside the result.
func (s *checkoutService) requestPayment(ctx context.Context, order *model.Order, result *PlaceOrderResult) error {
	if !order.PaymentMethod.RequiresSession() {
		return nil
	}

	if !order.Total.IsPositive() {
		s.logger.Info().Str("order_id", order.ID.String()).Msg("order total is zero, no payment session needed")
		return nil
	}

	gateway, err := s.gateways.For(order.PaymentMethod)
	if err != nil {
		s.logger.Error().Err(err).Str("payment_method", string(order.PaymentMethod)).Msg("no payment gateway")
		return fmt.Errorf("%w: %v", model.ErrPaymentUnavailable, err)
	}

	session, err := gateway.CreateSession(ctx, payment.SessionRequest{
		OrderID:       order.ID.String(),
		Amount:        order.Total,
		Currency:      s.currency,
		CustomerEmail: order.Shipping.Email,
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("order stored without payment session")
		return err
	}

	result.PaymentURL = session.RedirectURL
	return nil
}

func (s *checkoutService) logClientTotals(req *model.OrderRequest, pricing model.Pricing) {
	if req.TotalAmount != nil && !req.TotalAmount.Equal(pricing.Total) {
		s.logger.Warn().
			Str("client_total", req.TotalAmount.StringFixed(2)).
			Str("total", pricing.Total.StringFixed(2)).
			Msg("client total differs from computed total")
	}
}

func (s *checkoutService) sanitizeNotes(notes string) *string {
	clean := strings.TrimSpace(s.sanitizer.Sanitize(notes))
	if clean == "" {
		return nil
	}
	return &clean
}

// customerOf resolves the account an order belongs to. Orders without an
// account, or flagged as guest by the client, take the guest path.
func customerOf(actor *model.Actor, requestedGuest bool) (*string, bool) {
	if actor == nil || actor.UserID == "" {
		return nil, true
	}
	id := actor.UserID
	return &id, requestedGuest
}

func shippingFrom(info model.CustomerInfo) model.ShippingAddress {
	return model.ShippingAddress{
		FullName:   info.DisplayName(),
		Email:      strings.TrimSpace(info.Email),
		Phone:      strings.TrimSpace(info.Phone),
		Street:     strings.TrimSpace(info.Address),
		City:       strings.TrimSpace(info.City),
		PostalCode: strings.TrimSpace(info.PostalCode),
		Country:    strings.TrimSpace(info.Country),
	}
}

func pricedLines(lines []model.OrderLine) []model.PricedLine {
	priced := make([]model.PricedLine, len(lines))
	for i, l := range lines {
		priced[i] = model.PricedLine{Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return priced
}

func guestNotificationFor(order *model.Order) notify.GuestNotification {
	n := notify.GuestNotification{
		OrderID: order.ID.String(),
		IsGuest: order.IsGuest,
		Recipient: notify.Recipient{
			Name:  order.Shipping.FullName,
			Email: order.Shipping.Email,
			Phone: order.Shipping.Phone,
		},
		Total: order.Total,
	}
	if order.AccountID != nil {
		n.AccountID = *order.AccountID
	}
	for _, l := range order.Lines {
		n.Lines = append(n.Lines, notify.Line{Name: l.ProductName, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return n
}
