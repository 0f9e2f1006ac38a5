package payment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeConfig configures a StripeGateway.
type StripeConfig struct {
	APIKey      string
	AccountID   string
	Currency    string
	SuccessURL  string
	CancelURL   string
	MethodTypes []string
	Timeout     time.Duration
	Backends    *stripe.Backends

	sessions stripeSessionAPI
}

// StripeGateway creates Stripe Checkout sessions.
type StripeGateway struct {
	sessions    stripeSessionAPI
	account     string
	currency    string
	successURL  string
	cancelURL   string
	methodTypes []string
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewStripeGateway constructs a Stripe gateway. A gateway built without an
// API key is valid but fails every call with model.ErrPaymentConfigMissing.
func NewStripeGateway(cfg StripeConfig, logger zerolog.Logger) *StripeGateway {
	sessions := cfg.sessions
	if sessions == nil {
		if apiKey := strings.TrimSpace(cfg.APIKey); apiKey != "" {
			sessions = client.New(apiKey, cfg.Backends).CheckoutSessions
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &StripeGateway{
		sessions:    sessions,
		account:     strings.TrimSpace(cfg.AccountID),
		currency:    strings.ToLower(cfg.Currency),
		successURL:  cfg.SuccessURL,
		cancelURL:   cfg.CancelURL,
		methodTypes: cfg.MethodTypes,
		timeout:     timeout,
		logger:      logger.With().Str("component", "stripe-gateway").Logger(),
	}
}

// CreateSession creates a hosted checkout session for the order total.
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if g.sessions == nil {
		g.logger.Error().Str("order_id", req.OrderID).Msg("stripe API key is not configured")
		return Session{}, model.ErrPaymentConfigMissing
	}

	currency := g.currency
	if req.Currency != "" {
		currency = strings.ToLower(req.Currency)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(withOrderID(g.successURL, req.OrderID)),
		CancelURL:         stripe.String(withOrderID(g.cancelURL, req.OrderID)),
		ClientReferenceID: stripe.String(req.OrderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(minorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Order " + req.OrderID),
					},
				},
			},
		},
		Metadata: map[string]string{"order_id": req.OrderID},
	}
	params.Context = ctx

	if len(g.methodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(g.methodTypes)
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if g.account != "" {
		params.SetStripeAccount(g.account)
	}
	params.SetIdempotencyKey("checkout-" + req.OrderID)

	start := time.Now()
	session, err := g.sessions.New(params)
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("order_id", req.OrderID).
			Dur("duration", time.Since(start)).
			Msg("failed to create checkout session")
		return Session{}, fmt.Errorf("%w: %v", model.ErrPaymentUnavailable, err)
	}

	if session == nil || strings.TrimSpace(session.URL) == "" {
		g.logger.Error().
			Str("order_id", req.OrderID).
			Msg("checkout session returned without a redirect URL")
		return Session{}, fmt.Errorf("%w: empty redirect URL", model.ErrPaymentUnavailable)
	}

	g.logger.Info().
		Str("order_id", req.OrderID).
		Str("session_id", session.ID).
		Dur("duration", time.Since(start)).
		Msg("checkout session created")

	return Session{ID: session.ID, RedirectURL: session.URL}, nil
}

// NewDefaultRegistry wires card and wallet to Stripe Checkout, each with
// its own method types, and the offline methods to ManualGateway.
func NewDefaultRegistry(cfg config.PaymentConfig, logger zerolog.Logger) *Registry {
	base := StripeConfig{
		APIKey:     cfg.StripeAPIKey,
		AccountID:  cfg.StripeAccountID,
		Currency:   cfg.Currency,
		SuccessURL: cfg.SuccessURL,
		CancelURL:  cfg.CancelURL,
		Timeout:    cfg.SessionTimeout,
	}

	card := base
	card.MethodTypes = cfg.CardMethodTypes
	wallet := base
	wallet.MethodTypes = cfg.WalletMethodTypes

	return NewRegistry(map[model.PaymentMethod]Gateway{
		model.PaymentCard:           NewStripeGateway(card, logger.With().Str("method", "card").Logger()),
		model.PaymentWallet:         NewStripeGateway(wallet, logger.With().Str("method", "wallet").Logger()),
		model.PaymentBankTransfer:   ManualGateway{},
		model.PaymentCashOnDelivery: ManualGateway{},
	})
}

// minorUnits converts a decimal amount to the smallest currency unit.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func withOrderID(raw, orderID string) string {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return raw
	}
	q := u.Query()
	q.Set("orderId", orderID)
	u.RawQuery = q.Encode()
	return u.String()
}
