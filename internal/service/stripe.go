package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"

	"transit/internal/config"
	"transit/internal/domain"
)

// ProviderSession is the external checkout session handed back to a rider.
type ProviderSession struct {
	ID          string
	CheckoutURL string
}

// ProviderSessionRequest carries everything the provider needs to open a
// hosted checkout session for one purchase intent.
type ProviderSessionRequest struct {
	UserID         string
	PurchaseType   domain.PurchaseType
	Amount         float64
	IdempotencyKey string
	Metadata       map[string]string
}

// CheckoutProvider is the external payment provider seam.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, req ProviderSessionRequest) (*ProviderSession, error)
}

// StripeProvider implements CheckoutProvider on Stripe hosted Checkout.
type StripeProvider struct {
	cfg config.StripeConfig
}

// NewStripeProvider creates a StripeProvider and sets the global API key.
func NewStripeProvider(cfg config.StripeConfig) *StripeProvider {
	stripe.Key = cfg.SecretKey
	return &StripeProvider{cfg: cfg}
}

// CreateSession opens a hosted Checkout session. The idempotency key makes
// provider-side retries collapse to one session.
func (p *StripeProvider) CreateSession(ctx context.Context, req ProviderSessionRequest) (*ProviderSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.cfg.SuccessURL),
		CancelURL:         stripe.String(p.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.cfg.Currency),
					UnitAmount: stripe.Int64(int64(req.Amount * 100)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(purchaseDisplayName(req.PurchaseType)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("purchase_type", string(req.PurchaseType))
	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	sess, err := session.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeIdempotency {
			return nil, ErrCheckoutInFlight
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return &ProviderSession{
		ID:          sess.ID,
		CheckoutURL: sess.URL,
	}, nil
}

func purchaseDisplayName(t domain.PurchaseType) string {
	switch t {
	case domain.PurchaseWalletTopup:
		return "Wallet top-up"
	case domain.PurchasePass:
		return "Monthly pass"
	case domain.PurchaseTicket:
		return "Bus ticket"
	default:
		return "Transit purchase"
	}
}
