package payment

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
)

// StripeGateway implements Gateway with Stripe PaymentIntents.
type StripeGateway struct{}

// NewStripeGateway sets the global Stripe key.
func NewStripeGateway(key string) *StripeGateway {
	stripe.Key = key
	return &StripeGateway{}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.AmountCents),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Succeeded: pi.Status == stripe.PaymentIntentStatusSucceeded}, nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, Succeeded: pi.Status == stripe.PaymentIntentStatusSucceeded}, nil
}

func (g *StripeGateway) Release(ctx context.Context, id string) (bool, error) {
	intent, err := g.GetIntent(ctx, id)
	if err != nil {
		return false, err
	}
	if intent.Succeeded {
		params := &stripe.RefundParams{PaymentIntent: stripe.String(id)}
		params.Context = ctx
		if _, err := refund.New(params); err != nil {
			return false, err
		}
		return true, nil
	}

	cancelParams := &stripe.PaymentIntentCancelParams{}
	cancelParams.Context = ctx
	if _, err := paymentintent.Cancel(id, cancelParams); err != nil {
		return false, err
	}
	return false, nil
}
