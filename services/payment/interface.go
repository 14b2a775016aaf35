package payment

import (
	"context"
	"errors"

	"tecnicosrd/models"
)

var (
	ErrUnsupportedMethod = errors.New("payment method must be cash or card")
	ErrCardUnavailable   = errors.New("card payments are not available")
)

// ChargeResult is the outcome of initiating a payment for a booking.
type ChargeResult struct {
	Method       string `json:"method"`
	Status       string `json:"status"`
	Reference    string `json:"reference"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// PaymentService initiates, settles and reverses booking payments.
type PaymentService interface {
	Charge(ctx context.Context, b *models.Booking) (*ChargeResult, error)
	// Settle returns the payment status once the job is completed.
	Settle(ctx context.Context, b *models.Booking) (string, error)
	// Refund reverses a card payment and returns the new payment status.
	Refund(ctx context.Context, b *models.Booking) (string, error)
}

// Gateway is the card processor.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	// Release refunds a captured intent or cancels one not yet paid; refunded reports which.
	Release(ctx context.Context, id string) (refunded bool, err error)
}

// IntentRequest describes a card payment to open.
type IntentRequest struct {
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

// Intent is the processor-side view of a card payment.
type Intent struct {
	ID           string
	ClientSecret string
	Succeeded    bool
}
