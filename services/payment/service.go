package payment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"tecnicosrd/models"
	"tecnicosrd/utils"

	"go.uber.org/zap"
)

// DefaultPaymentService records cash payments and routes card payments to a Gateway.
type DefaultPaymentService struct {
	Gateway  Gateway
	Currency string
}

func NewPaymentService(gateway Gateway, currency string) *DefaultPaymentService {
	return &DefaultPaymentService{Gateway: gateway, Currency: currency}
}

// ToCents converts an amount to the smallest currency unit.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *DefaultPaymentService) Charge(ctx context.Context, b *models.Booking) (*ChargeResult, error) {
	switch b.PaymentMethod {
	case models.PaymentCash:
		return &ChargeResult{
			Method:    models.PaymentCash,
			Status:    models.PaymentStatusPending,
			Reference: "cash:" + b.ID,
		}, nil
	case models.PaymentCard:
		if s.Gateway == nil {
			return nil, ErrCardUnavailable
		}
		currency := b.Currency
		if currency == "" {
			currency = s.Currency
		}
		intent, err := s.Gateway.CreateIntent(ctx, IntentRequest{
			AmountCents:    ToCents(b.Price),
			Currency:       strings.ToLower(currency),
			Description:    fmt.Sprintf("Reserva %s (%s)", b.ID, b.Specialization),
			IdempotencyKey: "booking-" + b.ID,
			Metadata: map[string]string{
				"bookingId":    b.ID,
				"customerId":   b.CustomerID,
				"technicianId": b.TechnicianID,
			},
		})
		if err != nil {
			utils.GetLogger().Error("Charge: failed to create payment intent", zap.String("bookingID", b.ID), zap.Error(err))
			return nil, fmt.Errorf("failed to start card payment: %w", err)
		}
		return &ChargeResult{
			Method:       models.PaymentCard,
			Status:       models.PaymentStatusPending,
			Reference:    intent.ID,
			ClientSecret: intent.ClientSecret,
		}, nil
	}
	return nil, ErrUnsupportedMethod
}

func (s *DefaultPaymentService) Settle(ctx context.Context, b *models.Booking) (string, error) {
	if b.PaymentMethod == models.PaymentCash {
		return models.PaymentStatusPaid, nil
	}
	if s.Gateway == nil || b.PaymentRef == "" {
		return b.PaymentStatus, nil
	}
	intent, err := s.Gateway.GetIntent(ctx, b.PaymentRef)
	if err != nil {
		return b.PaymentStatus, fmt.Errorf("failed to read payment %s: %w", b.PaymentRef, err)
	}
	if intent.Succeeded {
		return models.PaymentStatusPaid, nil
	}
	return b.PaymentStatus, nil
}

func (s *DefaultPaymentService) Refund(ctx context.Context, b *models.Booking) (string, error) {
	if b.PaymentMethod != models.PaymentCard || b.PaymentRef == "" || s.Gateway == nil {
		if b.PaymentMethod == models.PaymentCash && b.PaymentStatus == models.PaymentStatusPending {
			return models.PaymentStatusVoided, nil
		}
		return b.PaymentStatus, nil
	}
	if b.PaymentStatus == models.PaymentStatusRefunded || b.PaymentStatus == models.PaymentStatusVoided {
		return b.PaymentStatus, nil
	}
	refunded, err := s.Gateway.Release(ctx, b.PaymentRef)
	if err != nil {
		utils.GetLogger().Error("Refund: failed to release payment", zap.String("bookingID", b.ID), zap.Error(err))
		return b.PaymentStatus, fmt.Errorf("failed to refund payment: %w", err)
	}
	if refunded {
		return models.PaymentStatusRefunded, nil
	}
	return models.PaymentStatusVoided, nil
}
