package service

import (
	"context"
	"errors"

	"github.com/bitmerch/bitmerch/internal/domain"
	"github.com/bitmerch/bitmerch/internal/payment"
	"github.com/bitmerch/bitmerch/internal/store"
	"github.com/bitmerch/bitmerch/pkg/idx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
)

var (
	ErrPaymentRequired    = errors.New("payment_required")
	ErrPaymentUnavailable = errors.New("payment_gateway_unavailable")
)

// PaymentService verifies a payment reference against the gateway and
// records the settled transaction. No retries: verification is at-most-once
// from this service's perspective.
type PaymentService struct {
	Store    store.Store
	Verifier payment.Verifier
}

// VerifyAndRecord consults the gateway for reference. A declined or pending
// charge yields ErrPaymentRequired; an unreachable gateway yields
// ErrPaymentUnavailable. On success the transaction is persisted with
// amounts converted from minor to major units.
func (s *PaymentService) VerifyAndRecord(ctx context.Context, reference string) error {
	l := slogx.FromContext(ctx)

	v, err := s.Verifier.VerifyReference(ctx, reference)
	if err != nil {
		l.Error("payment verification failed", "reference", reference, "error", err)
		return ErrPaymentUnavailable
	}

	if !v.Succeeded() {
		l.Info("payment not settled", "reference", reference, "status", v.Status)
		return ErrPaymentRequired
	}

	t := domain.Transaction{
		ID:               idx.New().String(),
		CustomerEmail:    v.CustomerEmail,
		PaymentReference: v.Reference,
		Amount:           float64(v.Amount) / 100,
		Fees:             float64(v.Fees) / 100,
	}

	if err := s.Store.Transactions().CreateTransaction(ctx, t); err != nil {
		// The same reference may legitimately be re-verified after an
		// idempotency window expires; the first record stands.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return err
	}

	return nil
}
