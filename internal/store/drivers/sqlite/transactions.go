package sqlite

import (
	"context"
	"time"

	"github.com/bitmerch/bitmerch/internal/domain"
)

type transactionsRepo struct {
	db querier
}

func (r *transactionsRepo) CreateTransaction(ctx context.Context, t domain.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, customer_email, payment_reference, amount, fees, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.CustomerEmail, t.PaymentReference, t.Amount, t.Fees, time.Now().UTC())
	return mapConstraint(err)
}

func (r *transactionsRepo) GetTransactionByReference(ctx context.Context, reference string) (domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, customer_email, payment_reference, amount, fees, created_at
		 FROM transactions WHERE payment_reference = ?`, reference)

	var t domain.Transaction
	if err := row.Scan(&t.ID, &t.CustomerEmail, &t.PaymentReference, &t.Amount, &t.Fees, &t.CreatedAt); err != nil {
		return domain.Transaction{}, mapNotFound(err)
	}
	return t, nil
}
