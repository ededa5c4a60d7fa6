package domain

import "time"

// Transaction records a verified payment. Amount and fees are in major
// currency units; the gateway reports minor units and the payment service
// converts before persisting.
type Transaction struct {
	ID               string
	CustomerEmail    string
	PaymentReference string
	Amount           float64
	Fees             float64
	CreatedAt        time.Time
}
