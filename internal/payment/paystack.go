// Package payment talks to the external payment gateway. The core only needs
// one thing from it: given a payment reference, report whether the charge
// went through and for whom.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Verification is the gateway's answer for a payment reference. Amount and
// Fees are in minor currency units, exactly as the gateway reports them.
type Verification struct {
	Status        string
	Reference     string
	CustomerEmail string
	Amount        int64
	Fees          int64
}

// Succeeded reports whether the gateway considers the charge settled.
func (v Verification) Succeeded() bool { return v.Status == "success" }

// Verifier is the interface the download path depends on. The production
// implementation is PaystackClient; tests substitute a fake.
type Verifier interface {
	VerifyReference(ctx context.Context, reference string) (Verification, error)
}

// PaystackClient verifies transaction references against the Paystack API.
type PaystackClient struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

// NewPaystackClient returns a client with a bounded request timeout.
func NewPaystackClient(baseURL, secretKey string) *PaystackClient {
	return &PaystackClient{
		BaseURL:    baseURL,
		SecretKey:  secretKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Fees      int64  `json:"fees"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// VerifyReference calls GET /transaction/verify/{reference}. A non-nil error
// means the gateway could not be consulted; a business-level decline comes
// back as a Verification whose Status is not "success".
func (c *PaystackClient) VerifyReference(ctx context.Context, reference string) (Verification, error) {
	endpoint := fmt.Sprintf("%s/transaction/verify/%s", c.BaseURL, url.PathEscape(reference))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Verification{}, fmt.Errorf("payment: build verify request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Verification{}, fmt.Errorf("payment: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verification{}, fmt.Errorf("payment: gateway returned %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Verification{}, fmt.Errorf("payment: decode verify response: %w", err)
	}

	return Verification{
		Status:        body.Data.Status,
		Reference:     body.Data.Reference,
		CustomerEmail: body.Data.Customer.Email,
		Amount:        body.Data.Amount,
		Fees:          body.Data.Fees,
	}, nil
}
