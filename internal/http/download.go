package http

import (
	"errors"
	"net/http"

	"github.com/bitmerch/bitmerch/internal/service"
	"github.com/bitmerch/bitmerch/pkg/httpx"
	"github.com/bitmerch/bitmerch/pkg/idempotency"
	"github.com/bitmerch/bitmerch/pkg/idx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
)

// IdempotencyMiddleware rejects repeated download attempts for the same
// product within the guard's TTL window. The product id in the path doubles
// as the idempotency key, so it is validated here before anything else runs.
// A duplicate burns no further work: payment verification and archive
// generation are both skipped.
func IdempotencyMiddleware(guard *idempotency.Guard) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.PathValue("id")
			if _, err := idx.Parse(id); err != nil {
				httpx.Fail(w, http.StatusBadRequest, "Invalid product id")
				return
			}

			if err := guard.Admit("download:" + id); err != nil {
				slogx.FromContext(r.Context()).Info("duplicate download suppressed", "product_id", id)
				w.Header().Set("X-Idempotent-Status", "duplicate")
				httpx.Fail(w, http.StatusConflict, "Duplicate request. This request has already been processed.")
				return
			}

			w.Header().Set("X-Idempotent-Status", "accepted")
			next.ServeHTTP(w, r)
		})
	}
}

// PaymentMiddleware verifies the payment_reference query parameter against
// the gateway before letting the download proceed. It sits inside the
// idempotency guard so a failed payment still consumes the request's key.
func PaymentMiddleware(payments *service.PaymentService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reference := r.URL.Query().Get("payment_reference")
			if reference == "" {
				httpx.Fail(w, http.StatusBadRequest, "payment_reference is required")
				return
			}

			err := payments.VerifyAndRecord(r.Context(), reference)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, service.ErrPaymentRequired):
				httpx.Fail(w, http.StatusPaymentRequired, "Payment is required to access this resource.")
			case errors.Is(err, service.ErrPaymentUnavailable):
				httpx.Fail(w, http.StatusInternalServerError, "Could not verify payment")
			default:
				slogx.FromContext(r.Context()).Error("payment check failed", "error", err)
				httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
			}
		})
	}
}

// DownloadHandler serves GET /api/v1/products/{id}/download after the
// idempotency and payment middlewares have passed.
type DownloadHandler struct {
	ProductService *service.ProductService
}

// ServeHTTP godoc
//
//	@Summary		Download a purchased product
//	@Description	Verifies the payment reference, then returns a time-limited URL to a password-protected copy of the archive. Repeat requests for the same product within the idempotency window are rejected.
//	@Tags			Products
//	@Produce		json
//	@Param			id					path		string			true	"product id"
//	@Param			payment_reference	query		string			true	"gateway payment reference"
//	@Success		200					{object}	httpx.Envelope	"data holds tempDownloadURL, password and an expiry note"
//	@Failure		400					{object}	httpx.Envelope	"bad product id or missing payment_reference"
//	@Failure		402					{object}	httpx.Envelope	"payment not settled"
//	@Failure		409					{object}	httpx.Envelope	"duplicate request"
//	@Failure		500					{object}	httpx.Envelope
//	@Router			/api/v1/products/{id}/download [get].
func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	grant, err := h.ProductService.PrepareArchive(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		httpx.OK(w, "Archive is ready for download", grant)
	case errors.Is(err, service.ErrUnknownProduct):
		httpx.Fail(w, http.StatusBadRequest, "No product was found")
	case errors.Is(err, service.ErrArchiveFailed):
		httpx.Fail(w, http.StatusInternalServerError, "Error generating file")
	default:
		log.Error("download failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
