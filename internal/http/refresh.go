package http

import (
	"errors"
	"net/http"

	"github.com/bitmerch/bitmerch/internal/service"
	"github.com/bitmerch/bitmerch/pkg/httpx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
)

// RefreshHandler serves POST /api/v1/refresh. The refresh token is presented
// as a bearer credential; on success the old token is rotated out and a new
// pair returned.
type RefreshHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Rotate tokens
//	@Description	Exchanges a valid refresh token for a new access+refresh pair. The presented token must be the one on record; rotation invalidates it immediately.
//	@Tags			Auth
//	@Produce		json
//	@Param			Authorization	header		string			true	"Bearer refresh token"
//	@Success		200				{object}	httpx.Envelope	"data holds accessToken and refreshToken"
//	@Failure		401				{object}	httpx.Envelope	"missing, malformed or unknown token"
//	@Failure		403				{object}	httpx.Envelope	"signature invalid or expired"
//	@Failure		500				{object}	httpx.Envelope
//	@Router			/api/v1/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	if r.Header.Get("Authorization") == "" {
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized - Missing Authorization header")
		return
	}

	token, ok := httpx.BearerToken(r)
	if !ok {
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized - Invalid or Missing Bearer Token")
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), token)
	switch {
	case err == nil:
		httpx.OK(w, "Token refreshed successfully", pair)
	case errors.Is(err, service.ErrUnknownToken):
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized - Invalid Refresh Token")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.Fail(w, http.StatusForbidden, "Forbidden - Invalid or Expired Refresh token")
	default:
		log.Error("token refresh failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
