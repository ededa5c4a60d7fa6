package http

import (
	"errors"
	"net/http"

	"github.com/bitmerch/bitmerch/internal/service"
	"github.com/bitmerch/bitmerch/pkg/httpx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
)

// LoginHandler serves POST /api/v1/login.
type LoginHandler struct {
	AuthService *service.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Verifies credentials and issues an access+refresh token pair. The refresh token replaces any previously issued one.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		loginRequest	true	"credentials"
//	@Success		200		{object}	httpx.Envelope	"data holds accessToken and refreshToken"
//	@Failure		400		{object}	httpx.Envelope	"bad password or malformed payload"
//	@Failure		401		{object}	httpx.Envelope	"unknown email"
//	@Failure		500		{object}	httpx.Envelope
//	@Router			/api/v1/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := validateEmail(req.Email); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		httpx.Fail(w, http.StatusBadRequest, "password is required")
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		httpx.OK(w, "Login successful", pair)
	case errors.Is(err, service.ErrUnknownUser):
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized, register to continue")
	case errors.Is(err, service.ErrBadPassword):
		httpx.Fail(w, http.StatusBadRequest, "Invalid email or password")
	default:
		log.Error("login failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
