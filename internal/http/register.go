package http

import (
	"errors"
	"net/http"

	"github.com/bitmerch/bitmerch/internal/service"
	"github.com/bitmerch/bitmerch/pkg/httpx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
)

// RegisterHandler serves POST /api/v1/register.
type RegisterHandler struct {
	AuthService *service.AuthService
}

type registerRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role,omitempty"`
}

// ServeHTTP godoc
//
//	@Summary		Register a new account
//	@Description	Creates an identity with a one-way hashed password. Email is unique, case-insensitive.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		registerRequest	true	"registration payload"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		400		{object}	httpx.Envelope	"validation failure"
//	@Failure		401		{object}	httpx.Envelope	"email already registered"
//	@Failure		500		{object}	httpx.Envelope
//	@Router			/api/v1/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := validateName("firstname", req.FirstName); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateName("lastname", req.LastName); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateEmail(req.Email); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.AuthService.Register(r.Context(), service.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	switch {
	case err == nil:
		httpx.OK(w, "Registration success", nil)
	case errors.Is(err, service.ErrWeakPassword):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDuplicateEmail):
		// Worded like the login hint on purpose; the address is taken.
		httpx.Fail(w, http.StatusUnauthorized, "Unauthorized, login to continue")
	default:
		log.Error("registration failed", "error", err)
		httpx.Fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
