package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bitmerch/bitmerch/internal/domain"
	"github.com/bitmerch/bitmerch/internal/store"
	"github.com/bitmerch/bitmerch/pkg/cryptox"
	"github.com/bitmerch/bitmerch/pkg/idx"
	"github.com/bitmerch/bitmerch/pkg/jwtx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
)

var (
	ErrDuplicateEmail = errors.New("duplicate_email")
	ErrWeakPassword   = errors.New("weak_password")
	ErrUnknownUser    = errors.New("unknown_user")
	ErrBadPassword    = errors.New("bad_password")
	ErrTokenIssuance  = errors.New("token_issuance_failed")
	ErrUnknownToken   = errors.New("unknown_refresh_token")
	ErrInvalidRefresh = errors.New("invalid_refresh_token")
)

// Password policy bounds. The charset requirement mirrors the original
// alphanumeric constraint; the floor is raised to eight characters.
const (
	minPasswordLen = 8
	maxPasswordLen = 64
)

// AuthService owns the authentication token lifecycle: registration, login,
// and refresh-token rotation. It is the only component allowed to decide
// when tokens are minted or rotated; the store merely persists its choices.
type AuthService struct {
	Store       store.Store
	Codec       *jwtx.Codec
	DefaultRole string
}

// RegisterParams are the inputs to Register, pre-trimmed by the handler.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string // optional; DefaultRole when empty
}

// Register stores a new identity with a one-way hashed password. The email
// is lowercased before storage so duplicate checks are case-insensitive.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) error {
	l := slogx.FromContext(ctx)

	if err := validatePassword(p.Password); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		l.Error("password hashing failed", "error", err)
		return fmt.Errorf("hash password: %w", err)
	}

	role := p.Role
	if role == "" {
		role = s.DefaultRole
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		FirstName:    strings.ToLower(strings.TrimSpace(p.FirstName)),
		LastName:     strings.ToLower(strings.TrimSpace(p.LastName)),
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return ErrDuplicateEmail
		}
		return err
	}

	l.Info("user registered", "user_id", u.ID, "role", u.Role)
	return nil
}

// Login checks the password and, on success, mints an access+refresh pair
// and persists the new refresh token fingerprint, overwriting any prior one.
// The overwrite is the sole revocation mechanism; there is no logout.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUnknownUser
		}
		return domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.TokenPair{}, ErrBadPassword
		}
		// Malformed stored hash; an internal fault, not a caller mistake.
		l.Error("stored password hash unreadable", "user_id", u.ID, "error", err)
		return domain.TokenPair{}, err
	}

	return s.issuePair(ctx, u)
}

// Refresh rotates tokens. The presented token must both be the one on record
// for some user (membership check) and carry a valid signature and expiry
// (codec check). A signature-valid token that has already been rotated away
// fails the first check; the two checks are deliberately independent.
func (s *AuthService) Refresh(ctx context.Context, presented string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	fp := cryptox.FingerprintToken(presented)
	u, err := s.Store.Users().GetUserByRefreshTokenHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrUnknownToken
		}
		return domain.TokenPair{}, err
	}

	if _, err := s.Codec.Verify(jwtx.KindRefresh, presented); err != nil {
		l.Warn("refresh token failed verification", "user_id", u.ID, "error", err)
		return domain.TokenPair{}, ErrInvalidRefresh
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return domain.TokenPair{}, err
	}

	l.Info("refresh token rotated", "user_id", u.ID)
	return pair, nil
}

// issuePair signs both tokens, then persists the refresh fingerprint. The
// validation of the caller has already happened; the persist step must come
// strictly after signing so a signing failure leaves the stored token
// untouched. The overwrite itself is last-writer-wins: concurrent refreshes
// for the same user leave only the final write's token valid, which only
// affects that user's own sessions.
func (s *AuthService) issuePair(ctx context.Context, u domain.User) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	id := jwtx.Identity{ID: u.ID, Email: u.Email, Role: u.Role}

	access, err := s.Codec.Sign(jwtx.KindAccess, id)
	if err != nil {
		l.Error("access token signing failed", "user_id", u.ID, "error", err)
		return domain.TokenPair{}, ErrTokenIssuance
	}

	refresh, err := s.Codec.Sign(jwtx.KindRefresh, id)
	if err != nil {
		l.Error("refresh token signing failed", "user_id", u.ID, "error", err)
		return domain.TokenPair{}, ErrTokenIssuance
	}

	fp := cryptox.FingerprintToken(refresh)
	if err := s.Store.Users().UpdateRefreshTokenHash(ctx, u.ID, fp); err != nil {
		l.Error("persisting refresh token failed", "user_id", u.ID, "error", err)
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// validatePassword enforces the minimum-strength policy: 8-64 alphanumeric
// characters with at least one letter and one digit.
func validatePassword(pw string) error {
	if len(pw) < minPasswordLen || len(pw) > maxPasswordLen {
		return fmt.Errorf("%w: must be between %d and %d characters",
			ErrWeakPassword, minPasswordLen, maxPasswordLen)
	}

	var hasLetter, hasDigit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			return fmt.Errorf("%w: only letters and digits are allowed", ErrWeakPassword)
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: must contain at least one letter and one digit", ErrWeakPassword)
	}

	return nil
}
