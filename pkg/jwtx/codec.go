package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind selects which signing secret and lifetime a token is bound to.
// Access and refresh tokens share the same claim shape but are signed with
// independent secrets, so one can never be presented in place of the other.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Default token lifetimes. The refresh lifetime is unusually short for a
// refresh token; it matches the behaviour this service replaces and can be
// overridden through configuration.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 30 * time.Minute
)

var (
	// ErrInvalidToken is the uniform verification failure. Malformed,
	// expired, wrong-signature and wrong-audience tokens all collapse into
	// it so callers cannot probe validation internals; the underlying cause
	// stays wrapped for server-side logging.
	ErrInvalidToken = errors.New("jwtx: invalid or expired token")

	// ErrMissingSecret reports a codec constructed without a per-kind
	// secret. This is a startup-fatal misconfiguration, never a
	// per-request condition.
	ErrMissingSecret = errors.New("jwtx: signing secret not configured")

	// ErrUnknownKind reports a token kind the codec does not know about.
	ErrUnknownKind = errors.New("jwtx: unknown token kind")
)

// Identity is the subject a token is minted for.
type Identity struct {
	ID    string
	Email string
	Role  string
}

// Claims are the claims embedded in both token kinds.
type Claims struct {
	jwt.RegisteredClaims

	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Identity reconstructs the subject the claims were minted for.
func (c Claims) Identity() Identity {
	return Identity{ID: c.Subject, Email: c.Email, Role: c.Role}
}

// Config holds everything the codec needs. Both secrets are required.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec signs and verifies the service's bearer tokens. It is pure and
// stateless; the only inputs are the configured secrets and the wall clock.
type Codec struct {
	cfg Config
}

// NewCodec validates cfg and returns a Codec. A missing secret fails here,
// at startup, rather than surfacing later as a per-request signing error.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("%w: access", ErrMissingSecret)
	}
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: refresh", ErrMissingSecret)
	}
	// Zero means "use the default". Negative lifetimes are left alone; they
	// mint pre-expired tokens, which tests rely on.
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTokenTTL
	}
	return &Codec{cfg: cfg}, nil
}

// Sign mints a token of the given kind for id, expiring after the kind's
// configured lifetime.
func (c *Codec) Sign(kind Kind, id Identity) (string, error) {
	secret, ttl, err := c.kindParams(kind)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   id.ID,
			Audience:  jwt.ClaimStrings{c.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email: id.Email,
		Role:  id.Role,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("jwtx: sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify parses and validates a token of the given kind. The token must be
// well-formed, signed with the kind's secret, unexpired, and carry the
// configured issuer and audience. Any failure is reported as ErrInvalidToken.
func (c *Codec) Verify(kind Kind, token string) (Claims, error) {
	secret, _, err := c.kindParams(kind)
	if err != nil {
		return Claims{}, err
	}

	var claims Claims
	_, err = jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.cfg.Issuer),
		jwt.WithAudience(c.cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims, nil
}

// AccessTTL reports the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

func (c *Codec) kindParams(kind Kind) (secret string, ttl time.Duration, err error) {
	switch kind {
	case KindAccess:
		return c.cfg.AccessSecret, c.cfg.AccessTTL, nil
	case KindRefresh:
		return c.cfg.RefreshSecret, c.cfg.RefreshTTL, nil
	default:
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
