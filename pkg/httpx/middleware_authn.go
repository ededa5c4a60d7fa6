package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/bitmerch/bitmerch/pkg/jwtx"
	"github.com/bitmerch/bitmerch/pkg/slogx"
)

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The second return is false when the header is absent or not a
// bearer credential.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return "", false
	}

	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// AuthnMiddleware verifies the bearer access token and injects the subject
// into the request context. Verification failures are reported uniformly.
func AuthnMiddleware(codec *jwtx.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			if r.Header.Get("Authorization") == "" {
				Fail(w, http.StatusUnauthorized, "Unauthorized - Missing Authorization header")
				return
			}

			raw, ok := BearerToken(r)
			if !ok {
				Fail(w, http.StatusUnauthorized, "Unauthorized - Invalid or Missing Bearer Token")
				return
			}

			claims, err := codec.Verify(jwtx.KindAccess, raw)
			if err != nil {
				log.Warn("access token verification failed", "err", err)
				Fail(w, http.StatusUnauthorized, "Unauthorized - Invalid or Expired Access token")
				return
			}

			ctx = contextWithIdentity(ctx, claims.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a handler on the authenticated role tag. It must sit
// inside AuthnMiddleware in the chain.
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromCtx(r.Context()) != role {
				Fail(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contextWithIdentity(ctx context.Context, id jwtx.Identity) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, id.ID)
	ctx = context.WithValue(ctx, CtxKeyEmail, id.Email)
	ctx = context.WithValue(ctx, CtxKeyRole, id.Role)
	return ctx
}
