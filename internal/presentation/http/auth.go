package httppresentation

import (
	"net/http"
	"strings"

	"github.com/SivanLevi100/storefront/internal/domain/identity"
	"github.com/SivanLevi100/storefront/internal/observability"
	"github.com/SivanLevi100/storefront/internal/observability/logctx"
)

// TokenVerifier resolves a bearer token into the calling principal.
type TokenVerifier interface {
	Verify(token string) (identity.Principal, error)
}

// Authenticate requires a valid bearer token and stores the principal on the context.
func Authenticate(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				writeDomainError(w, r, identity.ErrUnauthenticated)
				return
			}
			p, err := tokens.Verify(strings.TrimSpace(raw))
			if err != nil {
				writeDomainError(w, r, err)
				return
			}
			ctx := identity.WithPrincipal(r.Context(), p)
			ctx = logctx.Enrich(ctx,
				observability.F("user_id", p.UserID),
				observability.F("role", string(p.Role)),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects authenticated callers that are not admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := identity.FromContext(r.Context())
		if err := identity.Authorize(p, 0); err != nil {
			writeDomainError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func principal(r *http.Request) identity.Principal {
	p, _ := identity.FromContext(r.Context())
	return p
}
