package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/patitas-pets/patitas-backend/api/responses"
	pkgAuth "github.com/patitas-pets/patitas-backend/pkg/auth"
	"github.com/patitas-pets/patitas-backend/pkg/auth/session"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/enums"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
)

// AccountChecker re-verifies the session's account against the database on
// every gated request, so deactivated or demoted users lose access without
// waiting for the token to expire.
type AccountChecker interface {
	CheckActive(ctx context.Context, userID string) (enums.UserRole, error)
}

// LoginPath is where unauthenticated admin page requests get redirected.
const LoginPath = "/admin"

// Auth validates the session cookie and seeds the request context with the
// account identity. Failures answer with JSON 401/403.
func Auth(cfg config.SessionConfig, sessions session.Checker, accounts AccountChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authenticate(r, cfg, sessions, accounts)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    UserIDFromContext(ctx),
					"actor_role": RoleFromContext(ctx),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminGate protects admin page routes: any request without a live admin
// session is redirected to the login page with the original path preserved in
// returnUrl. The login page itself is never gated.
func AdminGate(cfg config.SessionConfig, sessions session.Checker, accounts AccountChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == LoginPath || r.URL.Path == LoginPath+"/" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, err := authenticate(r, cfg, sessions, accounts)
			if err != nil {
				redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate runs the full session check: cookie present, token valid and
// unexpired, session alive in the store, account still active with an allowed
// role. An expired or malformed token is treated the same as a missing one.
func authenticate(r *http.Request, cfg config.SessionConfig, sessions session.Checker, accounts AccountChecker) (context.Context, error) {
	token := pkgAuth.SessionTokenFromRequest(r)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "credenciales requeridas")
	}

	claims, err := pkgAuth.ParseSessionToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "sesión inválida")
	}

	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sesión inválida")
	}

	if sessions != nil {
		ok, err := sessions.HasSession(r.Context(), claims.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "la sesión expiró")
		}
	}

	role := claims.Role
	if accounts != nil {
		role, err = accounts.CheckActive(r.Context(), claims.UserID.String())
		if err != nil {
			return nil, err
		}
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "rol no permitido")
	}

	ctx := WithUserID(r.Context(), claims.UserID.String())
	ctx = WithRole(ctx, string(role))
	ctx = WithEmail(ctx, claims.Email)
	return ctx, nil
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	returnURL := r.URL.Path
	if r.URL.RawQuery != "" {
		returnURL += "?" + r.URL.RawQuery
	}
	target := LoginPath + "?returnUrl=" + url.QueryEscape(returnURL)
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
