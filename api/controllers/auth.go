package controllers

import (
	"net/http"

	"github.com/patitas-pets/patitas-backend/api/middleware"
	"github.com/patitas-pets/patitas-backend/api/responses"
	"github.com/patitas-pets/patitas-backend/api/validators"
	"github.com/patitas-pets/patitas-backend/internal/auth"
	pkgauth "github.com/patitas-pets/patitas-backend/pkg/auth"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/enums"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Nombre   string `json:"nombre" validate:"required,min=2,max=100"`
	Role     string `json:"role" validate:"omitempty,oneof=admin moderator"`
}

// AuthLogin authenticates an admin or moderator and sets the session cookie.
func AuthLogin(svc auth.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginInput{
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pkgauth.SetSessionCookie(w, cfg, result.Token)
		responses.WriteJSON(w, map[string]any{
			"success": true,
			"user":    result.User,
		})
	}
}

// AuthLogout revokes the session and expires every known cookie name.
// Requests without a usable cookie still succeed; logout is idempotent.
func AuthLogout(svc auth.Service, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := pkgauth.SessionTokenFromRequest(r); token != "" {
			if claims, err := pkgauth.ParseSessionToken(cfg, token); err == nil {
				if err := svc.Logout(r.Context(), claims.ID); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}
		}

		pkgauth.ClearSessionCookies(w, cfg)
		responses.WriteJSON(w, map[string]any{"success": true})
	}
}

// AuthMe resolves the session already verified by the auth middleware.
func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeUnauthorized, "credenciales requeridas"))
			return
		}

		user, err := svc.Me(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]any{
			"success": true,
			"user":    user,
		})
	}
}

// AuthRegister bootstraps an admin account. The route is only mounted when
// the register feature flag is on, which production configs keep off.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), auth.RegisterInput{
			Email:    body.Email,
			Password: body.Password,
			Nombre:   body.Nombre,
			Role:     enums.UserRole(body.Role),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSONStatus(w, http.StatusCreated, map[string]any{
			"message": "Cuenta creada",
			"user":    user,
		})
	}
}
