package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/patitas-pets/patitas-backend/pkg/auth"
	"github.com/patitas-pets/patitas-backend/pkg/auth/session"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/db"
	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	"github.com/patitas-pets/patitas-backend/pkg/enums"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
	"github.com/patitas-pets/patitas-backend/pkg/security"
)

// Service defines the behavior needed by the auth controller and the session
// middleware.
type Service interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, userID string) (*UserDTO, error)
	Register(ctx context.Context, input RegisterInput) (*UserDTO, error)
	CheckActive(ctx context.Context, userID string) (enums.UserRole, error)
}

// LoginInput is the validated login payload.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the authenticated account and its freshly minted
// session token.
type LoginResult struct {
	User  UserDTO
	Token string
}

// RegisterInput is the validated payload for creating an admin account.
type RegisterInput struct {
	Email    string
	Password string
	Nombre   string
	Role     enums.UserRole
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Establish(ctx context.Context, sessionID string, userID uuid.UUID) error
	Revoke(ctx context.Context, sessionID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	SessionConfig  config.SessionConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type service struct {
	users       userRepository
	sessions    sessionManager
	sessionCfg  config.SessionConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	return &service{
		users:       params.UserRepo,
		sessions:    params.SessionManager,
		sessionCfg:  params.SessionConfig,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
		now:         time.Now,
	}, nil
}

// Login verifies credentials and opens a session. Each failure mode keeps its
// own status so the admin login form can show a precise message.
func (s *service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email y contraseña son obligatorios")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "usuario no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "contraseña incorrecta")
	}

	if !user.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "rol no permitido")
	}

	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cuenta desactivada")
	}

	sessionID := session.NewSessionID()
	if err := s.sessions.Establish(ctx, sessionID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "establish session")
	}

	token, err := pkgAuth.MintSessionToken(s.sessionCfg, s.now(), pkgAuth.SessionPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    sessionID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}

	// Last-login is informational; a failed stamp must not block the login.
	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil && s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, user.ID.String())
		s.logg.Warn(logCtx, "auth.last_login_stamp_failed")
	}

	return &LoginResult{User: NewUserDTO(user), Token: token}, nil
}

// Logout revokes the server-side session. Revoking an unknown session is not
// an error, so logout stays idempotent.
func (s *service) Logout(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Me returns the current account.
func (s *service) Me(ctx context.Context, userID string) (*UserDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := NewUserDTO(user)
	return &dto, nil
}

// Register creates an admin account. The route is feature-flagged to dev
// environments; the service only guards data validity.
func (s *service) Register(ctx context.Context, input RegisterInput) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || strings.TrimSpace(input.Nombre) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email, contraseña y nombre son obligatorios")
	}
	role := input.Role
	if role == "" {
		role = enums.UserRoleAdmin
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rol inválido")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Nombre:       strings.TrimSpace(input.Nombre),
		Role:         role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "idx_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "el email ya está registrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	dto := NewUserDTO(user)
	return &dto, nil
}

// CheckActive confirms the account still exists, is active, and returns its
// current role. The session middleware calls this on every gated request.
func (s *service) CheckActive(ctx context.Context, userID string) (enums.UserRole, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "cuenta desactivada")
	}
	return user.Role, nil
}

func (s *service) loadUser(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sesión inválida")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "usuario no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}
