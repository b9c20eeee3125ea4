package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgAuth "github.com/patitas-pets/patitas-backend/pkg/auth"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	"github.com/patitas-pets/patitas-backend/pkg/enums"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/security"
)

const testPassword = "super-secreta-123"

func newAuthTestService(t *testing.T, users *stubUserRepo) (Service, *stubSessionManager) {
	t.Helper()
	sessions := &stubSessionManager{}
	svc, err := NewService(ServiceParams{
		UserRepo:       users,
		SessionManager: sessions,
		SessionConfig:  config.SessionConfig{Secret: "secret", Issuer: "patitas", ExpirationMinutes: 60},
		PasswordConfig: config.PasswordConfig{},
	})
	require.NoError(t, err)
	return svc, sessions
}

func activeTestUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := security.HashPassword(testPassword, config.PasswordConfig{})
	require.NoError(t, err)
	return &models.User{
		ID:           uuid.New(),
		Email:        "admin@patitas.pe",
		PasswordHash: hash,
		Nombre:       "Admin Patitas",
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
}

func TestLoginSuccessEstablishesSession(t *testing.T) {
	user := activeTestUser(t)
	users := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, sessions := newAuthTestService(t, users)

	result, err := svc.Login(context.Background(), LoginInput{Email: "Admin@Patitas.pe", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, user.Email, result.User.Email)
	assert.NotEmpty(t, result.Token)
	require.Len(t, sessions.established, 1)

	cfg := config.SessionConfig{Secret: "secret", Issuer: "patitas", ExpirationMinutes: 60}
	claims, err := pkgAuth.ParseSessionToken(cfg, result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, sessions.established[0], claims.ID)
	assert.True(t, users.lastLoginStamped)
}

func TestLoginUnknownEmailIsNotFound(t *testing.T) {
	users := &stubUserRepo{byEmail: map[string]*models.User{}}
	svc, _ := newAuthTestService(t, users)

	_, err := svc.Login(context.Background(), LoginInput{Email: "nadie@patitas.pe", Password: testPassword})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestLoginWrongPasswordIsUnauthorized(t *testing.T) {
	user := activeTestUser(t)
	users := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, sessions := newAuthTestService(t, users)

	_, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "incorrecta"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Empty(t, sessions.established)
}

func TestLoginUnknownRoleIsUnauthorized(t *testing.T) {
	user := activeTestUser(t)
	user.Role = enums.UserRole("cliente")
	users := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, sessions := newAuthTestService(t, users)

	_, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: testPassword})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Empty(t, sessions.established)
}

func TestLoginInactiveAccountIsForbidden(t *testing.T) {
	user := activeTestUser(t)
	user.IsActive = false
	users := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc, sessions := newAuthTestService(t, users)

	_, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: testPassword})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())
	assert.Empty(t, sessions.established)
}

func TestLogoutRevokesSession(t *testing.T) {
	users := &stubUserRepo{}
	svc, sessions := newAuthTestService(t, users)

	require.NoError(t, svc.Logout(context.Background(), "sess-1"))
	assert.Equal(t, []string{"sess-1"}, sessions.revoked)

	// blank session id is a no-op
	require.NoError(t, svc.Logout(context.Background(), "  "))
	assert.Len(t, sessions.revoked, 1)
}

func TestCheckActive(t *testing.T) {
	user := activeTestUser(t)
	users := &stubUserRepo{byID: map[uuid.UUID]*models.User{user.ID: user}}
	svc, _ := newAuthTestService(t, users)

	role, err := svc.CheckActive(context.Background(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, role)

	user.IsActive = false
	_, err = svc.CheckActive(context.Background(), user.ID.String())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	_, err = svc.CheckActive(context.Background(), uuid.NewString())
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestRegisterCreatesActiveAdmin(t *testing.T) {
	users := &stubUserRepo{byEmail: map[string]*models.User{}, byID: map[uuid.UUID]*models.User{}}
	svc, _ := newAuthTestService(t, users)

	dto, err := svc.Register(context.Background(), RegisterInput{
		Email:    "Nuevo@Patitas.pe",
		Password: testPassword,
		Nombre:   "Nuevo Admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "nuevo@patitas.pe", dto.Email)
	assert.Equal(t, string(enums.UserRoleAdmin), dto.Role)
	assert.True(t, dto.IsActive)

	created := users.created[0]
	ok, err := security.VerifyPassword(testPassword, created.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

type stubUserRepo struct {
	byEmail          map[string]*models.User
	byID             map[uuid.UUID]*models.User
	created          []*models.User
	lastLoginStamped bool
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.created = append(s.created, user)
	if s.byEmail != nil {
		s.byEmail[user.Email] = user
	}
	if s.byID != nil {
		s.byID[user.ID] = user
	}
	return nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLoginStamped = true
	return nil
}

type stubSessionManager struct {
	established []string
	revoked     []string
}

func (s *stubSessionManager) Establish(ctx context.Context, sessionID string, userID uuid.UUID) error {
	s.established = append(s.established, sessionID)
	return nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, sessionID string) error {
	s.revoked = append(s.revoked, sessionID)
	return nil
}
