package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/travel-commerce-api/internal/application/auth"
	"github.com/jhoicas/travel-commerce-api/internal/application/authz"
	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/application/roles"
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/internal/infrastructure/memory"
	"github.com/jhoicas/travel-commerce-api/pkg/jwt"
)

func setup(t *testing.T) (*memory.Store, *auth.AuthUseCase) {
	t.Helper()
	s := memory.NewStore()
	require.NoError(t, roles.Bootstrap(context.Background(), s, ""))
	uow := s.UnitOfWork()
	uc := auth.NewAuthUseCase(s, uow.Users, uow.Roles, auth.JWTConfig{Secret: "secret", TTL: time.Hour, Issuer: "test"}, nil)
	return s, uc
}

func TestRegisterUser_AsignaRolUserYAudita(t *testing.T) {
	s, uc := setup(t)
	ctx := context.Background()

	out, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: " Ana@Example.com ", Password: "supersecret", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", out.Email)
	assert.Equal(t, entity.UserStatusActive, out.Status)
	assert.Equal(t, []string{entity.RoleUser}, out.Roles)

	uow := s.UnitOfWork()
	p, err := authz.NewPermissionResolver(uow.Users, uow.Roles).Resolve(ctx, out.ID)
	require.NoError(t, err)
	assert.True(t, p.HasRole(entity.RoleUser))
	assert.True(t, p.HasPermission(rbac.PermBookingCreate))
	assert.False(t, p.HasPermission(rbac.PermTripSubmit))

	var registered int
	for _, e := range s.AuditEntries() {
		if e.Action == entity.AuditUserRegistered && e.TargetID == out.ID {
			registered++
		}
	}
	assert.Equal(t, 1, registered)
}

func TestRegisterUser_EmailDuplicado(t *testing.T) {
	_, uc := setup(t)
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@example.com", Password: "supersecret"})
	require.NoError(t, err)

	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ANA@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
}

func TestRegisterUser_EntradaInvalida(t *testing.T) {
	_, uc := setup(t)
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "sin-arroba", Password: "supersecret"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "a@b.c", Password: "corta"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Si falla la auditoría no queda usuario a medias.
func TestRegisterUser_FallaDeAuditoriaDeshaceTodo(t *testing.T) {
	s, uc := setup(t)
	s.InjectFault("audit.Append", errors.New("disk full"))

	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "ana@example.com", Password: "supersecret"})
	require.Error(t, err)

	u, err := s.UnitOfWork().Users.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestLogin(t *testing.T) {
	_, uc := setup(t)
	ctx := context.Background()
	reg, err := uc.RegisterUser(ctx, dto.RegisterRequest{Email: "ana@example.com", Password: "supersecret"})
	require.NoError(t, err)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "supersecret"})
	require.NoError(t, err)
	userID, err := jwt.Parse("secret", out.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, userID)
	assert.Equal(t, []string{entity.RoleUser}, out.User.Roles)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_CuentaSuspendida(t *testing.T) {
	s, uc := setup(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.UnitOfWork().Users.Create(context.Background(), &entity.User{
		ID: "u-susp", Email: "susp@example.com", PasswordHash: string(hash), Status: entity.UserStatusSuspended,
	}))

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "susp@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
