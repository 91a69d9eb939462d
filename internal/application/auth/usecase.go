// Package auth registra usuarios y emite tokens de sesión.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
	"github.com/jhoicas/travel-commerce-api/pkg/ids"
	"github.com/jhoicas/travel-commerce-api/pkg/jwt"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// AuthUseCase casos de uso de autenticación: registro y login.
type AuthUseCase struct {
	tx     repository.TxRunner
	users  repository.UserRepository
	roles  repository.RoleRepository
	jwtCfg JWTConfig
	log    *logger.Logger
	now    func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(tx repository.TxRunner, users repository.UserRepository, roles repository.RoleRepository, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{tx: tx, users: users, roles: roles, jwtCfg: jwtCfg, log: log.Component("auth"), now: time.Now}
}

// RegisterUser crea un usuario ACTIVE con el rol USER en una sola transacción y lo audita.
// El email se normaliza a minúsculas; si ya existe devuelve ErrDuplicateEntry.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, domain.ErrInvalidInput.WithMessage("email inválido")
	}
	if len(in.Password) < 8 {
		return nil, domain.ErrInvalidInput.WithMessage("la contraseña debe tener al menos 8 caracteres")
	}
	existing, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateEntry.WithMessage("el email ya está registrado")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := uc.now().UTC()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = uc.tx.Run(ctx, func(uow repository.UnitOfWork) error {
		if err := uow.Users.Create(ctx, user); err != nil {
			return err
		}
		role, err := uow.Roles.GetByName(ctx, entity.RoleUser)
		if err != nil {
			return fmt.Errorf("get role: %w", err)
		}
		if role == nil {
			return fmt.Errorf("rol %s no sembrado", entity.RoleUser)
		}
		if _, err := uow.Roles.CreateAssignment(ctx, &entity.RoleAssignment{UserID: user.ID, RoleID: role.ID, CreatedAt: now}); err != nil {
			return fmt.Errorf("assign default role: %w", err)
		}
		if err := uow.Audit.Append(ctx, &entity.AuditEntry{
			ID:         ids.At(now),
			Action:     entity.AuditUserRegistered,
			ActorID:    user.ID,
			TargetType: entity.AuditTargetUser,
			TargetID:   user.ID,
			Metadata:   map[string]any{"role": entity.RoleUser},
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("audit register: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Msg("usuario registrado")
	out := ToUserResponse(user)
	out.Roles = []string{entity.RoleUser}
	return out, nil
}

// Login verifica email/password, genera JWT y retorna token + usuario. Credenciales
// incorrectas y email desconocido responden igual.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if user == nil {
		return nil, domain.ErrUnauthorized.WithMessage("credenciales inválidas")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized.WithMessage("credenciales inválidas")
	}
	if !user.IsActive() {
		return nil, domain.ErrForbidden.WithMessage("la cuenta no está activa")
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, uc.jwtCfg.Issuer, uc.jwtCfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	roles, err := uc.roles.RoleNamesByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	out := ToUserResponse(user)
	out.Roles = roles
	return &dto.LoginResponse{Token: token, User: *out}, nil
}

// ToUserResponse convierte la entidad a DTO (sin password).
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
