package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
	"github.com/jhoicas/Procesamiento-api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Principal usuario autenticado de la petición.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin indica si el principal tiene rol de administrador.
func (p Principal) IsAdmin() bool { return p.Role == entity.RoleAdmin }

// AdminSeed administrador inicial que se crea al arrancar si no existe.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// AuthUseCase casos de uso de autenticación: registro, login, sesión actual y validación de tokens.
type AuthUseCase struct {
	userRepo repository.UserRepository
	signer   *jwt.Signer
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth. Los tokens solo admiten los roles ADMIN y STAFF.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig) *AuthUseCase {
	signer := jwt.NewSigner(jwt.Config{
		Secret: jwtCfg.Secret,
		Issuer: jwtCfg.Issuer,
		TTL:    time.Duration(jwtCfg.ExpMinutes) * time.Minute,
		Roles:  []string{entity.RoleAdmin, entity.RoleStaff},
	})
	return &AuthUseCase{userRepo: userRepo, signer: signer, now: time.Now}
}

// Register da de alta un usuario habilitado. Role vacío equivale a STAFF.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if role == "" {
		role = entity.RoleStaff
	}
	if role != entity.RoleAdmin && role != entity.RoleStaff {
		return nil, domain.ErrInvalidRole
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailInUse
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	now := uc.now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsEnabled:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	out := toUserResponse(user)
	return &out, nil
}

// EnsureAdmin crea el administrador inicial si seed trae email y aún no existe un usuario con ese email.
// Devuelve true si lo creó.
func (uc *AuthUseCase) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	if strings.TrimSpace(seed.Email) == "" {
		return false, nil
	}
	existing, err := uc.userRepo.GetByEmail(ctx, strings.TrimSpace(seed.Email))
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	_, err = uc.Register(ctx, dto.RegisterRequest{
		Name:     seed.Name,
		Email:    seed.Email,
		Password: seed.Password,
		Role:     entity.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("crear administrador inicial: %w", err)
	}
	return true, nil
}

// Login verifica email/password, genera JWT y registra el acceso.
// Email desconocido y password incorrecto devuelven el mismo ErrUnauthorized.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsEnabled {
		return nil, domain.ErrForbidden
	}
	token, _, err := uc.signer.Sign(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generar token: %w", err)
	}
	at := uc.now().UTC()
	if err := uc.userRepo.UpdateLastLogin(ctx, user.ID, at); err != nil {
		return nil, err
	}
	user.LastLoginAt = &at
	return &dto.LoginResponse{
		Token: token,
		User:  toUserResponse(user),
	}, nil
}

// Me devuelve el usuario de la sesión.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	out := toUserResponse(user)
	return &out, nil
}

// Authenticate valida el token y relee el usuario: un usuario deshabilitado
// o con rol cambiado no conserva los privilegios del token.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := uc.signer.Verify(token)
	if err != nil {
		return Principal{}, domain.ErrUnauthorized
	}
	user, err := uc.userRepo.GetByID(ctx, claims.UserID())
	if err != nil {
		return Principal{}, err
	}
	if user == nil {
		return Principal{}, domain.ErrUnauthorized
	}
	if !user.IsEnabled {
		return Principal{}, domain.ErrForbidden
	}
	return Principal{UserID: user.ID, Role: user.Role}, nil
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		IsEnabled:   u.IsEnabled,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// normalizeEmail exige una dirección simple (sin nombre visible) y la guarda en minúsculas.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.ErrInvalidEmail
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", domain.ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
