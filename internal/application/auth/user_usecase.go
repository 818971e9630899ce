package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Procesamiento-api/internal/application/dto"
	"github.com/jhoicas/Procesamiento-api/internal/domain"
	"github.com/jhoicas/Procesamiento-api/internal/domain/entity"
	"github.com/jhoicas/Procesamiento-api/internal/domain/repository"
)

// UserUseCase administración de usuarios (solo ADMIN): listado, edición, habilitación y baja.
type UserUseCase struct {
	repo repository.UserRepository
	now  func() time.Time
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo, now: time.Now}
}

// List devuelve todos los usuarios, más recientes primero.
func (uc *UserUseCase) List(ctx context.Context) (*dto.UserListResponse, error) {
	users, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.UserListResponse{Users: make([]dto.UserResponse, 0, len(users))}
	for _, u := range users {
		out.Users = append(out.Users, toUserResponse(u))
	}
	return out, nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := toUserResponse(user)
	return &out, nil
}

// Update aplica los campos presentes en in. El rol no se cambia por aquí.
func (uc *UserUseCase) Update(ctx context.Context, actor Principal, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name no puede quedar vacío", domain.ErrInvalidInput)
		}
		user.Name = name
	}
	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Password != nil {
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if in.IsEnabled != nil {
		if !*in.IsEnabled && user.ID == actor.UserID {
			return nil, domain.ErrSelfDisable
		}
		user.IsEnabled = *in.IsEnabled
	}
	return uc.save(ctx, user)
}

// ToggleStatus invierte IsEnabled. Un usuario deshabilitado pierde el acceso en su siguiente petición.
func (uc *UserUseCase) ToggleStatus(ctx context.Context, actor Principal, id string) (*dto.UserResponse, error) {
	user, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsEnabled && user.ID == actor.UserID {
		return nil, domain.ErrSelfDisable
	}
	user.IsEnabled = !user.IsEnabled
	return uc.save(ctx, user)
}

// Delete elimina un usuario STAFF. Los administradores no se eliminan.
func (uc *UserUseCase) Delete(ctx context.Context, id string) error {
	user, err := uc.load(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == entity.RoleAdmin {
		return domain.ErrAdminUndeletable
	}
	return uc.repo.Delete(ctx, id)
}

func (uc *UserUseCase) load(ctx context.Context, id string) (*entity.User, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (uc *UserUseCase) save(ctx context.Context, user *entity.User) (*dto.UserResponse, error) {
	user.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	out := toUserResponse(user)
	return &out, nil
}
