package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/modules/user/dto"
	"anoa.com/yamdb/internal/modules/user/repository"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/validator"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type UserService interface {
	ListUsers(ctx context.Context, actor *entity.User, filter commonDto.SearchFilter) (*commonDto.Paginated[dto.UserResponse], error)
	CreateUser(ctx context.Context, actor *entity.User, req dto.CreateUserRequest) (*dto.UserResponse, error)
	GetUser(ctx context.Context, actor *entity.User, username string) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, actor *entity.User, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, actor *entity.User, username string) error
	GetMe(ctx context.Context, actor *entity.User) (*dto.UserResponse, error)
	UpdateMe(ctx context.Context, actor *entity.User, req dto.UpdateUserRequest) (*dto.UserResponse, error)
}

type userService struct {
	repo   repository.UserRepository
	policy *policy.Enforcer
}

func NewUserService(repo repository.UserRepository, policy *policy.Enforcer) UserService {
	return &userService{repo: repo, policy: policy}
}

func (s *userService) ListUsers(ctx context.Context, actor *entity.User, filter commonDto.SearchFilter) (*commonDto.Paginated[dto.UserResponse], error) {
	if err := s.policy.Authorize(actor, policy.ResourceUser, policy.ActionRead, nil); err != nil {
		return nil, err
	}

	page := filter.PaginationQuery.Normalize()
	users, total, err := s.repo.FindAll(ctx, filter.Search, page)
	if err != nil {
		return nil, err
	}

	data := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, dto.NewUserResponse(u))
	}
	return commonDto.NewPaginated(data, page, total), nil
}

func (s *userService) CreateUser(ctx context.Context, actor *entity.User, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := s.policy.Authorize(actor, policy.ResourceUser, policy.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if !validator.ValidUsername(req.Username) {
		return nil, apperror.NewValidation("username", "invalid username")
	}
	if err := s.ensureAvailable(ctx, 0, &req.Username, &req.Email); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = entity.RoleUser
	}

	user := &entity.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
		IsActive:  true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, translateUserError(err)
	}

	log.Ctx(ctx).Info().Uint("user_id", user.ID).Str("role", role).Msg("user created")

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *userService) GetUser(ctx context.Context, actor *entity.User, username string) (*dto.UserResponse, error) {
	if err := s.policy.Authorize(actor, policy.ResourceUser, policy.ActionRead, nil); err != nil {
		return nil, err
	}
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

func (s *userService) UpdateUser(ctx context.Context, actor *entity.User, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := s.policy.Authorize(actor, policy.ResourceUser, policy.ActionUpdate, nil); err != nil {
		return nil, err
	}
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	return s.apply(ctx, user, req, true)
}

func (s *userService) DeleteUser(ctx context.Context, actor *entity.User, username string) error {
	if err := s.policy.Authorize(actor, policy.ResourceUser, policy.ActionDelete, nil); err != nil {
		return err
	}
	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return err
	}

	log.Ctx(ctx).Info().Uint("user_id", user.ID).Msg("user deleted")
	return nil
}

func (s *userService) GetMe(ctx context.Context, actor *entity.User) (*dto.UserResponse, error) {
	if err := s.authorizeSelf(actor, policy.ActionRead); err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(actor)
	return &resp, nil
}

// UpdateMe edits the caller's own profile. A role in the payload is ignored.
func (s *userService) UpdateMe(ctx context.Context, actor *entity.User, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := s.authorizeSelf(actor, policy.ActionUpdate); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	return s.apply(ctx, user, req, false)
}

func (s *userService) authorizeSelf(actor *entity.User, action string) error {
	if actor == nil {
		return apperror.ErrUnauthorized
	}
	return s.policy.Authorize(actor, policy.ResourceSelf, action, &actor.ID)
}

func (s *userService) apply(ctx context.Context, user *entity.User, req dto.UpdateUserRequest, allowRole bool) (*dto.UserResponse, error) {
	if req.Username != nil && !validator.ValidUsername(*req.Username) {
		return nil, apperror.NewValidation("username", "invalid username")
	}
	if err := s.ensureAvailable(ctx, user.ID, req.Username, req.Email); err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if allowRole && req.Role != nil {
		user.Role = *req.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, translateUserError(err)
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// ensureAvailable rejects a username or email held by another account.
// selfID is the account being edited, 0 for a new one.
func (s *userService) ensureAvailable(ctx context.Context, selfID uint, username, email *string) error {
	fields := map[string]string{}

	if username != nil {
		existing, err := s.repo.FindByUsername(ctx, *username)
		switch {
		case err == nil && existing.ID != selfID:
			fields["username"] = "a user with this username already exists"
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}
	if email != nil {
		existing, err := s.repo.FindByEmail(ctx, *email)
		switch {
		case err == nil && existing.ID != selfID:
			fields["email"] = "a user with this email already exists"
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}

	if len(fields) > 0 {
		return &apperror.ValidationError{Fields: fields}
	}
	return nil
}

func (s *userService) findByUsername(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %q", apperror.ErrNotFound, username)
		}
		return nil, err
	}
	return user, nil
}
