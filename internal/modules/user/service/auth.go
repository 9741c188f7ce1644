package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/modules/user/dto"
	"anoa.com/yamdb/internal/modules/user/repository"
	"anoa.com/yamdb/pkg/apperror"
	"anoa.com/yamdb/pkg/mailer"
	"anoa.com/yamdb/pkg/token"
	"anoa.com/yamdb/pkg/validator"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const confirmationSubject = "YaMDb confirmation code"

type AuthService interface {
	Register(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error)
	Confirm(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error)
}

type authService struct {
	repo   repository.UserRepository
	tokens *token.Manager
	mail   mailer.Sender
	now    func() time.Time
}

func NewAuthService(repo repository.UserRepository, tokens *token.Manager, mail mailer.Sender) AuthService {
	return &authService{
		repo:   repo,
		tokens: tokens,
		mail:   mail,
		now:    time.Now,
	}
}

// Register creates an inactive account, or reuses the account that already
// owns exactly this email and username, and mails it a fresh code.
func (s *authService) Register(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error) {
	if !validator.ValidUsername(req.Username) {
		return nil, apperror.NewValidation("username", "invalid username")
	}

	byEmail, err := s.findOptional(s.repo.FindByEmail(ctx, req.Email))
	if err != nil {
		return nil, err
	}
	byUsername, err := s.findOptional(s.repo.FindByUsername(ctx, req.Username))
	if err != nil {
		return nil, err
	}

	switch {
	case byEmail != nil && byEmail.Username != req.Username:
		return nil, apperror.NewValidation("email", "a user with this email already exists")
	case byEmail == nil && byUsername != nil:
		return nil, apperror.NewValidation("username", "a user with this username already exists")
	}

	issuedAt := s.now()
	user := byEmail
	if user == nil {
		user = &entity.User{
			Username:     req.Username,
			Email:        req.Email,
			Role:         entity.RoleUser,
			IsActive:     false,
			CodeIssuedAt: &issuedAt,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, translateUserError(err)
		}
	} else {
		user.CodeIssuedAt = &issuedAt
		if err := s.repo.Update(ctx, user); err != nil {
			return nil, translateUserError(err)
		}
	}

	code, err := s.tokens.Code(codeState(user))
	if err != nil {
		return nil, fmt.Errorf("derive confirmation code: %w", err)
	}

	if err := s.mail.Send(ctx, mailer.Message{
		To:      user.Email,
		Subject: confirmationSubject,
		Body:    code,
	}); err != nil {
		return nil, fmt.Errorf("send confirmation code: %w", err)
	}

	log.Ctx(ctx).Info().Uint("user_id", user.ID).Msg("confirmation code sent")

	return &dto.SignupResponse{Email: user.Email, Username: user.Username}, nil
}

// Confirm exchanges a confirmation code for an access token and activates
// the account. A code works once.
func (s *authService) Confirm(ctx context.Context, req dto.TokenRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %q", apperror.ErrNotFound, req.Username)
		}
		return nil, err
	}

	if err := s.tokens.VerifyCode(codeState(user), req.ConfirmationCode); err != nil {
		return nil, apperror.NewValidation("confirmation_code", "invalid or expired confirmation code")
	}

	loginAt := s.now()
	user.IsActive = true
	user.CodeIssuedAt = nil
	user.LastLoginAt = &loginAt
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, translateUserError(err)
	}

	signed, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	log.Ctx(ctx).Info().Uint("user_id", user.ID).Msg("account confirmed")

	return &dto.TokenResponse{Token: signed}, nil
}

func (s *authService) findOptional(user *entity.User, err error) (*entity.User, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func codeState(u *entity.User) token.CodeState {
	return token.CodeState{
		UserID:      u.ID,
		Email:       u.Email,
		Username:    u.Username,
		IssuedAt:    u.CodeIssuedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// translateUserError turns a lost race on the unique indexes into the same
// validation error the pre-checks produce.
func translateUserError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.NewValidation("username", "a user with this username or email already exists")
	}
	return err
}
