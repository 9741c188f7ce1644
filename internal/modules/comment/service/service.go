package comment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/modules/comment/dto"
	"anoa.com/yamdb/internal/modules/comment/repository"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/ratelimiter"
	"anoa.com/yamdb/pkg/sanitize"
	"anoa.com/yamdb/pkg/validator"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CommentService interface {
	ListComments(ctx context.Context, titleID, reviewID uint, page commonDto.PaginationQuery) (*commonDto.Paginated[dto.CommentResponse], error)
	CreateComment(ctx context.Context, actor *entity.User, titleID, reviewID uint, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	GetComment(ctx context.Context, titleID, reviewID, id uint) (*dto.CommentResponse, error)
	UpdateComment(ctx context.Context, actor *entity.User, titleID, reviewID, id uint, req dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	DeleteComment(ctx context.Context, actor *entity.User, titleID, reviewID, id uint) error
}

type commentService struct {
	repo     repository.CommentRepository
	policy   *policy.Enforcer
	cooldown *ratelimiter.Cooldown
	limit    time.Duration
}

func NewCommentService(repo repository.CommentRepository, policy *policy.Enforcer, cooldown *ratelimiter.Cooldown, limit time.Duration) CommentService {
	return &commentService{
		repo:     repo,
		policy:   policy,
		cooldown: cooldown,
		limit:    limit,
	}
}

func (s *commentService) ListComments(ctx context.Context, titleID, reviewID uint, page commonDto.PaginationQuery) (*commonDto.Paginated[dto.CommentResponse], error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	page = page.Normalize()
	comments, total, err := s.repo.FindByReview(ctx, reviewID, page)
	if err != nil {
		return nil, err
	}

	data := make([]dto.CommentResponse, 0, len(comments))
	for _, c := range comments {
		data = append(data, dto.NewCommentResponse(c))
	}
	return commonDto.NewPaginated(data, page, total), nil
}

func (s *commentService) CreateComment(ctx context.Context, actor *entity.User, titleID, reviewID uint, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if err := s.policy.Authorize(actor, policy.ResourceComment, policy.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}

	text := sanitize.Text(req.Text)
	if text == "" {
		return nil, apperror.NewValidation("text", "this field may not be blank")
	}

	release, err := s.cooldown.Acquire(ctx, actor.ID, ratelimiter.ScopeComment, s.limit)
	if err != nil {
		return nil, err
	}

	authorID := actor.ID
	comment := &entity.Comment{
		ReviewID: reviewID,
		AuthorID: &authorID,
		Text:     text,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		release()
		return nil, err
	}
	comment.Author = actor

	log.Ctx(ctx).Info().Uint("comment_id", comment.ID).Uint("review_id", reviewID).Msg("comment created")

	resp := dto.NewCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) GetComment(ctx context.Context, titleID, reviewID, id uint) (*dto.CommentResponse, error) {
	comment, err := s.find(ctx, titleID, reviewID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) UpdateComment(ctx context.Context, actor *entity.User, titleID, reviewID, id uint, req dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	if actor == nil {
		return nil, apperror.ErrUnauthorized
	}
	comment, err := s.find(ctx, titleID, reviewID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(actor, policy.ResourceComment, policy.ActionUpdate, comment.AuthorID); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if req.Text != nil {
		text := sanitize.Text(*req.Text)
		if text == "" {
			return nil, apperror.NewValidation("text", "this field may not be blank")
		}
		comment.Text = text
		if err := s.repo.Update(ctx, comment); err != nil {
			return nil, err
		}
	}

	resp := dto.NewCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) DeleteComment(ctx context.Context, actor *entity.User, titleID, reviewID, id uint) error {
	if actor == nil {
		return apperror.ErrUnauthorized
	}
	comment, err := s.find(ctx, titleID, reviewID, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(actor, policy.ResourceComment, policy.ActionDelete, comment.AuthorID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, comment.ID); err != nil {
		return err
	}

	log.Ctx(ctx).Info().Uint("comment_id", id).Uint("actor_id", actor.ID).Msg("comment deleted")
	return nil
}

func (s *commentService) requireReview(ctx context.Context, titleID, reviewID uint) error {
	exists, err := s.repo.ReviewExists(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: review %d", apperror.ErrNotFound, reviewID)
	}
	return nil
}

// find resolves a comment through its full title/review path so a comment
// is never reachable under a review of another title.
func (s *commentService) find(ctx context.Context, titleID, reviewID, id uint) (*entity.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.repo.FindByID(ctx, reviewID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: comment %d", apperror.ErrNotFound, id)
		}
		return nil, err
	}
	return comment, nil
}
