package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/modules/review/dto"
	"anoa.com/yamdb/internal/modules/review/repository"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/ratelimiter"
	"anoa.com/yamdb/pkg/sanitize"
	"anoa.com/yamdb/pkg/validator"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const duplicateReviewMessage = "you have already reviewed this title"

type ReviewService interface {
	ListReviews(ctx context.Context, titleID uint, page commonDto.PaginationQuery) (*commonDto.Paginated[dto.ReviewResponse], error)
	CreateReview(ctx context.Context, actor *entity.User, titleID uint, req dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	GetReview(ctx context.Context, titleID, id uint) (*dto.ReviewResponse, error)
	UpdateReview(ctx context.Context, actor *entity.User, titleID, id uint, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error)
	DeleteReview(ctx context.Context, actor *entity.User, titleID, id uint) error
}

type reviewService struct {
	repo     repository.ReviewRepository
	policy   *policy.Enforcer
	cooldown *ratelimiter.Cooldown
	limit    time.Duration
}

// NewReviewService wires the review use cases. cooldown may be nil to allow
// back-to-back reviews.
func NewReviewService(repo repository.ReviewRepository, policy *policy.Enforcer, cooldown *ratelimiter.Cooldown, limit time.Duration) ReviewService {
	return &reviewService{
		repo:     repo,
		policy:   policy,
		cooldown: cooldown,
		limit:    limit,
	}
}

func (s *reviewService) ListReviews(ctx context.Context, titleID uint, page commonDto.PaginationQuery) (*commonDto.Paginated[dto.ReviewResponse], error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	page = page.Normalize()
	reviews, total, err := s.repo.FindByTitle(ctx, titleID, page)
	if err != nil {
		return nil, err
	}

	data := make([]dto.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		data = append(data, dto.NewReviewResponse(r))
	}
	return commonDto.NewPaginated(data, page, total), nil
}

func (s *reviewService) CreateReview(ctx context.Context, actor *entity.User, titleID uint, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if err := s.policy.Authorize(actor, policy.ResourceReview, policy.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	text := sanitize.Text(req.Text)
	if text == "" {
		return nil, apperror.NewValidation("text", "this field may not be blank")
	}

	reviewed, err := s.repo.AuthorReviewed(ctx, titleID, actor.ID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, apperror.NewValidation("non_field_errors", duplicateReviewMessage)
	}

	release, err := s.cooldown.Acquire(ctx, actor.ID, ratelimiter.ScopeReview, s.limit)
	if err != nil {
		return nil, err
	}

	authorID := actor.ID
	review := &entity.Review{
		TitleID:  titleID,
		AuthorID: &authorID,
		Text:     text,
		Score:    *req.Score,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		release()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewValidation("non_field_errors", duplicateReviewMessage)
		}
		return nil, err
	}
	review.Author = actor

	log.Ctx(ctx).Info().Uint("review_id", review.ID).Uint("title_id", titleID).Msg("review created")

	resp := dto.NewReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) GetReview(ctx context.Context, titleID, id uint) (*dto.ReviewResponse, error) {
	review, err := s.find(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, actor *entity.User, titleID, id uint, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	if actor == nil {
		return nil, apperror.ErrUnauthorized
	}
	review, err := s.find(ctx, titleID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(actor, policy.ResourceReview, policy.ActionUpdate, review.AuthorID); err != nil {
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
		review.Text = text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}

	if err := s.repo.Update(ctx, review); err != nil {
		return nil, err
	}

	resp := dto.NewReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, actor *entity.User, titleID, id uint) error {
	if actor == nil {
		return apperror.ErrUnauthorized
	}
	review, err := s.find(ctx, titleID, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(actor, policy.ResourceReview, policy.ActionDelete, review.AuthorID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, review.ID); err != nil {
		return err
	}

	log.Ctx(ctx).Info().Uint("review_id", id).Uint("actor_id", actor.ID).Msg("review deleted")
	return nil
}

func (s *reviewService) requireTitle(ctx context.Context, titleID uint) error {
	exists, err := s.repo.TitleExists(ctx, titleID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: title %d", apperror.ErrNotFound, titleID)
	}
	return nil
}

func (s *reviewService) find(ctx context.Context, titleID, id uint) (*entity.Review, error) {
	review, err := s.repo.FindByID(ctx, titleID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: review %d", apperror.ErrNotFound, id)
		}
		return nil, err
	}
	return review, nil
}
