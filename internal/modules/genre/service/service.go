package genre

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/modules/genre/dto"
	"anoa.com/yamdb/internal/modules/genre/repository"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/validator"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type GenreService interface {
	CreateGenre(ctx context.Context, actor *entity.User, req dto.CreateGenreRequest) (*dto.GenreResponse, error)
	GetAllGenres(ctx context.Context, filter commonDto.SearchFilter) (*commonDto.Paginated[dto.GenreResponse], error)
	DeleteGenre(ctx context.Context, actor *entity.User, slug string) error
}

type genreService struct {
	repo   repository.GenreRepository
	policy *policy.Enforcer
}

func NewGenreService(repo repository.GenreRepository, policy *policy.Enforcer) GenreService {
	return &genreService{repo: repo, policy: policy}
}

func (s *genreService) CreateGenre(ctx context.Context, actor *entity.User, req dto.CreateGenreRequest) (*dto.GenreResponse, error) {
	if err := s.policy.Authorize(actor, policy.ResourceGenre, policy.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindBySlug(ctx, req.Slug)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewValidation("slug", "genre with this slug already exists")
	}

	genre := &entity.Genre{
		Name: req.Name,
		Slug: req.Slug,
	}
	if err := s.repo.Create(ctx, genre); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewValidation("slug", "genre with this slug already exists")
		}
		return nil, err
	}

	log.Ctx(ctx).Info().Str("slug", genre.Slug).Msg("genre created")

	resp := dto.NewGenreResponse(genre)
	return &resp, nil
}

func (s *genreService) GetAllGenres(ctx context.Context, filter commonDto.SearchFilter) (*commonDto.Paginated[dto.GenreResponse], error) {
	page := filter.PaginationQuery.Normalize()
	genres, total, err := s.repo.FindAll(ctx, filter.Search, page)
	if err != nil {
		return nil, err
	}

	genreResponses := make([]dto.GenreResponse, 0, len(genres))
	for _, g := range genres {
		genreResponses = append(genreResponses, dto.NewGenreResponse(g))
	}

	return commonDto.NewPaginated(genreResponses, page, total), nil
}

func (s *genreService) DeleteGenre(ctx context.Context, actor *entity.User, slug string) error {
	if err := s.policy.Authorize(actor, policy.ResourceGenre, policy.ActionDelete, nil); err != nil {
		return err
	}

	genre, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: genre %q", apperror.ErrNotFound, slug)
		}
		return err
	}

	if err := s.repo.Delete(ctx, genre.ID); err != nil {
		return err
	}

	log.Ctx(ctx).Info().Str("slug", slug).Msg("genre deleted")
	return nil
}
