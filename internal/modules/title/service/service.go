package title

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"anoa.com/yamdb/internal/entity"
	categoryRepo "anoa.com/yamdb/internal/modules/category/repository"
	genreRepo "anoa.com/yamdb/internal/modules/genre/repository"
	search "anoa.com/yamdb/internal/modules/search/service"
	"anoa.com/yamdb/internal/modules/title/dto"
	"anoa.com/yamdb/internal/modules/title/repository"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/sanitize"
	"anoa.com/yamdb/pkg/validator"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TitleService interface {
	CreateTitle(ctx context.Context, actor *entity.User, req dto.CreateTitleRequest) (*dto.TitleResponse, error)
	GetAllTitles(ctx context.Context, filter dto.TitleFilter) (*commonDto.Paginated[dto.TitleResponse], error)
	GetTitle(ctx context.Context, id uint) (*dto.TitleResponse, error)
	UpdateTitle(ctx context.Context, actor *entity.User, id uint, req dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	DeleteTitle(ctx context.Context, actor *entity.User, id uint) error
	SearchTitles(ctx context.Context, query dto.SearchQuery) (*commonDto.Paginated[dto.TitleResponse], error)
}

type titleService struct {
	repo       repository.TitleRepository
	categories categoryRepo.CategoryRepository
	genres     genreRepo.GenreRepository
	index      search.TitleIndex
	policy     *policy.Enforcer
	now        func() time.Time
}

// NewTitleService wires the title use cases. index may be nil, in which case
// search falls back to a name match in the database.
func NewTitleService(
	repo repository.TitleRepository,
	categories categoryRepo.CategoryRepository,
	genres genreRepo.GenreRepository,
	index search.TitleIndex,
	policy *policy.Enforcer,
) TitleService {
	return &titleService{
		repo:       repo,
		categories: categories,
		genres:     genres,
		index:      index,
		policy:     policy,
		now:        time.Now,
	}
}

func (s *titleService) CreateTitle(ctx context.Context, actor *entity.User, req dto.CreateTitleRequest) (*dto.TitleResponse, error) {
	if err := s.policy.Authorize(actor, policy.ResourceTitle, policy.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if err := s.validateYear(*req.Year); err != nil {
		return nil, err
	}

	category, err := s.resolveCategory(ctx, req.Category)
	if err != nil {
		return nil, err
	}
	genres, err := s.resolveGenres(ctx, req.Genre)
	if err != nil {
		return nil, err
	}

	title := &entity.Title{
		Name:        sanitize.Text(req.Name),
		Year:        *req.Year,
		Description: sanitize.Optional(req.Description),
		CategoryID:  &category.ID,
		Genres:      genres,
	}
	if title.Name == "" {
		return nil, apperror.NewValidation("name", "this field is required")
	}

	if err := s.repo.Create(ctx, title); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Uint("title_id", title.ID).Msg("title created")

	return s.reloadAndIndex(ctx, title.ID)
}

func (s *titleService) GetAllTitles(ctx context.Context, filter dto.TitleFilter) (*commonDto.Paginated[dto.TitleResponse], error) {
	page := filter.PaginationQuery.Normalize()
	titles, total, err := s.repo.FindAll(ctx, repository.Filter{
		Genre:    filter.Genre,
		Category: filter.Category,
		Name:     filter.Name,
		Year:     filter.Year,
	}, page)
	if err != nil {
		return nil, err
	}
	return commonDto.NewPaginated(toResponses(titles), page, total), nil
}

func (s *titleService) GetTitle(ctx context.Context, id uint) (*dto.TitleResponse, error) {
	title, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewTitleResponse(title)
	return &resp, nil
}

func (s *titleService) UpdateTitle(ctx context.Context, actor *entity.User, id uint, req dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	if err := s.policy.Authorize(actor, policy.ResourceTitle, policy.ActionUpdate, nil); err != nil {
		return nil, err
	}

	title, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := sanitize.Text(*req.Name)
		if name == "" {
			return nil, apperror.NewValidation("name", "this field may not be blank")
		}
		title.Name = name
	}
	if req.Year != nil {
		if err := s.validateYear(*req.Year); err != nil {
			return nil, err
		}
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = sanitize.Optional(req.Description)
	}
	if req.Category != nil {
		category, err := s.resolveCategory(ctx, *req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	var genres []entity.Genre
	if req.Genre != nil {
		if genres, err = s.resolveGenres(ctx, req.Genre); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, title, genres); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Uint("title_id", title.ID).Msg("title updated")

	return s.reloadAndIndex(ctx, title.ID)
}

func (s *titleService) DeleteTitle(ctx context.Context, actor *entity.User, id uint) error {
	if err := s.policy.Authorize(actor, policy.ResourceTitle, policy.ActionDelete, nil); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: title %d", apperror.ErrNotFound, id)
		}
		return err
	}

	if s.index != nil {
		if err := s.index.DeleteTitle(ctx, id); err != nil {
			log.Ctx(ctx).Warn().Err(err).Uint("title_id", id).Msg("failed to remove title from search index")
		}
	}

	log.Ctx(ctx).Info().Uint("title_id", id).Msg("title deleted")
	return nil
}

// SearchTitles asks the search index for matching ids and loads those titles
// from the database in index order. Without an index, or when it fails, it
// falls back to a case-insensitive name match with the same filters.
func (s *titleService) SearchTitles(ctx context.Context, query dto.SearchQuery) (*commonDto.Paginated[dto.TitleResponse], error) {
	page := query.PaginationQuery.Normalize()

	if s.index != nil {
		ids, total, err := s.index.SearchTitles(ctx, query.Q, search.Filter{
			Genre:    query.Genre,
			Category: query.Category,
			Year:     query.Year,
		}, page)
		if err == nil {
			titles, err := s.loadInOrder(ctx, ids)
			if err != nil {
				return nil, err
			}
			return commonDto.NewPaginated(toResponses(titles), page, total), nil
		}
		log.Ctx(ctx).Warn().Err(err).Msg("search index unavailable, falling back to database")
	}

	return s.GetAllTitles(ctx, dto.TitleFilter{
		PaginationQuery: page,
		Name:            query.Q,
		Genre:           query.Genre,
		Category:        query.Category,
		Year:            query.Year,
	})
}

func (s *titleService) loadInOrder(ctx context.Context, ids []uint) ([]*entity.Title, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	titles, _, err := s.repo.FindAll(ctx, repository.Filter{IDs: ids}, commonDto.PaginationQuery{Page: 1, Limit: len(ids)})
	if err != nil {
		return nil, err
	}

	rank := make(map[uint]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	sort.SliceStable(titles, func(i, j int) bool { return rank[titles[i].ID] < rank[titles[j].ID] })
	return titles, nil
}

func (s *titleService) reloadAndIndex(ctx context.Context, id uint) (*dto.TitleResponse, error) {
	title, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.index != nil {
		if err := s.index.IndexTitle(ctx, title); err != nil {
			log.Ctx(ctx).Warn().Err(err).Uint("title_id", id).Msg("failed to index title")
		}
	}

	resp := dto.NewTitleResponse(title)
	return &resp, nil
}

func (s *titleService) find(ctx context.Context, id uint) (*entity.Title, error) {
	title, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: title %d", apperror.ErrNotFound, id)
		}
		return nil, err
	}
	return title, nil
}

func (s *titleService) validateYear(year int) error {
	if year > s.now().Year() {
		return apperror.NewValidation("year", "release year cannot be in the future")
	}
	return nil
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*entity.Category, error) {
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewValidation("category", fmt.Sprintf("category %q does not exist", slug))
		}
		return nil, err
	}
	return category, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]entity.Genre, error) {
	if len(slugs) == 0 {
		return nil, apperror.NewValidation("genre", "at least one genre is required")
	}

	genres, err := s.genres.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}

	found := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		found[g.Slug] = struct{}{}
	}
	for _, slug := range slugs {
		if _, ok := found[slug]; !ok {
			return nil, apperror.NewValidation("genre", fmt.Sprintf("genre %q does not exist", slug))
		}
	}
	return genres, nil
}

func toResponses(titles []*entity.Title) []dto.TitleResponse {
	out := make([]dto.TitleResponse, 0, len(titles))
	for _, t := range titles {
		out = append(out, dto.NewTitleResponse(t))
	}
	return out
}
