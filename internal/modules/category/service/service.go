package category

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/modules/category/dto"
	"anoa.com/yamdb/internal/modules/category/repository"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/validator"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, actor *entity.User, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	GetAllCategories(ctx context.Context, filter commonDto.SearchFilter) (*commonDto.Paginated[dto.CategoryResponse], error)
	DeleteCategory(ctx context.Context, actor *entity.User, slug string) error
}

type categoryService struct {
	repo   repository.CategoryRepository
	policy *policy.Enforcer
}

func NewCategoryService(repo repository.CategoryRepository, policy *policy.Enforcer) CategoryService {
	return &categoryService{repo: repo, policy: policy}
}

func (s *categoryService) CreateCategory(ctx context.Context, actor *entity.User, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	if err := s.policy.Authorize(actor, policy.ResourceCategory, policy.ActionCreate, nil); err != nil {
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
		return nil, apperror.NewValidation("slug", "category with this slug already exists")
	}

	category := &entity.Category{
		Name: req.Name,
		Slug: req.Slug,
	}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewValidation("slug", "category with this slug already exists")
		}
		return nil, err
	}

	log.Ctx(ctx).Info().Str("slug", category.Slug).Msg("category created")

	resp := dto.NewCategoryResponse(category)
	return &resp, nil
}

func (s *categoryService) GetAllCategories(ctx context.Context, filter commonDto.SearchFilter) (*commonDto.Paginated[dto.CategoryResponse], error) {
	page := filter.PaginationQuery.Normalize()
	categories, total, err := s.repo.FindAll(ctx, filter.Search, page)
	if err != nil {
		return nil, err
	}

	categoryResponses := make([]dto.CategoryResponse, 0, len(categories))
	for _, cat := range categories {
		categoryResponses = append(categoryResponses, dto.NewCategoryResponse(cat))
	}

	return commonDto.NewPaginated(categoryResponses, page, total), nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, actor *entity.User, slug string) error {
	if err := s.policy.Authorize(actor, policy.ResourceCategory, policy.ActionDelete, nil); err != nil {
		return err
	}

	category, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: category %q", apperror.ErrNotFound, slug)
		}
		return err
	}

	if err := s.repo.Delete(ctx, category.ID); err != nil {
		return err
	}

	log.Ctx(ctx).Info().Str("slug", slug).Msg("category deleted")
	return nil
}
