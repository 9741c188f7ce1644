package repository

import (
	"context"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/pkg/database"
	"anoa.com/yamdb/pkg/dto"
	"gorm.io/gorm"
)

type GenreRepository interface {
	Create(ctx context.Context, genre *entity.Genre) error
	FindBySlug(ctx context.Context, slug string) (*entity.Genre, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]entity.Genre, error)
	FindAll(ctx context.Context, search string, page dto.PaginationQuery) ([]*entity.Genre, int64, error)
	Delete(ctx context.Context, id uint) error
}

type genreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) GenreRepository {
	return &genreRepository{db: db}
}

func (r *genreRepository) Create(ctx context.Context, genre *entity.Genre) error {
	return r.db.WithContext(ctx).Create(genre).Error
}

func (r *genreRepository) FindBySlug(ctx context.Context, slug string) (*entity.Genre, error) {
	var genre entity.Genre
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&genre).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *genreRepository) FindBySlugs(ctx context.Context, slugs []string) ([]entity.Genre, error) {
	var genres []entity.Genre
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}

func (r *genreRepository) FindAll(ctx context.Context, search string, page dto.PaginationQuery) ([]*entity.Genre, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Genre{})

	if search != "" {
		query = query.Where("name ILIKE ?", database.ContainsPattern(search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var genres []*entity.Genre
	if err := query.Order("name").Limit(page.Limit).Offset(page.Offset()).Find(&genres).Error; err != nil {
		return nil, 0, err
	}
	return genres, total, nil
}

// Delete removes the genre together with its title links.
func (r *genreRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Genre{}, id).Error
}
