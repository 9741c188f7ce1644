package repository

import (
	"context"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/pkg/database"
	"anoa.com/yamdb/pkg/dto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows title listings. Zero values are ignored.
type Filter struct {
	Genre    string
	Category string
	Name     string
	Year     *int
	IDs      []uint
}

type TitleRepository interface {
	Create(ctx context.Context, title *entity.Title) error
	FindByID(ctx context.Context, id uint) (*entity.Title, error)
	FindAll(ctx context.Context, filter Filter, page dto.PaginationQuery) ([]*entity.Title, int64, error)
	Update(ctx context.Context, title *entity.Title, genres []entity.Genre) error
	Delete(ctx context.Context, id uint) error
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

// withRating adds the computed rating column: the mean review score, NULL
// when the title has no reviews.
func withRating(db *gorm.DB) *gorm.DB {
	return db.
		Select("titles.*, AVG(reviews.score) AS rating").
		Joins("LEFT JOIN reviews ON reviews.title_id = titles.id").
		Group("titles.id")
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB {
			return db.Order("genres.name")
		})
}

func (r *titleRepository) Create(ctx context.Context, title *entity.Title) error {
	return r.db.WithContext(ctx).Omit("Category", "Genres.*").Create(title).Error
}

func (r *titleRepository) FindByID(ctx context.Context, id uint) (*entity.Title, error) {
	var title entity.Title
	query := withRelations(withRating(r.db.WithContext(ctx).Model(&entity.Title{})))
	if err := query.Where("titles.id = ?", id).First(&title).Error; err != nil {
		return nil, err
	}
	return &title, nil
}

func (r *titleRepository) filtered(ctx context.Context, f Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.Title{})

	if f.Genre != "" {
		query = query.Where("titles.id IN (?)", r.db.
			Table("title_genres").
			Select("title_genres.title_id").
			Joins("JOIN genres ON genres.id = title_genres.genre_id").
			Where("genres.slug = ?", f.Genre))
	}
	if f.Category != "" {
		query = query.Where("titles.category_id IN (?)", r.db.
			Table("categories").
			Select("categories.id").
			Where("categories.slug = ?", f.Category))
	}
	if f.Name != "" {
		query = query.Where("titles.name ILIKE ?", database.ContainsPattern(f.Name))
	}
	if f.Year != nil {
		query = query.Where("titles.year = ?", *f.Year)
	}
	if f.IDs != nil {
		query = query.Where("titles.id IN ?", f.IDs)
	}
	return query
}

func (r *titleRepository) FindAll(ctx context.Context, filter Filter, page dto.PaginationQuery) ([]*entity.Title, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var titles []*entity.Title
	query := withRelations(withRating(r.filtered(ctx, filter))).
		Order("titles.name").
		Order("titles.id").
		Limit(page.Limit).
		Offset(page.Offset())
	if err := query.Find(&titles).Error; err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

// Update saves the scalar fields and, when genres is non-nil, replaces the
// genre links.
func (r *titleRepository) Update(ctx context.Context, title *entity.Title, genres []entity.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(title).Error; err != nil {
			return err
		}
		if genres != nil {
			if err := tx.Model(title).Association("Genres").Replace(genres); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the title with its reviews, their comments and its genre
// links in one transaction.
func (r *titleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&entity.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&entity.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&entity.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&entity.TitleGenre{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entity.Title{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
