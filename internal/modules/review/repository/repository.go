package repository

import (
	"context"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/pkg/dto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	TitleExists(ctx context.Context, titleID uint) (bool, error)
	AuthorReviewed(ctx context.Context, titleID, authorID uint) (bool, error)
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, titleID, id uint) (*entity.Review, error)
	FindByTitle(ctx context.Context, titleID uint, page dto.PaginationQuery) ([]*entity.Review, int64, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id uint) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) TitleExists(ctx context.Context, titleID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Title{}).Where("id = ?", titleID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *reviewRepository) AuthorReviewed(ctx context.Context, titleID, authorID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(review).Error
}

// FindByID only finds the review under the given title.
func (r *reviewRepository) FindByID(ctx context.Context, titleID, id uint) (*entity.Review, error) {
	var review entity.Review
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND title_id = ?", id, titleID).
		First(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByTitle(ctx context.Context, titleID uint, page dto.PaginationQuery) ([]*entity.Review, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("title_id = ?", titleID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []*entity.Review
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("title_id = ?", titleID).
		Order("pub_date DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	return r.db.WithContext(ctx).
		Model(review).
		Updates(map[string]interface{}{"text": review.Text, "score": review.Score}).Error
}

// Delete removes the review and its comments.
func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&entity.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Review{}, id).Error
	})
}
