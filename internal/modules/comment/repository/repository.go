package repository

import (
	"context"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/pkg/dto"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository interface {
	ReviewExists(ctx context.Context, titleID, reviewID uint) (bool, error)
	Create(ctx context.Context, comment *entity.Comment) error
	FindByID(ctx context.Context, reviewID, id uint) (*entity.Comment, error)
	FindByReview(ctx context.Context, reviewID uint, page dto.PaginationQuery) ([]*entity.Comment, int64, error)
	Update(ctx context.Context, comment *entity.Comment) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// ReviewExists reports whether the review exists under the given title.
func (r *commentRepository) ReviewExists(ctx context.Context, titleID, reviewID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Review{}).
		Where("id = ? AND title_id = ?", reviewID, titleID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

func (r *commentRepository) FindByID(ctx context.Context, reviewID, id uint) (*entity.Comment, error) {
	var comment entity.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND review_id = ?", id, reviewID).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindByReview(ctx context.Context, reviewID uint, page dto.PaginationQuery) ([]*entity.Comment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&entity.Comment{}).
		Where("review_id = ?", reviewID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []*entity.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("review_id = ?", reviewID).
		Order("pub_date DESC").
		Order("id DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&comments).Error; err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *entity.Comment) error {
	return r.db.WithContext(ctx).Model(comment).Update("text", comment.Text).Error
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&entity.Comment{}, id).Error
}
