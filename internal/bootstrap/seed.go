package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/pkg/validator"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Prepare registers the custom title/genre join model. It must run on every
// *gorm.DB that touches Title.Genres.
func Prepare(db *gorm.DB) error {
	return db.SetupJoinTable(&entity.Title{}, "Genres", &entity.TitleGenre{})
}

func Migrate(db *gorm.DB) error {
	if err := Prepare(db); err != nil {
		return err
	}
	return db.AutoMigrate(
		&entity.User{},
		&entity.Category{},
		&entity.Genre{},
		&entity.Title{},
		&entity.TitleGenre{},
		&entity.Review{},
		&entity.Comment{},
	)
}

type SuperuserInput struct {
	Username string
	Email    string
}

// SeedSuperuser creates an active superuser, or promotes the existing account
// with that username. It returns the stored user.
func SeedSuperuser(ctx context.Context, db *gorm.DB, input SuperuserInput) (*entity.User, error) {
	if !validator.ValidUsername(input.Username) {
		return nil, fmt.Errorf("invalid username %q", input.Username)
	}

	var user entity.User
	err := db.WithContext(ctx).Where("username = ?", input.Username).First(&user).Error
	switch {
	case err == nil:
		if user.IsSuperuser && user.IsActive {
			log.Info().Str("username", user.Username).Msg("superuser already exists, skipping seed")
			return &user, nil
		}
		user.IsSuperuser = true
		user.IsActive = true
		user.Role = entity.RoleAdmin
		if err := db.WithContext(ctx).Save(&user).Error; err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		user = entity.User{
			Username:    input.Username,
			Email:       input.Email,
			Role:        entity.RoleAdmin,
			IsActive:    true,
			IsSuperuser: true,
			LastLoginAt: &now,
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	log.Info().Str("username", user.Username).Str("email", user.Email).Msg("superuser seeded")
	return &user, nil
}
