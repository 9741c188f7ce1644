package dto

import (
	"anoa.com/yamdb/internal/entity"
	categoryDto "anoa.com/yamdb/internal/modules/category/dto"
	genreDto "anoa.com/yamdb/internal/modules/genre/dto"
	commonDto "anoa.com/yamdb/pkg/dto"
)

type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        *int     `json:"year" binding:"required"`
	Description *string  `json:"description"`
	Category    string   `json:"category" binding:"required,slug"`
	Genre       []string `json:"genre" binding:"required,min=1,dive,slug"`
}

// UpdateTitleRequest is a partial update; nil fields are left alone.
type UpdateTitleRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=256"`
	Year        *int     `json:"year"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" binding:"omitempty,slug"`
	Genre       []string `json:"genre" binding:"omitempty,min=1,dive,slug"`
}

type TitleFilter struct {
	commonDto.PaginationQuery
	Genre    string `form:"genre"`
	Category string `form:"category"`
	Name     string `form:"name"`
	Year     *int   `form:"year"`
}

type SearchQuery struct {
	commonDto.PaginationQuery
	Q        string `form:"q" binding:"required"`
	Genre    string `form:"genre"`
	Category string `form:"category"`
	Year     *int   `form:"year"`
}

type TitleResponse struct {
	ID          uint                          `json:"id"`
	Name        string                        `json:"name"`
	Year        int                           `json:"year"`
	Rating      *float64                      `json:"rating"`
	Description *string                       `json:"description"`
	Genre       []genreDto.GenreResponse      `json:"genre"`
	Category    *categoryDto.CategoryResponse `json:"category"`
}

func NewTitleResponse(t *entity.Title) TitleResponse {
	genres := make([]genreDto.GenreResponse, 0, len(t.Genres))
	for i := range t.Genres {
		genres = append(genres, genreDto.NewGenreResponse(&t.Genres[i]))
	}

	var category *categoryDto.CategoryResponse
	if t.Category != nil {
		c := categoryDto.NewCategoryResponse(t.Category)
		category = &c
	}

	return TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       genres,
		Category:    category,
	}
}
