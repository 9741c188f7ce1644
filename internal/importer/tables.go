package importer

import (
	"anoa.com/yamdb/internal/entity"
)

type table struct {
	file string
	// sequence is the table whose id sequence must be advanced after the load.
	sequence string
	build    func(record) (any, error)
}

// tables is ordered so every foreign key points at a file loaded earlier.
var tables = []table{
	{file: "users.csv", sequence: "users", build: buildUser},
	{file: "category.csv", sequence: "categories", build: buildCategory},
	{file: "genre.csv", sequence: "genres", build: buildGenre},
	{file: "titles.csv", sequence: "titles", build: buildTitle},
	{file: "genre_title.csv", build: buildTitleGenre},
	{file: "review.csv", sequence: "reviews", build: buildReview},
	{file: "comments.csv", sequence: "comments", build: buildComment},
}

func buildUser(r record) (any, error) {
	id, err := r.uintField("id")
	if err != nil {
		return nil, err
	}
	role := r.str("role")
	if role == "" {
		role = entity.RoleUser
	}
	if !entity.ValidRole(role) {
		return nil, fieldError("role", role)
	}
	return &entity.User{
		ID:        id,
		Username:  r.str("username"),
		Email:     r.str("email"),
		Role:      role,
		Bio:       r.optional("bio"),
		FirstName: r.str("first_name"),
		LastName:  r.str("last_name"),
		IsActive:  true,
	}, nil
}

func buildCategory(r record) (any, error) {
	id, err := r.uintField("id")
	if err != nil {
		return nil, err
	}
	return &entity.Category{ID: id, Name: r.str("name"), Slug: r.str("slug")}, nil
}

func buildGenre(r record) (any, error) {
	id, err := r.uintField("id")
	if err != nil {
		return nil, err
	}
	return &entity.Genre{ID: id, Name: r.str("name"), Slug: r.str("slug")}, nil
}

func buildTitle(r record) (any, error) {
	id, err := r.uintField("id")
	if err != nil {
		return nil, err
	}
	year, err := r.intField("year")
	if err != nil {
		return nil, err
	}
	category, err := r.optionalUintField("category")
	if err != nil {
		return nil, err
	}
	return &entity.Title{
		ID:          id,
		Name:        r.str("name"),
		Year:        year,
		Description: r.optional("description"),
		CategoryID:  category,
	}, nil
}

func buildTitleGenre(r record) (any, error) {
	titleID, err := r.uintField("title_id")
	if err != nil {
		return nil, err
	}
	genreID, err := r.uintField("genre_id")
	if err != nil {
		return nil, err
	}
	return &entity.TitleGenre{TitleID: titleID, GenreID: genreID}, nil
}

func buildReview(r record) (any, error) {
	id, err := r.uintField("id")
	if err != nil {
		return nil, err
	}
	titleID, err := r.uintField("title_id")
	if err != nil {
		return nil, err
	}
	author, err := r.optionalUintField("author")
	if err != nil {
		return nil, err
	}
	score, err := r.intField("score")
	if err != nil {
		return nil, err
	}
	if score < entity.MinScore || score > entity.MaxScore {
		return nil, fieldError("score", r.str("score"))
	}
	pubDate, err := r.timeField("pub_date")
	if err != nil {
		return nil, err
	}
	return &entity.Review{
		ID:       id,
		TitleID:  titleID,
		AuthorID: author,
		Text:     r.str("text"),
		Score:    score,
		PubDate:  pubDate,
	}, nil
}

func buildComment(r record) (any, error) {
	id, err := r.uintField("id")
	if err != nil {
		return nil, err
	}
	reviewID, err := r.uintField("review_id")
	if err != nil {
		return nil, err
	}
	author, err := r.optionalUintField("author")
	if err != nil {
		return nil, err
	}
	pubDate, err := r.timeField("pub_date")
	if err != nil {
		return nil, err
	}
	return &entity.Comment{
		ID:       id,
		ReviewID: reviewID,
		AuthorID: author,
		Text:     r.str("text"),
		PubDate:  pubDate,
	}, nil
}
