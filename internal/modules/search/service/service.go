package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/pkg/dto"
	"github.com/meilisearch/meilisearch-go"
	"github.com/rs/zerolog/log"
)

const titlesIndex = "titles"

// TitleIndex keeps a full-text copy of the catalog. Reads of record still go
// to the database; the index only supplies matching ids.
type TitleIndex interface {
	IndexTitle(ctx context.Context, title *entity.Title) error
	DeleteTitle(ctx context.Context, id uint) error
	SearchTitles(ctx context.Context, query string, filter Filter, page dto.PaginationQuery) ([]uint, int64, error)
}

// Filter narrows a search to titles with the given genre, category or year.
// Zero fields are ignored.
type Filter struct {
	Genre    string
	Category string
	Year     *int
}

// expression renders f as Meilisearch filter clauses, which the engine ANDs.
func (f Filter) expression() []string {
	var clauses []string
	if f.Genre != "" {
		clauses = append(clauses, "genre_slugs = "+strconv.Quote(f.Genre))
	}
	if f.Category != "" {
		clauses = append(clauses, "category_slug = "+strconv.Quote(f.Category))
	}
	if f.Year != nil {
		clauses = append(clauses, "year = "+strconv.Itoa(*f.Year))
	}
	return clauses
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

func NewMeiliSearchService(client meilisearch.ServiceManager) TitleIndex {
	s := &meiliSearchService{client: client}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	searchable := []string{"name", "description", "genres", "category"}
	if _, err := s.client.Index(titlesIndex).UpdateSearchableAttributes(&searchable); err != nil {
		log.Warn().Err(err).Msg("failed to update titles searchable attributes")
	}

	filterableAttrs := []string{"year", "category_slug", "genre_slugs"}
	filterable := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterable[i] = v
	}
	if _, err := s.client.Index(titlesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Warn().Err(err).Msg("failed to update titles filterable attributes")
	}

	log.Info().Msg("meilisearch indexes initialized")
}

type meiliTitleDoc struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	Year         int      `json:"year"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	CategorySlug string   `json:"category_slug"`
	Genres       []string `json:"genres"`
	GenreSlugs   []string `json:"genre_slugs"`
}

func newTitleDoc(t *entity.Title) meiliTitleDoc {
	doc := meiliTitleDoc{
		ID:         t.ID,
		Name:       t.Name,
		Year:       t.Year,
		Genres:     make([]string, 0, len(t.Genres)),
		GenreSlugs: make([]string, 0, len(t.Genres)),
	}
	if t.Description != nil {
		doc.Description = *t.Description
	}
	if t.Category != nil {
		doc.Category = t.Category.Name
		doc.CategorySlug = t.Category.Slug
	}
	for _, g := range t.Genres {
		doc.Genres = append(doc.Genres, g.Name)
		doc.GenreSlugs = append(doc.GenreSlugs, g.Slug)
	}
	return doc
}

func (s *meiliSearchService) IndexTitle(ctx context.Context, title *entity.Title) error {
	task, err := s.client.Index(titlesIndex).AddDocuments([]meiliTitleDoc{newTitleDoc(title)}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index title %d: %w", title.ID, err)
	}
	log.Ctx(ctx).Debug().Uint("title_id", title.ID).Int64("task_uid", task.TaskUID).Msg("title indexed")
	return nil
}

func (s *meiliSearchService) DeleteTitle(ctx context.Context, id uint) error {
	if _, err := s.client.Index(titlesIndex).DeleteDocument(strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("delete title %d from index: %w", id, err)
	}
	return nil
}

func (s *meiliSearchService) SearchTitles(ctx context.Context, query string, filter Filter, page dto.PaginationQuery) ([]uint, int64, error) {
	req := &meilisearch.SearchRequest{
		Limit:                int64(page.Limit),
		Offset:               int64(page.Offset()),
		AttributesToRetrieve: []string{"id"},
	}
	if clauses := filter.expression(); len(clauses) > 0 {
		req.Filter = clauses
	}

	resp, err := s.client.Index(titlesIndex).Search(query, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search titles: %w", err)
	}

	// Hits are decoded through JSON so only the id field matters.
	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, 0, err
	}
	var hits []struct {
		ID uint `json:"id"`
	}
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, 0, fmt.Errorf("decode search hits: %w", err)
	}

	ids := make([]uint, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ID)
	}
	return ids, resp.EstimatedTotalHits, nil
}

func strPtr(s string) *string {
	return &s
}
