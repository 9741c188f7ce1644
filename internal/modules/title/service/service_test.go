package title

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"anoa.com/yamdb/internal/entity"
	search "anoa.com/yamdb/internal/modules/search/service"
	"anoa.com/yamdb/internal/modules/title/dto"
	"anoa.com/yamdb/internal/modules/title/repository"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	commonDto "anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	if err := validator.Register(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeCatalog struct {
	categories map[string]*entity.Category
	genres     map[string]entity.Genre
}

func (f *fakeCatalog) Create(context.Context, *entity.Category) error { return nil }

func (f *fakeCatalog) FindBySlug(_ context.Context, slug string) (*entity.Category, error) {
	if c, ok := f.categories[slug]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCatalog) FindAll(context.Context, string, commonDto.PaginationQuery) ([]*entity.Category, int64, error) {
	return nil, 0, nil
}

func (f *fakeCatalog) Delete(context.Context, uint) error { return nil }

type fakeGenres struct{ *fakeCatalog }

func (f fakeGenres) Create(context.Context, *entity.Genre) error { return nil }

func (f fakeGenres) FindBySlug(_ context.Context, slug string) (*entity.Genre, error) {
	if g, ok := f.genres[slug]; ok {
		return &g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f fakeGenres) FindBySlugs(_ context.Context, slugs []string) ([]entity.Genre, error) {
	var out []entity.Genre
	for _, slug := range slugs {
		if g, ok := f.genres[slug]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f fakeGenres) FindAll(context.Context, string, commonDto.PaginationQuery) ([]*entity.Genre, int64, error) {
	return nil, 0, nil
}

type fakeTitleRepo struct {
	nextID  uint
	titles  map[uint]*entity.Title
	catalog *fakeCatalog
}

func (r *fakeTitleRepo) hydrate(t *entity.Title) *entity.Title {
	out := *t
	out.Category = nil
	for _, c := range r.catalog.categories {
		if t.CategoryID != nil && c.ID == *t.CategoryID {
			out.Category = c
		}
	}
	return &out
}

func (r *fakeTitleRepo) Create(_ context.Context, title *entity.Title) error {
	r.nextID++
	title.ID = r.nextID
	stored := *title
	r.titles[title.ID] = &stored
	return nil
}

func (r *fakeTitleRepo) FindByID(_ context.Context, id uint) (*entity.Title, error) {
	t, ok := r.titles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.hydrate(t), nil
}

func (r *fakeTitleRepo) FindAll(_ context.Context, f repository.Filter, page commonDto.PaginationQuery) ([]*entity.Title, int64, error) {
	var out []*entity.Title
	for _, t := range r.titles {
		if f.Name != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Name)) {
			continue
		}
		if f.Year != nil && t.Year != *f.Year {
			continue
		}
		if f.IDs != nil {
			found := false
			for _, id := range f.IDs {
				found = found || id == t.ID
			}
			if !found {
				continue
			}
		}
		out = append(out, r.hydrate(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (r *fakeTitleRepo) Update(_ context.Context, title *entity.Title, genres []entity.Genre) error {
	stored := *title
	if genres != nil {
		stored.Genres = genres
	}
	r.titles[title.ID] = &stored
	return nil
}

func (r *fakeTitleRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.titles[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.titles, id)
	return nil
}

type fakeIndex struct {
	indexed map[uint]string
	result  []uint
	err     error
	filter  search.Filter
}

func (i *fakeIndex) IndexTitle(_ context.Context, t *entity.Title) error {
	i.indexed[t.ID] = t.Name
	return nil
}

func (i *fakeIndex) DeleteTitle(_ context.Context, id uint) error {
	delete(i.indexed, id)
	return nil
}

func (i *fakeIndex) SearchTitles(_ context.Context, _ string, filter search.Filter, _ commonDto.PaginationQuery) ([]uint, int64, error) {
	i.filter = filter
	return i.result, int64(len(i.result)), i.err
}

var (
	admin = &entity.User{ID: 1, Role: entity.RoleAdmin}
	mod   = &entity.User{ID: 2, Role: entity.RoleModerator}
)

type fixture struct {
	svc   *titleService
	repo  *fakeTitleRepo
	index *fakeIndex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	enforcer, err := policy.New()
	require.NoError(t, err)

	catalog := &fakeCatalog{
		categories: map[string]*entity.Category{
			"book":  {ID: 1, Name: "Books", Slug: "book"},
			"movie": {ID: 2, Name: "Movies", Slug: "movie"},
		},
		genres: map[string]entity.Genre{
			"scifi": {ID: 1, Name: "Sci-Fi", Slug: "scifi"},
			"drama": {ID: 2, Name: "Drama", Slug: "drama"},
		},
	}
	repo := &fakeTitleRepo{titles: map[uint]*entity.Title{}, catalog: catalog}
	index := &fakeIndex{indexed: map[uint]string{}}

	svc := NewTitleService(repo, catalog, fakeGenres{catalog}, index, enforcer).(*titleService)
	svc.now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, repo: repo, index: index}
}

func intPtr(v int) *int       { return &v }
func strPtr(s string) *string { return &s }

func dune() dto.CreateTitleRequest {
	return dto.CreateTitleRequest{
		Name:        "Dune",
		Year:        intPtr(1965),
		Description: strPtr("<b>Spice</b> must flow"),
		Category:    "book",
		Genre:       []string{"scifi"},
	}
}

func TestCreateTitle(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.CreateTitle(context.Background(), admin, dune())
	require.NoError(t, err)

	assert.Equal(t, "Dune", resp.Name)
	assert.Equal(t, 1965, resp.Year)
	assert.Nil(t, resp.Rating)
	assert.Equal(t, "Spice must flow", *resp.Description)
	require.NotNil(t, resp.Category)
	assert.Equal(t, "book", resp.Category.Slug)
	require.Len(t, resp.Genre, 1)
	assert.Equal(t, "scifi", resp.Genre[0].Slug)

	assert.Equal(t, "Dune", f.index.indexed[resp.ID])
}

func TestCreateTitleValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	future := dune()
	future.Year = intPtr(2027)
	_, err := f.svc.CreateTitle(ctx, admin, future)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	missingCategory := dune()
	missingCategory.Category = "nope"
	_, err = f.svc.CreateTitle(ctx, admin, missingCategory)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	missingGenre := dune()
	missingGenre.Genre = []string{"scifi", "nope"}
	_, err = f.svc.CreateTitle(ctx, admin, missingGenre)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	noGenre := dune()
	noGenre.Genre = nil
	_, err = f.svc.CreateTitle(ctx, admin, noGenre)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	assert.Empty(t, f.repo.titles)
}

func TestTitleWritesRequireAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTitle(ctx, mod, dune())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.CreateTitle(ctx, nil, dune())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	created, err := f.svc.CreateTitle(ctx, admin, dune())
	require.NoError(t, err)

	_, err = f.svc.UpdateTitle(ctx, mod, created.ID, dto.UpdateTitleRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteTitle(ctx, mod, created.ID), apperror.ErrForbidden)
}

func TestUpdateTitleIsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateTitle(ctx, admin, dune())
	require.NoError(t, err)

	updated, err := f.svc.UpdateTitle(ctx, admin, created.ID, dto.UpdateTitleRequest{
		Category: strPtr("movie"),
		Genre:    []string{"drama", "scifi"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Dune", updated.Name)
	assert.Equal(t, 1965, updated.Year)
	assert.Equal(t, "movie", updated.Category.Slug)
	assert.Len(t, updated.Genre, 2)

	_, err = f.svc.UpdateTitle(ctx, admin, created.ID, dto.UpdateTitleRequest{Year: intPtr(3000)})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = f.svc.UpdateTitle(ctx, admin, 999, dto.UpdateTitleRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateTitle(ctx, admin, dune())
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTitle(ctx, admin, created.ID))
	assert.NotContains(t, f.index.indexed, created.ID)

	_, err = f.svc.GetTitle(ctx, created.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteTitle(ctx, admin, created.ID), apperror.ErrNotFound)
}

func TestSearchTitlesUsesIndexOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateTitle(ctx, admin, dune())
	require.NoError(t, err)
	second := dune()
	second.Name = "Arrival"
	created, err := f.svc.CreateTitle(ctx, admin, second)
	require.NoError(t, err)

	f.index.result = []uint{first.ID, created.ID}
	resp, err := f.svc.SearchTitles(ctx, dto.SearchQuery{Q: "spice"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Dune", resp.Data[0].Name)
	assert.Equal(t, "Arrival", resp.Data[1].Name)

	_, err = f.svc.SearchTitles(ctx, dto.SearchQuery{Q: "spice", Genre: "scifi", Category: "book", Year: intPtr(1965)})
	require.NoError(t, err)
	assert.Equal(t, search.Filter{Genre: "scifi", Category: "book", Year: intPtr(1965)}, f.index.filter)
}

func TestSearchTitlesFallsBackToName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTitle(ctx, admin, dune())
	require.NoError(t, err)

	f.index.err = errors.New("meilisearch down")
	resp, err := f.svc.SearchTitles(ctx, dto.SearchQuery{Q: "du"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Dune", resp.Data[0].Name)

	f.svc.index = nil
	resp, err = f.svc.SearchTitles(ctx, dto.SearchQuery{Q: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
}
