package genre

import (
	"context"
	"os"
	"sort"
	"strings"
	"testing"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/modules/genre/dto"
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

type fakeGenreRepo struct {
	nextID uint
	items  map[uint]*entity.Genre
}

func newFakeGenreRepo() *fakeGenreRepo {
	return &fakeGenreRepo{items: map[uint]*entity.Genre{}}
}

func (r *fakeGenreRepo) Create(_ context.Context, genre *entity.Genre) error {
	for _, c := range r.items {
		if c.Slug == genre.Slug {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	genre.ID = r.nextID
	r.items[genre.ID] = genre
	return nil
}

func (r *fakeGenreRepo) FindBySlug(_ context.Context, slug string) (*entity.Genre, error) {
	for _, c := range r.items {
		if c.Slug == slug {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeGenreRepo) FindBySlugs(_ context.Context, slugs []string) ([]entity.Genre, error) {
	var out []entity.Genre
	for _, slug := range slugs {
		if g, err := r.FindBySlug(context.Background(), slug); err == nil {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (r *fakeGenreRepo) FindAll(_ context.Context, search string, page commonDto.PaginationQuery) ([]*entity.Genre, int64, error) {
	var out []*entity.Genre
	for _, c := range r.items {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))
	if page.Offset() >= len(out) {
		return nil, total, nil
	}
	out = out[page.Offset():]
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, total, nil
}

func (r *fakeGenreRepo) Delete(_ context.Context, id uint) error {
	delete(r.items, id)
	return nil
}

var (
	admin = &entity.User{ID: 1, Role: entity.RoleAdmin}
	alice = &entity.User{ID: 2, Role: entity.RoleUser}
)

func newService(t *testing.T) GenreService {
	t.Helper()
	enforcer, err := policy.New()
	require.NoError(t, err)
	return NewGenreService(newFakeGenreRepo(), enforcer)
}

func TestCreateAndListGenres(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, req := range []dto.CreateGenreRequest{
		{Name: "Drama", Slug: "drama"},
		{Name: "Comedy", Slug: "comedy"},
		{Name: "Musical", Slug: "musical"},
	} {
		_, err := svc.CreateGenre(ctx, admin, req)
		require.NoError(t, err)
	}

	all, err := svc.GetAllGenres(ctx, commonDto.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all.Data, 3)
	assert.Equal(t, "Comedy", all.Data[0].Name)
	assert.Equal(t, int64(3), all.Meta.TotalItems)

	found, err := svc.GetAllGenres(ctx, commonDto.SearchFilter{Search: "mu"})
	require.NoError(t, err)
	require.Len(t, found.Data, 1)
	assert.Equal(t, "musical", found.Data[0].Slug)

	paged, err := svc.GetAllGenres(ctx, commonDto.SearchFilter{PaginationQuery: commonDto.PaginationQuery{Page: 2, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, paged.Data, 1)
	assert.Equal(t, 2, paged.Meta.TotalPages)
}

func TestCreateGenreDuplicateSlug(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateGenre(ctx, admin, dto.CreateGenreRequest{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)

	_, err = svc.CreateGenre(ctx, admin, dto.CreateGenreRequest{Name: "Dramas", Slug: "drama"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestGenreWritesRequireAdmin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateGenre(ctx, alice, dto.CreateGenreRequest{Name: "Drama", Slug: "drama"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.CreateGenre(ctx, nil, dto.CreateGenreRequest{Name: "Drama", Slug: "drama"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	assert.ErrorIs(t, svc.DeleteGenre(ctx, alice, "drama"), apperror.ErrForbidden)
}

func TestDeleteGenre(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateGenre(ctx, admin, dto.CreateGenreRequest{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGenre(ctx, admin, "drama"))
	assert.ErrorIs(t, svc.DeleteGenre(ctx, admin, "drama"), apperror.ErrNotFound)
}
