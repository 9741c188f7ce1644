package comment

import (
	"context"
	"sort"
	"testing"
	"time"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/modules/comment/dto"
	"anoa.com/yamdb/internal/policy"
	"anoa.com/yamdb/pkg/apperror"
	commonDto "anoa.com/yamdb/pkg/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// reviewKey is a (title, review) pair known to the fake repository.
type reviewKey struct{ title, review uint }

type fakeCommentRepo struct {
	reviews  map[reviewKey]bool
	comments map[uint]*entity.Comment
	nextID   uint
	clock    time.Time
}

func newFakeCommentRepo(keys ...reviewKey) *fakeCommentRepo {
	r := &fakeCommentRepo{
		reviews:  map[reviewKey]bool{},
		comments: map[uint]*entity.Comment{},
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, k := range keys {
		r.reviews[k] = true
	}
	return r
}

func (r *fakeCommentRepo) ReviewExists(_ context.Context, titleID, reviewID uint) (bool, error) {
	return r.reviews[reviewKey{titleID, reviewID}], nil
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *entity.Comment) error {
	r.nextID++
	r.clock = r.clock.Add(time.Second)
	comment.ID = r.nextID
	comment.PubDate = r.clock
	stored := *comment
	r.comments[comment.ID] = &stored
	return nil
}

func (r *fakeCommentRepo) FindByID(_ context.Context, reviewID, id uint) (*entity.Comment, error) {
	c, ok := r.comments[id]
	if !ok || c.ReviewID != reviewID {
		return nil, gorm.ErrRecordNotFound
	}
	out := *c
	return &out, nil
}

func (r *fakeCommentRepo) FindByReview(_ context.Context, reviewID uint, _ commonDto.PaginationQuery) ([]*entity.Comment, int64, error) {
	var out []*entity.Comment
	for _, c := range r.comments {
		if c.ReviewID == reviewID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PubDate.After(out[j].PubDate) })
	return out, int64(len(out)), nil
}

func (r *fakeCommentRepo) Update(_ context.Context, comment *entity.Comment) error {
	stored := *comment
	r.comments[comment.ID] = &stored
	return nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id uint) error {
	delete(r.comments, id)
	return nil
}

var (
	alice = &entity.User{ID: 10, Username: "alice", Role: entity.RoleUser}
	bob   = &entity.User{ID: 11, Username: "bob", Role: entity.RoleUser}
	admin = &entity.User{ID: 1, Username: "root", Role: entity.RoleAdmin}
)

func newService(t *testing.T, repo *fakeCommentRepo) CommentService {
	t.Helper()
	enforcer, err := policy.New()
	require.NoError(t, err)
	return NewCommentService(repo, enforcer, nil, 0)
}

func TestCreateAndListComments(t *testing.T) {
	repo := newFakeCommentRepo(reviewKey{1, 5})
	svc := newService(t, repo)
	ctx := context.Background()

	first, err := svc.CreateComment(ctx, alice, 1, 5, dto.CreateCommentRequest{Text: "agreed"})
	require.NoError(t, err)
	assert.Equal(t, uint(5), first.Review)
	require.NotNil(t, first.Author)
	assert.Equal(t, "alice", *first.Author)

	_, err = svc.CreateComment(ctx, bob, 1, 5, dto.CreateCommentRequest{Text: "<b>not</b> really"})
	require.NoError(t, err)

	page, err := svc.ListComments(ctx, 1, 5, commonDto.PaginationQuery{})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "not really", page.Data[0].Text)
	assert.Equal(t, "agreed", page.Data[1].Text)
}

func TestCommentsRequireReviewUnderTitle(t *testing.T) {
	repo := newFakeCommentRepo(reviewKey{1, 5})
	svc := newService(t, repo)
	ctx := context.Background()

	_, err := svc.ListComments(ctx, 2, 5, commonDto.PaginationQuery{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.CreateComment(ctx, alice, 1, 6, dto.CreateCommentRequest{Text: "x"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	created, err := svc.CreateComment(ctx, alice, 1, 5, dto.CreateCommentRequest{Text: "x"})
	require.NoError(t, err)
	_, err = svc.GetComment(ctx, 2, 5, created.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = svc.GetComment(ctx, 1, 5, created.ID+1)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateCommentRejections(t *testing.T) {
	svc := newService(t, newFakeCommentRepo(reviewKey{1, 5}))
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, nil, 1, 5, dto.CreateCommentRequest{Text: "x"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.CreateComment(ctx, alice, 1, 5, dto.CreateCommentRequest{Text: "  "})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestCommentOwnership(t *testing.T) {
	repo := newFakeCommentRepo(reviewKey{1, 5})
	svc := newService(t, repo)
	ctx := context.Background()

	created, err := svc.CreateComment(ctx, alice, 1, 5, dto.CreateCommentRequest{Text: "mine"})
	require.NoError(t, err)

	edit := dto.UpdateCommentRequest{Text: strPtr("edited")}
	_, err = svc.UpdateComment(ctx, bob, 1, 5, created.ID, edit)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = svc.UpdateComment(ctx, nil, 1, 5, created.ID, edit)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	blank := dto.UpdateCommentRequest{Text: strPtr("")}
	_, err = svc.UpdateComment(ctx, bob, 1, 5, created.ID, blank)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = svc.UpdateComment(ctx, alice, 1, 5, created.ID, blank)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	updated, err := svc.UpdateComment(ctx, alice, 1, 5, created.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)

	assert.ErrorIs(t, svc.DeleteComment(ctx, bob, 1, 5, created.ID), apperror.ErrForbidden)
	require.NoError(t, svc.DeleteComment(ctx, admin, 1, 5, created.ID))
	assert.Empty(t, repo.comments)
}

func strPtr(s string) *string { return &s }
