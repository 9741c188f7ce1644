//go:build integration

package importer

import (
	"context"
	"testing"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIsIdempotent(t *testing.T) {
	db := testutil.NewPostgres(t)
	dir := t.TempDir()
	ctx := context.Background()

	writeFixture(t, dir, "users.csv", "id,username,email,role,bio,first_name,last_name\n100,bingobongo,bingo@yamdb.fake,user,,,\n")
	writeFixture(t, dir, "category.csv", "id,name,slug\n1,Фильм,movie\n")
	writeFixture(t, dir, "genre.csv", "id,name,slug\n1,Драма,drama\n")
	writeFixture(t, dir, "titles.csv", "id,name,year,category\n1,Побег из Шоушенка,1994,1\n")
	writeFixture(t, dir, "genre_title.csv", "id,title_id,genre_id\n1,1,1\n")
	writeFixture(t, dir, "review.csv", "id,title_id,text,author,score,pub_date\n1,1,Great,100,10,2019-09-24T21:08:21.567Z\n")

	im := New(db)
	results, err := im.Run(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, len(tables))
	assert.True(t, results[len(results)-1].Skipped, "comments.csv is missing")

	results, err = im.Run(ctx, dir)
	require.NoError(t, err)
	for _, r := range results {
		assert.Zero(t, r.Inserted, r.File)
	}

	// The sequence moved past imported ids.
	user := entity.User{Username: "fresh", Email: "fresh@x.com", Role: entity.RoleUser}
	require.NoError(t, db.Create(&user).Error)
	assert.Greater(t, user.ID, uint(100))

	var title entity.Title
	require.NoError(t, db.Preload("Genres").First(&title, 1).Error)
	require.Len(t, title.Genres, 1)
	assert.Equal(t, "drama", title.Genres[0].Slug)
}
