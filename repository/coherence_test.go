/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/stash/model"
	"github.com/tomoncle/stash/types"
	"github.com/uptrace/bun"
)

func TestUserSourceCacheFollowsWrites(t *testing.T) {
	db, counter := newTestDB(t)
	repo := NewUserRepository(db, testOptions(time.Millisecond))
	ctx := context.Background()

	u, err := repo.Create(ctx, &model.UserCreate{Name: "old", Email: "a@example.com", Source: "EMAIL", SourceUserID: "a"}, nil)
	require.NoError(t, err)
	got, err := repo.GetBySource(ctx, "EMAIL", "a")
	require.NoError(t, err)
	assert.Equal(t, "old", got.Name)

	_, err = repo.Update(ctx, u.ID, &model.UserUpdate{Name: ptr("new")}, nil)
	require.NoError(t, err)

	counter.Reset()
	got, err = repo.GetBySource(ctx, "EMAIL", "a")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Name)
	assert.Zero(t, counter.Count())

	_, err = repo.Delete(ctx, u.ID, nil)
	require.NoError(t, err)
	_, err = repo.GetBySource(ctx, "EMAIL", "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Get(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkDeletesEvictNaturalKeyCaches(t *testing.T) {
	db, _ := newTestDB(t)
	u1, u2 := seedUser(t, db, "u1"), seedUser(t, db, "u2")
	a := seedArticle(t, db, "http://a", "h")
	ctx := context.Background()

	opts := testOptions(time.Millisecond)
	users := NewUserRepository(db, opts)
	articles := NewArticleRepository(db, opts)
	links := NewUserArticleRepository(db, opts)
	friends := NewUserFriendRepository(db, opts)

	ua, err := links.Create(ctx, &model.UserArticleCreate{UserID: u1.ID, ArticleID: a.ID, Slug: "s"}, nil)
	require.NoError(t, err)
	_, err = friends.Follow(ctx, u1.ID, u2.ID, nil)
	require.NoError(t, err)

	_, err = users.GetBySource(ctx, "EMAIL", "u2")
	require.NoError(t, err)
	_, err = articles.GetByURLAndHash(ctx, "http://a", "h")
	require.NoError(t, err)
	_, err = links.GetByUserAndArticle(ctx, u1.ID, a.ID)
	require.NoError(t, err)
	ok, err := friends.IsFollowing(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	require.True(t, ok)

	err = WithTx(ctx, db, nil, func(ctx context.Context, tx *bun.Tx) error {
		if _, err := links.DeleteWhereIn(ctx, "id", []interface{}{ua.ID}, tx); err != nil {
			return err
		}
		if _, err := friends.DeleteWhereIn(ctx, "user_id", []interface{}{u1.ID}, tx); err != nil {
			return err
		}
		if _, err := articles.DeleteWhere(ctx, types.NewQueryFilter("url = ?", "http://a"), tx); err != nil {
			return err
		}
		_, err := users.DeleteWhereIn(ctx, "source_user_id", []interface{}{"u2"}, tx)
		return err
	})
	require.NoError(t, err)

	_, err = users.GetBySource(ctx, "EMAIL", "u2")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = articles.GetByURLAndHash(ctx, "http://a", "h")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = links.GetByUserAndArticle(ctx, u1.ID, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	ok, err = friends.IsFollowing(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserArticleKeyMovesWithUpdate(t *testing.T) {
	db, counter := newTestDB(t)
	u := seedUser(t, db, "u1")
	a1, a2 := seedArticle(t, db, "http://a1", "h"), seedArticle(t, db, "http://a2", "h")
	ua := seedUserArticle(t, db, u.ID, a1.ID)
	repo := NewUserArticleRepository(db, testOptions(time.Millisecond))
	ctx := context.Background()

	_, err := repo.GetByUserAndArticle(ctx, u.ID, a1.ID)
	require.NoError(t, err)

	_, err = repo.DB().NewUpdate().Model((*model.UserArticle)(nil)).
		Set("article_id = ?", a2.ID).Where("id = ?", ua.ID).Exec(ctx)
	require.NoError(t, err)
	moved, err := repo.SetArchived(ctx, ua.ID, true, nil)
	require.NoError(t, err)
	require.Equal(t, a2.ID, moved.ArticleID)

	_, err = repo.GetByUserAndArticle(ctx, u.ID, a1.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	counter.Reset()
	got, err := repo.GetByUserAndArticle(ctx, u.ID, a2.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived())
	assert.Zero(t, counter.Count())
}

func TestEntityDeletesOpenTheirOwnTx(t *testing.T) {
	db, _ := newTestDB(t)
	u1, u2 := seedUser(t, db, "u1"), seedUser(t, db, "u2")
	a := seedArticle(t, db, "http://a", "h")
	ua := seedUserArticle(t, db, u1.ID, a.ID)
	opts := testOptions(time.Millisecond)
	ctx := context.Background()

	links := NewUserArticleRepository(db, opts)
	deleted, err := links.Delete(ctx, ua.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, ua.ID, deleted.ID)
	_, err = links.Delete(ctx, ua.ID, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	friends := NewUserFriendRepository(db, opts)
	edge, err := friends.Follow(ctx, u1.ID, u2.ID, nil)
	require.NoError(t, err)
	_, err = friends.Delete(ctx, edge.ID, nil)
	require.NoError(t, err)
	ok, err := friends.IsFollowing(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	uploads := NewUploadFileRepository(db, opts)
	f, err := uploads.Create(ctx, &model.UploadFileCreate{UserID: u1.ID, URL: "s3://f", FileName: "f.pdf"}, nil)
	require.NoError(t, err)
	_, err = uploads.Delete(ctx, f.ID, nil)
	require.NoError(t, err)

	requests := NewArticleSavingRequestRepository(db, opts)
	req, err := requests.Create(ctx, &model.ArticleSavingRequestCreate{UserID: u1.ID, URL: "http://a"}, nil)
	require.NoError(t, err)
	_, err = requests.Delete(ctx, req.ID, nil)
	require.NoError(t, err)

	users := NewUserRepository(db, opts)
	_, err = users.Delete(ctx, u2.ID, nil)
	require.NoError(t, err)
	_, err = users.Get(ctx, u2.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompositeLoaderReleasesTuples(t *testing.T) {
	db, _ := newTestDB(t)
	u := seedUser(t, db, "u1")
	a := seedArticle(t, db, "http://a", "h")
	seedUserArticle(t, db, u.ID, a.ID)
	repo := NewUserArticleRepository(db, testOptions(time.Millisecond))
	ctx := context.Background()

	_, err := repo.GetByUserAndArticle(ctx, u.ID, a.ID)
	require.NoError(t, err)
	_, err = repo.GetByUserAndArticle(ctx, u.ID, a.ID)
	require.NoError(t, err)
	_, errs := repo.GetManyByUserAndArticle(ctx, []model.UserArticleKey{
		{UserID: u.ID, ArticleID: a.ID},
		{UserID: u.ID, ArticleID: 999},
	})
	require.Len(t, errs, 2)

	l := repo.byUserArticle
	l.mu.Lock()
	pending := len(l.parts)
	l.mu.Unlock()
	assert.Zero(t, pending)
}
