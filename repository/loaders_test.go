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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/stash/dataloader"
	"github.com/tomoncle/stash/model"
)

func TestCompositeLoaderBatchesTuples(t *testing.T) {
	db, counter := newTestDB(t)
	u1, u2 := seedUser(t, db, "u1"), seedUser(t, db, "u2")
	a1, a2 := seedArticle(t, db, "http://a1", "h"), seedArticle(t, db, "http://a2", "h")
	row1 := seedUserArticle(t, db, u1.ID, a1.ID)
	row2 := seedUserArticle(t, db, u2.ID, a2.ID)

	repo := NewUserArticleRepository(db, testOptions(50*time.Millisecond))
	counter.Reset()

	type result struct {
		row *model.UserArticle
		err error
	}
	keys := [][2]int64{{u1.ID, a1.ID}, {u2.ID, a2.ID}, {u1.ID, a2.ID}}
	results := make([]result, len(keys))
	var wg sync.WaitGroup
	for i, k := range keys {
		wg.Add(1)
		go func(i int, k [2]int64) {
			defer wg.Done()
			row, err := repo.GetByUserAndArticle(context.Background(), k[0], k[1])
			results[i] = result{row, err}
		}(i, k)
	}
	wg.Wait()

	assert.Equal(t, 1, counter.CountOf("SELECT"))
	require.NoError(t, results[0].err)
	assert.Equal(t, row1.ID, results[0].row.ID)
	require.NoError(t, results[1].err)
	assert.Equal(t, row2.ID, results[1].row.ID)
	assert.ErrorIs(t, results[2].err, ErrNotFound)

	// primed by id as well
	counter.Reset()
	got, err := repo.Get(context.Background(), row2.ID)
	require.NoError(t, err)
	assert.Equal(t, u2.ID, got.UserID)
	assert.Zero(t, counter.Count())
}

func TestCompositeLoaderManyAndCollision(t *testing.T) {
	db, counter := newTestDB(t)
	u := seedUser(t, db, "u1")
	a := seedArticle(t, db, "http://a1", "h")
	row := seedUserArticle(t, db, u.ID, a.ID)
	repo := NewUserArticleRepository(db, testOptions(time.Millisecond))
	counter.Reset()

	rows, errs := repo.GetManyByUserAndArticle(context.Background(), []model.UserArticleKey{
		{UserID: u.ID, ArticleID: a.ID},
		{UserID: u.ID, ArticleID: 999},
	})
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.Equal(t, row.ID, rows[0].ID)
	assert.ErrorIs(t, errs[1], ErrNotFound)
	assert.Equal(t, 1, counter.CountOf("SELECT"))

	articles := NewArticleRepository(db, testOptions(time.Millisecond))
	_, err := articles.GetByURLAndHash(context.Background(), "http://a\x1f", "h")
	assert.ErrorIs(t, err, dataloader.ErrCompositeKeyCollision)
}

func TestArticleByURLAndHash(t *testing.T) {
	db, counter := newTestDB(t)
	repo := NewArticleRepository(db, testOptions(time.Millisecond))
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.ArticleCreate{Title: "A", URL: "http://x", Hash: "h1", Content: "c"}, nil)
	require.NoError(t, err)

	counter.Reset()
	got, err := repo.GetByURLAndHash(ctx, "http://x", "h1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Zero(t, counter.Count(), "primed by create")

	_, err = repo.GetByURLAndHash(ctx, "http://x", "h2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForeignKeyLoaderEmptyGroup(t *testing.T) {
	db, counter := newTestDB(t)
	u1, u2 := seedUser(t, db, "u1"), seedUser(t, db, "u2")
	a1, a2 := seedArticle(t, db, "http://a1", "h"), seedArticle(t, db, "http://a2", "h")
	seedUserArticle(t, db, u1.ID, a1.ID)
	seedUserArticle(t, db, u1.ID, a2.ID)
	seedUserArticle(t, db, u2.ID, a2.ID)

	repo := NewUserArticleRepository(db, testOptions(time.Millisecond))
	counter.Reset()

	groups, errs := repo.ListByArticles(context.Background(), []int64{a1.ID, a2.ID, 999})
	require.Nil(t, errs)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 1)
	assert.Len(t, groups[1], 2)
	require.NotNil(t, groups[2])
	assert.Empty(t, groups[2])
	assert.Equal(t, 1, counter.CountOf("SELECT"))

	none, err := repo.ListByUser(context.Background(), 12345)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	mine, err := repo.ListByUser(context.Background(), u1.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestStatsLoaderSynthesizesZeroRows(t *testing.T) {
	db, counter := newTestDB(t)
	u := seedUser(t, db, "u1")
	a1, a2 := seedArticle(t, db, "http://a1", "h"), seedArticle(t, db, "http://a2", "h")
	ua1 := seedUserArticle(t, db, u.ID, a1.ID)
	ua2 := seedUserArticle(t, db, u.ID, a2.ID)

	highlights := NewHighlightRepository(db, testOptions(time.Millisecond))
	ctx := context.Background()
	for i, note := range []*string{nil, ptr(""), ptr("note")} {
		_, err := highlights.Create(ctx, &model.HighlightCreate{
			ShortID:    "s" + string(rune('a'+i)),
			UserID:     u.ID,
			ArticleID:  a1.ID,
			Quote:      "q",
			Patch:      "p",
			Annotation: note,
		}, nil)
		require.NoError(t, err)
	}
	gone, err := highlights.Create(ctx, &model.HighlightCreate{
		ShortID: "gone", UserID: u.ID, ArticleID: a1.ID, Quote: "q", Patch: "p", Annotation: ptr("x"),
	}, nil)
	require.NoError(t, err)
	_, err = highlights.Delete(ctx, gone.ID, nil)
	require.NoError(t, err)

	repo := NewUserArticleRepository(db, testOptions(time.Millisecond))
	counter.Reset()
	stats, errs := repo.StatsMany(ctx, []int64{ua1.ID, ua2.ID, 999})
	require.Nil(t, errs)
	require.Len(t, stats, 3)
	assert.Equal(t, model.ArticleStats{ID: ua1.ID, HighlightsCount: 3, AnnotationsCount: 1}, stats[0])
	assert.Equal(t, model.ArticleStats{ID: ua2.ID}, stats[1])
	assert.Equal(t, model.ArticleStats{ID: 999}, stats[2])
	assert.Equal(t, 1, counter.CountOf("SELECT"))
}
