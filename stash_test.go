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
package stash

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/stash/database"
	"github.com/tomoncle/stash/model"
	"github.com/tomoncle/stash/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newMigratedDB(t *testing.T) *bun.DB {
	t.Helper()
	RegisterModels()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	mm := database.NewMigrationManager(db, nil, database.MigrateConfig{})
	require.NoError(t, mm.RunMigrations(context.Background()))
	return db
}

func TestRegisterModelsOrder(t *testing.T) {
	RegisterModels()
	RegisterModels()
	instances := database.RegisteredModelInstances()
	require.GreaterOrEqual(t, len(instances), len(model.Models()))
	assert.IsType(t, (*model.User)(nil), instances[0])
}

func TestRepositoriesSaveFlow(t *testing.T) {
	db := newMigratedDB(t)
	metrics := repository.NewMemoryMetrics()
	repos := New(db, WithMetrics(metrics), WithLoaderConfig(database.LoaderConfig{BatchWait: time.Millisecond}))
	ctx := context.Background()

	var link *model.UserArticle
	err := repos.RunInTx(ctx, func(ctx context.Context, tx *bun.Tx) error {
		u, err := repos.Users.CreateWithProfile(ctx, &model.NewUserInput{
			User:     model.UserCreate{Name: "Ann", Email: "ann@example.com", Source: "EMAIL", SourceUserID: "ann"},
			Username: "ann",
		}, tx)
		if err != nil {
			return err
		}
		a, err := repos.Articles.Upsert(ctx, &model.ArticleCreate{Title: "T", URL: "http://t", Hash: "h", Content: "c"}, tx)
		if err != nil {
			return err
		}
		link, err = repos.UserArticles.Create(ctx, &model.UserArticleCreate{UserID: u.ID, ArticleID: a.ID, Slug: "t"}, tx)
		return err
	})
	require.NoError(t, err)

	got, err := repos.UserArticles.GetByUserAndArticle(ctx, link.UserID, link.ArticleID)
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)

	stats, err := repos.UserArticles.Stats(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ArticleStats{ID: link.ID}, stats)
	assert.EqualValues(t, 1, metrics.Counter("stash.article_stats.batch.calls"))

	repos.ClearAll()
	article, err := repos.Articles.Get(ctx, link.ArticleID)
	require.NoError(t, err)
	assert.Equal(t, "http://t", article.URL)
	assert.Same(t, db, repos.DB())
}
