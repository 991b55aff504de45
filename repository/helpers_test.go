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
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/stash/database"
	"github.com/tomoncle/stash/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// newTestDB opens a private in-memory database with every stash table and a
// statement counter. A single connection is shared: never read through the
// pool while a test transaction is open.
func newTestDB(t *testing.T) (*bun.DB, *database.QueryCounter) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, m := range model.Models() {
		_, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	counter := database.NewQueryCounter(true)
	db.AddQueryHook(counter)
	return db, counter
}

func testOptions(wait time.Duration) Options {
	return Options{
		Loader:  database.LoaderConfig{BatchWait: wait, MaxRows: 100},
		Metrics: NopMetrics{},
	}
}

func seedUser(t *testing.T, db *bun.DB, name string) *model.User {
	t.Helper()
	u, err := NewUserRepository(db, testOptions(time.Millisecond)).Create(context.Background(), &model.UserCreate{
		Name:         name,
		Email:        name + "@example.com",
		Source:       "EMAIL",
		SourceUserID: name,
	}, nil)
	require.NoError(t, err)
	return u
}

func seedArticle(t *testing.T, db *bun.DB, url, hash string) *model.Article {
	t.Helper()
	a, err := NewArticleRepository(db, testOptions(time.Millisecond)).Create(context.Background(), &model.ArticleCreate{
		Title:   "title of " + url,
		URL:     url,
		Hash:    hash,
		Content: "<p>" + url + "</p>",
	}, nil)
	require.NoError(t, err)
	return a
}

func seedUserArticle(t *testing.T, db *bun.DB, userID, articleID int64) *model.UserArticle {
	t.Helper()
	ua, err := NewUserArticleRepository(db, testOptions(time.Millisecond)).Create(context.Background(), &model.UserArticleCreate{
		UserID:    userID,
		ArticleID: articleID,
		Slug:      "slug",
	}, nil)
	require.NoError(t, err)
	return ua
}

func ptr[T any](v T) *T { return &v }
