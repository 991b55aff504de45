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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/stash/model"
	"github.com/tomoncle/stash/types"
	"github.com/uptrace/bun"
)

func TestColumnFor(t *testing.T) {
	db, _ := newTestDB(t)
	for field, want := range map[string]string{
		"ReadingProgressPercent":   "reading_progress_percent",
		"readingProgressPercent":   "reading_progress_percent",
		"reading_progress_percent": "reading_progress_percent",
		"UserID":                   "user_id",
		"userId":                   "user_id",
	} {
		got, err := ColumnFor[model.UserArticle](db, field)
		require.NoError(t, err, field)
		assert.Equal(t, want, got, field)
	}

	_, err := ColumnFor[model.UserArticle](db, "title")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestUpdateColumns(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cols := updateColumns(&model.UserArticleUpdate{
		Slug:       ptr("s"),
		ArchivedAt: &bun.NullTime{},
		SavedAt:    &at,
	})
	want := []columnValue{
		{"slug", "s"},
		{"saved_at", at},
		{"archived_at", bun.NullTime{}},
	}
	assert.Empty(t, cmp.Diff(want, cols, cmp.AllowUnexported(columnValue{})))

	assert.Empty(t, updateColumns(&model.ArticleUpdate{}))
	assert.Empty(t, updateColumns((*model.ArticleUpdate)(nil)))

	cols = updateColumns(&model.ArticleUpdate{Metadata: types.JsonObject{"k": "v"}})
	require.Len(t, cols, 1)
	assert.Equal(t, "metadata", cols[0].column)
}
