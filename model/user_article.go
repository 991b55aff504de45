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

package model

import (
	"time"

	"github.com/uptrace/bun"
)

// UserArticle is one user's saved-link record for an Article.
type UserArticle struct {
	bun.BaseModel `bun:"table:user_articles,alias:ua"`

	ID                         int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID                     int64      `bun:"user_id,notnull,unique:uk_user_articles_user_article" json:"userId"`
	ArticleID                  int64      `bun:"article_id,notnull,unique:uk_user_articles_user_article" json:"articleId"`
	Slug                       string     `bun:"slug,notnull" json:"slug"`
	SavedAt                    time.Time  `bun:"saved_at,nullzero,notnull,default:current_timestamp" json:"savedAt"`
	SharedAt                   *time.Time `bun:"shared_at" json:"sharedAt"`
	ArchivedAt                 *time.Time `bun:"archived_at" json:"archivedAt"`
	ReadingProgressPercent     float64    `bun:"reading_progress_percent,notnull,default:0" json:"readingProgressPercent"`
	ReadingProgressAnchorIndex int        `bun:"reading_progress_anchor_index,notnull,default:0" json:"readingProgressAnchorIndex"`
	CreatedAt                  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt                  time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (u UserArticle) GetID() int64 { return u.ID }

// IsArchived reports whether the link was archived.
func (u UserArticle) IsArchived() bool { return u.ArchivedAt != nil }

type UserArticleCreate struct {
	bun.BaseModel `bun:"table:user_articles,alias:ua"`

	UserID    int64      `bun:"user_id"`
	ArticleID int64      `bun:"article_id"`
	Slug      string     `bun:"slug"`
	SavedAt   time.Time  `bun:"saved_at,nullzero"`
	SharedAt  *time.Time `bun:"shared_at"`
}

// UserArticleUpdate uses bun.NullTime for nullable timestamps: a zero
// NullTime writes NULL.
type UserArticleUpdate struct {
	Slug                       *string       `bun:"slug"`
	SavedAt                    *time.Time    `bun:"saved_at"`
	SharedAt                   *bun.NullTime `bun:"shared_at"`
	ArchivedAt                 *bun.NullTime `bun:"archived_at"`
	ReadingProgressPercent     *float64      `bun:"reading_progress_percent"`
	ReadingProgressAnchorIndex *int          `bun:"reading_progress_anchor_index"`
}

// UserArticleKey is the natural key of a UserArticle.
type UserArticleKey struct {
	UserID    int64
	ArticleID int64
}

// ArticleStats is a derived per-UserArticle count row.
type ArticleStats struct {
	ID               int64 `bun:"id" json:"id"`
	HighlightsCount  int   `bun:"highlights_count" json:"highlightsCount"`
	AnnotationsCount int   `bun:"annotations_count" json:"annotationsCount"`
}
