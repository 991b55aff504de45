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

// Reaction targets exactly one of a UserArticle or a Highlight.
type Reaction struct {
	bun.BaseModel `bun:"table:reactions,alias:r"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id,notnull" json:"userId"`
	UserArticleID *int64    `bun:"user_article_id" json:"userArticleId"`
	HighlightID   *int64    `bun:"highlight_id" json:"highlightId"`
	Code          string    `bun:"code,notnull" json:"code"`
	Deleted       bool      `bun:"deleted,notnull,default:false" json:"deleted"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (r Reaction) GetID() int64 { return r.ID }

type ReactionCreate struct {
	bun.BaseModel `bun:"table:reactions,alias:r"`

	UserID        int64  `bun:"user_id"`
	UserArticleID *int64 `bun:"user_article_id"`
	HighlightID   *int64 `bun:"highlight_id"`
	Code          string `bun:"code"`
}

// HasSingleTarget reports whether exactly one target id is set.
func (c ReactionCreate) HasSingleTarget() bool {
	return (c.UserArticleID == nil) != (c.HighlightID == nil)
}

type ReactionUpdate struct {
	Code    *string `bun:"code"`
	Deleted *bool   `bun:"deleted"`
}
