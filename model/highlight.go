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

// Highlight is a quoted excerpt with an optional annotation. Deleted rows
// stay in the table with Deleted set.
type Highlight struct {
	bun.BaseModel `bun:"table:highlights,alias:h"`

	ID         int64      `bun:"id,pk,autoincrement" json:"id"`
	ShortID    string     `bun:"short_id,notnull,unique" json:"shortId"`
	UserID     int64      `bun:"user_id,notnull" json:"userId"`
	ArticleID  int64      `bun:"article_id,notnull" json:"articleId"`
	Quote      string     `bun:"quote,notnull" json:"quote"`
	Prefix     string     `bun:"prefix" json:"prefix"`
	Suffix     string     `bun:"suffix" json:"suffix"`
	Patch      string     `bun:"patch,notnull" json:"patch"`
	Annotation *string    `bun:"annotation" json:"annotation"`
	SharedAt   *time.Time `bun:"shared_at" json:"sharedAt"`
	Deleted    bool       `bun:"deleted,notnull,default:false" json:"deleted"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (h Highlight) GetID() int64 { return h.ID }

// HasAnnotation reports whether the highlight carries a non-empty note.
func (h Highlight) HasAnnotation() bool { return h.Annotation != nil && *h.Annotation != "" }

type HighlightCreate struct {
	bun.BaseModel `bun:"table:highlights,alias:h"`

	ShortID    string     `bun:"short_id"`
	UserID     int64      `bun:"user_id"`
	ArticleID  int64      `bun:"article_id"`
	Quote      string     `bun:"quote"`
	Prefix     string     `bun:"prefix"`
	Suffix     string     `bun:"suffix"`
	Patch      string     `bun:"patch"`
	Annotation *string    `bun:"annotation"`
	SharedAt   *time.Time `bun:"shared_at"`
}

type HighlightUpdate struct {
	Quote      *string       `bun:"quote"`
	Prefix     *string       `bun:"prefix"`
	Suffix     *string       `bun:"suffix"`
	Patch      *string       `bun:"patch"`
	Annotation *string       `bun:"annotation"`
	SharedAt   *bun.NullTime `bun:"shared_at"`
	Deleted    *bool         `bun:"deleted"`
}
