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

	"github.com/tomoncle/stash/types"
	"github.com/uptrace/bun"
)

// Article is a canonicalized saved document shared by every user who saved
// the same url and content hash.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID           int64            `bun:"id,pk,autoincrement" json:"id"`
	Title        string           `bun:"title,notnull" json:"title"`
	URL          string           `bun:"url,notnull,unique:uk_articles_url_hash" json:"url"`
	Hash         string           `bun:"hash,notnull,unique:uk_articles_url_hash" json:"hash"`
	Content      string           `bun:"content,notnull" json:"content"`
	Description  string           `bun:"description" json:"description"`
	Author       string           `bun:"author" json:"author"`
	SiteName     string           `bun:"site_name" json:"siteName"`
	Image        string           `bun:"image" json:"image"`
	UploadFileID *int64           `bun:"upload_file_id" json:"uploadFileId"`
	Metadata     types.JsonObject `bun:"metadata,type:json" json:"metadata"`
	CreatedAt    time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (a Article) GetID() int64 { return a.ID }

// ArticleCreate holds the creatable columns of an Article.
type ArticleCreate struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	Title        string           `bun:"title"`
	URL          string           `bun:"url"`
	Hash         string           `bun:"hash"`
	Content      string           `bun:"content"`
	Description  string           `bun:"description"`
	Author       string           `bun:"author"`
	SiteName     string           `bun:"site_name"`
	Image        string           `bun:"image"`
	UploadFileID *int64           `bun:"upload_file_id"`
	Metadata     types.JsonObject `bun:"metadata,type:json"`
}

// ArticleUpdate holds the updatable columns of an Article. Nil fields are left
// untouched.
type ArticleUpdate struct {
	Title        *string          `bun:"title"`
	Content      *string          `bun:"content"`
	Hash         *string          `bun:"hash"`
	Description  *string          `bun:"description"`
	Author       *string          `bun:"author"`
	SiteName     *string          `bun:"site_name"`
	Image        *string          `bun:"image"`
	UploadFileID *int64           `bun:"upload_file_id"`
	Metadata     types.JsonObject `bun:"metadata"`
}
