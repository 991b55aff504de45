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

// UploadFile is a user-uploaded document waiting to become an Article.
type UploadFile struct {
	bun.BaseModel `bun:"table:upload_files,alias:uf"`

	ID          int64            `bun:"id,pk,autoincrement" json:"id"`
	UserID      int64            `bun:"user_id,notnull" json:"userId"`
	URL         string           `bun:"url,notnull" json:"url"`
	FileName    string           `bun:"file_name,notnull" json:"fileName"`
	ContentType string           `bun:"content_type,notnull" json:"contentType"`
	Status      UploadFileStatus `bun:"status,notnull,default:'PENDING'" json:"status"`
	CreatedAt   time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time        `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (u UploadFile) GetID() int64 { return u.ID }

type UploadFileCreate struct {
	bun.BaseModel `bun:"table:upload_files,alias:uf"`

	UserID      int64            `bun:"user_id"`
	URL         string           `bun:"url"`
	FileName    string           `bun:"file_name"`
	ContentType string           `bun:"content_type"`
	Status      UploadFileStatus `bun:"status"`
}

type UploadFileUpdate struct {
	URL    *string           `bun:"url"`
	Status *UploadFileStatus `bun:"status"`
}
