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

// ArticleSavingRequest tracks an asynchronous fetch-and-save job.
type ArticleSavingRequest struct {
	bun.BaseModel `bun:"table:article_saving_requests,alias:asr"`

	ID        int64                      `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64                      `bun:"user_id,notnull" json:"userId"`
	ArticleID *int64                     `bun:"article_id" json:"articleId"`
	URL       string                     `bun:"url,notnull" json:"url"`
	Status    ArticleSavingRequestStatus `bun:"status,notnull,default:'PROCESSING'" json:"status"`
	ErrorCode *string                    `bun:"error_code" json:"errorCode"`
	TaskName  string                     `bun:"task_name" json:"taskName"`
	CreatedAt time.Time                  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time                  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (a ArticleSavingRequest) GetID() int64 { return a.ID }

type ArticleSavingRequestCreate struct {
	bun.BaseModel `bun:"table:article_saving_requests,alias:asr"`

	UserID   int64                      `bun:"user_id"`
	URL      string                     `bun:"url"`
	Status   ArticleSavingRequestStatus `bun:"status"`
	TaskName string                     `bun:"task_name"`
}

type ArticleSavingRequestUpdate struct {
	ArticleID *int64                      `bun:"article_id"`
	Status    *ArticleSavingRequestStatus `bun:"status"`
	ErrorCode *string                     `bun:"error_code"`
	TaskName  *string                     `bun:"task_name"`
}
