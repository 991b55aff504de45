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
	"fmt"
	"time"

	"github.com/tomoncle/stash/model"
	"github.com/uptrace/bun"
)

// ArticleSavingRequestRepository tracks fetch-and-save jobs.
type ArticleSavingRequestRepository struct {
	*Base[model.ArticleSavingRequest, model.ArticleSavingRequestCreate, model.ArticleSavingRequestUpdate]
	byUser *ForeignKeyLoader[int64, model.ArticleSavingRequest]
}

// NewArticleSavingRequestRepository returns a saving request repository with
// its own cache and loader.
func NewArticleSavingRequestRepository(db *bun.DB, opts Options) *ArticleSavingRequestRepository {
	return &ArticleSavingRequestRepository{
		Base: NewBase[model.ArticleSavingRequest, model.ArticleSavingRequestCreate, model.ArticleSavingRequestUpdate](
			db, BaseConfig[model.ArticleSavingRequest]{Name: "article_saving_requests"}, opts),
		byUser: NewForeignKeyLoader(db, ForeignKeyConfig[int64, model.ArticleSavingRequest]{
			Name:   "article_saving_requests_by_user",
			Column: "user_id",
			KeyOf:  func(a model.ArticleSavingRequest) int64 { return a.UserID },
		}, opts),
	}
}

// Create inserts the request, PROCESSING unless a status is given.
func (r *ArticleSavingRequestRepository) Create(ctx context.Context, payload *model.ArticleSavingRequestCreate, tx *bun.Tx) (*model.ArticleSavingRequest, error) {
	if payload.Status == "" {
		payload.Status = model.SavingRequestProcessing
	}
	return r.Base.Create(ctx, payload, tx)
}

// Delete removes the request in tx, or in a transaction of its own.
func (r *ArticleSavingRequestRepository) Delete(ctx context.Context, id int64, tx *bun.Tx) (*model.ArticleSavingRequest, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.ArticleSavingRequest, error) {
		return r.Base.Delete(ctx, id, tx)
	})
}

// MarkSucceeded links the request to the saved article and clears any error.
func (r *ArticleSavingRequestRepository) MarkSucceeded(ctx context.Context, id, articleID int64, tx *bun.Tx) (row *model.ArticleSavingRequest, err error) {
	defer r.track("mark_succeeded", time.Now(), &err)
	return r.update(ctx, id, []columnValue{
		{"status", model.SavingRequestSucceeded},
		{"article_id", articleID},
		{"error_code", nil},
	}, tx)
}

// MarkFailed records the failure code.
func (r *ArticleSavingRequestRepository) MarkFailed(ctx context.Context, id int64, code string, tx *bun.Tx) (row *model.ArticleSavingRequest, err error) {
	defer r.track("mark_failed", time.Now(), &err)
	return r.update(ctx, id, []columnValue{
		{"status", model.SavingRequestFailed},
		{"error_code", code},
	}, tx)
}

// ListByUser returns the user's requests, newest first.
func (r *ArticleSavingRequestRepository) ListByUser(ctx context.Context, userID int64) ([]model.ArticleSavingRequest, error) {
	return r.byUser.Load(ctx, userID)
}

// GetByUserAndURL returns the user's newest request for url.
func (r *ArticleSavingRequestRepository) GetByUserAndURL(ctx context.Context, userID int64, url string, tx *bun.Tx) (*model.ArticleSavingRequest, error) {
	var row model.ArticleSavingRequest
	err := conn(r.db, tx).NewSelect().Model(&row).
		Where("?TableAlias.user_id = ? AND ?TableAlias.url = ?", userID, url).
		OrderExpr("?TableAlias.created_at DESC, ?TableAlias.id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("saving request of user %d for %q: %w", userID, url, translateNoRows(err))
	}
	r.Prime(row.ID, row)
	return &row, nil
}
