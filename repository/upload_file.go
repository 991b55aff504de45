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
	"time"

	"github.com/tomoncle/stash/model"
	"github.com/uptrace/bun"
)

// UploadFileRepository stores files uploaded for import.
type UploadFileRepository struct {
	*Base[model.UploadFile, model.UploadFileCreate, model.UploadFileUpdate]
}

// NewUploadFileRepository returns an upload repository with its own cache.
func NewUploadFileRepository(db *bun.DB, opts Options) *UploadFileRepository {
	return &UploadFileRepository{
		Base: NewBase[model.UploadFile, model.UploadFileCreate, model.UploadFileUpdate](db, BaseConfig[model.UploadFile]{Name: "upload_files"}, opts),
	}
}

// Create inserts the upload, PENDING unless a status is given.
func (r *UploadFileRepository) Create(ctx context.Context, payload *model.UploadFileCreate, tx *bun.Tx) (*model.UploadFile, error) {
	if payload.Status == "" {
		payload.Status = model.UploadFilePending
	}
	return r.Base.Create(ctx, payload, tx)
}

// Delete removes the upload in tx, or in a transaction of its own.
func (r *UploadFileRepository) Delete(ctx context.Context, id int64, tx *bun.Tx) (*model.UploadFile, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.UploadFile, error) {
		return r.Base.Delete(ctx, id, tx)
	})
}

// Complete marks the upload COMPLETED.
func (r *UploadFileRepository) Complete(ctx context.Context, id int64, tx *bun.Tx) (row *model.UploadFile, err error) {
	defer r.track("complete", time.Now(), &err)
	return r.update(ctx, id, []columnValue{{"status", model.UploadFileCompleted}}, tx)
}

// ListPending returns the user's PENDING uploads, oldest first.
func (r *UploadFileRepository) ListPending(ctx context.Context, userID int64, tx *bun.Tx) ([]*model.UploadFile, error) {
	var rows []model.UploadFile
	err := conn(r.db, tx).NewSelect().Model(&rows).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.status = ?", model.UploadFilePending).
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC").
		Limit(r.opts.Loader.MaxRows).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.primeAll(rows), nil
}
