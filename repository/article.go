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

var articleUpsertFields = []string{
	"title", "content", "description", "author", "site_name", "image", "upload_file_id", "metadata",
}

// ArticleRepository stores canonical articles. Articles are unique by
// (url, hash); writes open their own transaction when none is given.
type ArticleRepository struct {
	*Base[model.Article, model.ArticleCreate, model.ArticleUpdate]
	byURLHash *CompositeLoader[model.Article]
}

// NewArticleRepository returns an article repository with its own caches.
func NewArticleRepository(db *bun.DB, opts Options) *ArticleRepository {
	byURLHash := NewCompositeLoader(db, CompositeConfig[model.Article]{
		Name:    "articles_by_url_hash",
		Fields:  []string{"url", "hash"},
		PartsOf: func(a model.Article) []interface{} { return []interface{}{a.URL, a.Hash} },
	}, opts)
	return &ArticleRepository{
		Base: NewBase[model.Article, model.ArticleCreate, model.ArticleUpdate](db, BaseConfig[model.Article]{
			Name:    "articles",
			OnWrite: byURLHash.Sync,
		}, opts),
		byURLHash: byURLHash,
	}
}

// GetByURLAndHash loads the article by its natural key through a batch loader.
func (r *ArticleRepository) GetByURLAndHash(ctx context.Context, url, hash string) (*model.Article, error) {
	a, err := r.byURLHash.Load(ctx, url, hash)
	if err != nil {
		return nil, err
	}
	r.Prime(a.ID, a)
	return &a, nil
}

// GetByUploadFileID returns the newest article created from the upload.
func (r *ArticleRepository) GetByUploadFileID(ctx context.Context, uploadFileID int64, tx *bun.Tx) (*model.Article, error) {
	rows, err := r.GetWhereIn(ctx, "UploadFileID", []interface{}{uploadFileID}, tx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("article for upload file %d: %w", uploadFileID, ErrNotFound)
	}
	return rows[0], nil
}

// FindByURL returns every version of url, newest first.
func (r *ArticleRepository) FindByURL(ctx context.Context, url string, tx *bun.Tx) ([]*model.Article, error) {
	rows, err := r.GetWhereIn(ctx, "url", []interface{}{url}, tx)
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		r.byURLHash.ForcePrime(*a)
	}
	return rows, nil
}

// Create inserts the article in tx, or in a transaction of its own.
func (r *ArticleRepository) Create(ctx context.Context, payload *model.ArticleCreate, tx *bun.Tx) (*model.Article, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.Article, error) {
		return r.Base.Create(ctx, payload, tx)
	})
}

// Update writes payload in tx, or in a transaction of its own.
func (r *ArticleRepository) Update(ctx context.Context, id int64, payload *model.ArticleUpdate, tx *bun.Tx) (*model.Article, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.Article, error) {
		return r.Base.Update(ctx, id, payload, tx)
	})
}

// Delete removes the article in tx, or in a transaction of its own.
func (r *ArticleRepository) Delete(ctx context.Context, id int64, tx *bun.Tx) (*model.Article, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.Article, error) {
		return r.Base.Delete(ctx, id, tx)
	})
}

// Upsert inserts payload or refreshes the content of the article already
// stored under the same (url, hash), and returns the stored row.
func (r *ArticleRepository) Upsert(ctx context.Context, payload *model.ArticleCreate, tx *bun.Tx) (row *model.Article, err error) {
	defer r.track("upsert", time.Now(), &err)
	var stored model.Article
	err = WithTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) error {
		if err := r.upsert(ctx, tx, payload, articleUpsertFields, []string{"url", "hash"}); err != nil {
			return err
		}
		return tx.NewSelect().Model(&stored).
			Where("?TableAlias.url = ? AND ?TableAlias.hash = ?", payload.URL, payload.Hash).
			Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("upsert article: %w", err)
	}
	r.primeWrite(stored)
	return &stored, nil
}

// ClearAll empties the id and natural key caches.
func (r *ArticleRepository) ClearAll() {
	r.Base.ClearAll()
	r.byURLHash.ClearAll()
}
