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
	"math"
	"time"

	"github.com/tomoncle/stash/model"
	"github.com/uptrace/bun"
)

// UserArticleRepository stores saved links, unique by (user_id, article_id).
type UserArticleRepository struct {
	*Base[model.UserArticle, model.UserArticleCreate, model.UserArticleUpdate]
	byUserArticle *CompositeLoader[model.UserArticle]
	byUser        *ForeignKeyLoader[int64, model.UserArticle]
	byArticle     *ForeignKeyLoader[int64, model.UserArticle]
	stats         *ArticleStatsLoader
}

// NewUserArticleRepository returns a saved link repository with its own
// caches and loaders.
func NewUserArticleRepository(db *bun.DB, opts Options) *UserArticleRepository {
	byUserArticle := NewCompositeLoader(db, CompositeConfig[model.UserArticle]{
		Name:    "user_articles_by_user_article",
		Fields:  []string{"user_id", "article_id"},
		PartsOf: func(ua model.UserArticle) []interface{} { return []interface{}{ua.UserID, ua.ArticleID} },
	}, opts)
	return &UserArticleRepository{
		Base: NewBase[model.UserArticle, model.UserArticleCreate, model.UserArticleUpdate](db, BaseConfig[model.UserArticle]{
			Name:    "user_articles",
			OnWrite: byUserArticle.Sync,
		}, opts),
		byUserArticle: byUserArticle,
		byUser: NewForeignKeyLoader(db, ForeignKeyConfig[int64, model.UserArticle]{
			Name:   "user_articles_by_user",
			Column: "user_id",
			KeyOf:  func(ua model.UserArticle) int64 { return ua.UserID },
			Order:  "saved_at DESC",
		}, opts),
		byArticle: NewForeignKeyLoader(db, ForeignKeyConfig[int64, model.UserArticle]{
			Name:   "user_articles_by_article",
			Column: "article_id",
			KeyOf:  func(ua model.UserArticle) int64 { return ua.ArticleID },
		}, opts),
		stats: NewArticleStatsLoader(db, opts),
	}
}

// GetByUserAndArticle loads a link by its natural key through a batch loader.
func (r *UserArticleRepository) GetByUserAndArticle(ctx context.Context, userID, articleID int64) (*model.UserArticle, error) {
	ua, err := r.byUserArticle.Load(ctx, userID, articleID)
	if err != nil {
		return nil, err
	}
	r.Prime(ua.ID, ua)
	return &ua, nil
}

// GetManyByUserAndArticle loads several links in one batch, in input order.
func (r *UserArticleRepository) GetManyByUserAndArticle(ctx context.Context, keys []model.UserArticleKey) ([]*model.UserArticle, []error) {
	tuples := make([][]interface{}, len(keys))
	for i, k := range keys {
		tuples[i] = []interface{}{k.UserID, k.ArticleID}
	}
	values, errs := r.byUserArticle.LoadMany(ctx, tuples)
	rows := make([]*model.UserArticle, len(keys))
	for i := range values {
		if errs != nil && errs[i] != nil {
			continue
		}
		r.Prime(values[i].ID, values[i])
		rows[i] = &values[i]
	}
	return rows, errs
}

// GetByUserAndSlug returns the user's newest link with slug.
func (r *UserArticleRepository) GetByUserAndSlug(ctx context.Context, userID int64, slug string, tx *bun.Tx) (*model.UserArticle, error) {
	var ua model.UserArticle
	err := conn(r.db, tx).NewSelect().Model(&ua).
		Where("?TableAlias.user_id = ? AND ?TableAlias.slug = ?", userID, slug).
		OrderExpr("?TableAlias.saved_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("user_article of user %d with slug %q: %w", userID, slug, translateNoRows(err))
	}
	r.Prime(ua.ID, ua)
	return &ua, nil
}

// ListByUser returns the user's links, most recently saved first.
func (r *UserArticleRepository) ListByUser(ctx context.Context, userID int64) ([]model.UserArticle, error) {
	return r.byUser.Load(ctx, userID)
}

// ListByArticle returns every user's link to the article.
func (r *UserArticleRepository) ListByArticle(ctx context.Context, articleID int64) ([]model.UserArticle, error) {
	return r.byArticle.Load(ctx, articleID)
}

// ListByArticles batches ListByArticle for several articles.
func (r *UserArticleRepository) ListByArticles(ctx context.Context, articleIDs []int64) ([][]model.UserArticle, []error) {
	return r.byArticle.LoadMany(ctx, articleIDs)
}

// Create saves the link, stamping SavedAt when unset. It opens a transaction
// when tx is nil.
func (r *UserArticleRepository) Create(ctx context.Context, payload *model.UserArticleCreate, tx *bun.Tx) (*model.UserArticle, error) {
	if payload.SavedAt.IsZero() {
		payload.SavedAt = time.Now()
	}
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.UserArticle, error) {
		return r.Base.Create(ctx, payload, tx)
	})
}

// Update writes payload in tx, or in a transaction of its own.
func (r *UserArticleRepository) Update(ctx context.Context, id int64, payload *model.UserArticleUpdate, tx *bun.Tx) (*model.UserArticle, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.UserArticle, error) {
		return r.Base.Update(ctx, id, payload, tx)
	})
}

// Delete removes the link in tx, or in a transaction of its own.
func (r *UserArticleRepository) Delete(ctx context.Context, id int64, tx *bun.Tx) (*model.UserArticle, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.UserArticle, error) {
		return r.Base.Delete(ctx, id, tx)
	})
}

// SetArchived stamps archived_at with the current time or clears it.
func (r *UserArticleRepository) SetArchived(ctx context.Context, id int64, archived bool, tx *bun.Tx) (row *model.UserArticle, err error) {
	defer r.track("set_archived", time.Now(), &err)
	var at interface{}
	if archived {
		at = time.Now()
	}
	return r.update(ctx, id, []columnValue{{"archived_at", at}}, tx)
}

// SetReadingProgress records how far the user has read. Percent is clamped to
// [0, 100] and never moves backwards unless force is set.
func (r *UserArticleRepository) SetReadingProgress(ctx context.Context, id int64, percent float64, anchorIndex int, force bool, tx *bun.Tx) (row *model.UserArticle, err error) {
	defer r.track("set_reading_progress", time.Now(), &err)
	percent = math.Max(0, math.Min(100, percent))

	err = WithTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) error {
		var current model.UserArticle
		if err := tx.NewSelect().Model(&current).Where("?TableAlias.id = ?", id).Scan(ctx); err != nil {
			return r.notFound(id, err)
		}
		if !force && percent < current.ReadingProgressPercent {
			row = &current
			return nil
		}
		row, err = r.update(ctx, id, []columnValue{
			{"reading_progress_percent", percent},
			{"reading_progress_anchor_index", anchorIndex},
		}, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Stats returns the highlight and annotation counts of a link.
func (r *UserArticleRepository) Stats(ctx context.Context, id int64) (model.ArticleStats, error) {
	return r.stats.Load(ctx, id)
}

// StatsMany batches Stats for several links.
func (r *UserArticleRepository) StatsMany(ctx context.Context, ids []int64) ([]model.ArticleStats, []error) {
	return r.stats.LoadMany(ctx, ids)
}

// CountByUser counts the user's links, archived ones only when archived is
// true and unarchived ones otherwise. A nil archived counts both.
func (r *UserArticleRepository) CountByUser(ctx context.Context, userID int64, archived *bool, tx *bun.Tx) (int, error) {
	q := conn(r.db, tx).NewSelect().Model((*model.UserArticle)(nil)).
		Where("?TableAlias.user_id = ?", userID)
	if archived != nil {
		if *archived {
			q = q.Where("?TableAlias.archived_at IS NOT NULL")
		} else {
			q = q.Where("?TableAlias.archived_at IS NULL")
		}
	}
	n, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count user_articles of user %d: %w", userID, err)
	}
	return n, nil
}

// ClearAll empties the id and natural key caches.
func (r *UserArticleRepository) ClearAll() {
	r.Base.ClearAll()
	r.byUserArticle.ClearAll()
}
