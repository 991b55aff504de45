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

	"github.com/tomoncle/stash/dataloader"
	"github.com/tomoncle/stash/model"
	"github.com/uptrace/bun"
)

// ArticleStatsLoader batches highlight and annotation counts per saved link.
// Counts cover the link owner's non-deleted highlights on the same article.
type ArticleStatsLoader struct {
	db     *bun.DB
	loader *dataloader.Loader[int64, model.ArticleStats]
}

// NewArticleStatsLoader returns a non-caching stats loader: counts change with
// every highlight write.
func NewArticleStatsLoader(db *bun.DB, opts Options) *ArticleStatsLoader {
	opts = opts.withDefaults()
	l := &ArticleStatsLoader{db: db}
	l.loader = dataloader.New(dataloader.Config[int64, model.ArticleStats]{
		Name:         "article_stats",
		Fetch:        Instrument(opts.Metrics, "stash.article_stats.batch", l.fetch),
		KeyOf:        func(s model.ArticleStats) int64 { return s.ID },
		Wait:         opts.Loader.BatchWait,
		MaxBatch:     opts.Loader.MaxBatch,
		DisableCache: true,
		StrictCount:  opts.Loader.StrictCount,
		Logger:       opts.Logger,
	})
	return l
}

// fetch synthesizes a zero row for ids without a user_articles row.
func (l *ArticleStatsLoader) fetch(ctx context.Context, ids []int64) ([]model.ArticleStats, error) {
	var rows []model.ArticleStats
	err := l.db.NewSelect().
		TableExpr("user_articles AS ua").
		ColumnExpr("ua.id AS id").
		ColumnExpr("COUNT(h.id) AS highlights_count").
		ColumnExpr("COUNT(CASE WHEN h.annotation IS NOT NULL AND h.annotation <> '' THEN 1 END) AS annotations_count").
		Join("LEFT JOIN highlights AS h ON h.user_id = ua.user_id AND h.article_id = ua.article_id AND NOT h.deleted").
		Where("ua.id IN (?)", bun.In(ids)).
		GroupExpr("ua.id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	found := make(map[int64]struct{}, len(rows))
	for _, r := range rows {
		found[r.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			rows = append(rows, model.ArticleStats{ID: id})
		}
	}
	return rows, nil
}

// Load returns the counts of one link, zero when it has no highlights.
func (l *ArticleStatsLoader) Load(ctx context.Context, userArticleID int64) (model.ArticleStats, error) {
	return l.loader.Load(ctx, userArticleID)
}

// LoadMany returns the counts of several links in input order.
func (l *ArticleStatsLoader) LoadMany(ctx context.Context, userArticleIDs []int64) ([]model.ArticleStats, []error) {
	return l.loader.LoadMany(ctx, userArticleIDs)
}
