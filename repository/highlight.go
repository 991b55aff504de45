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

var notDeleted = &Scope{Query: "NOT deleted"}

// HighlightRepository stores highlights. Deleted highlights stay in the table
// and are invisible to every read.
type HighlightRepository struct {
	*Base[model.Highlight, model.HighlightCreate, model.HighlightUpdate]
	byArticle *ForeignKeyLoader[int64, model.Highlight]
}

// NewHighlightRepository returns a highlight repository that hides deleted rows.
func NewHighlightRepository(db *bun.DB, opts Options) *HighlightRepository {
	return &HighlightRepository{
		Base: NewBase[model.Highlight, model.HighlightCreate, model.HighlightUpdate](db, BaseConfig[model.Highlight]{
			Name:    "highlights",
			Scope:   notDeleted,
			Visible: func(h model.Highlight) bool { return !h.Deleted },
		}, opts),
		byArticle: NewForeignKeyLoader(db, ForeignKeyConfig[int64, model.Highlight]{
			Name:   "highlights_by_article",
			Column: "article_id",
			KeyOf:  func(h model.Highlight) int64 { return h.ArticleID },
			Scope:  notDeleted,
		}, opts),
	}
}

// GetByShortID returns the visible highlight with the public short id.
func (r *HighlightRepository) GetByShortID(ctx context.Context, shortID string, tx *bun.Tx) (*model.Highlight, error) {
	var h model.Highlight
	err := r.scoped(conn(r.db, tx).NewSelect().Model(&h)).
		Where("?TableAlias.short_id = ?", shortID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("highlight %q: %w", shortID, translateNoRows(err))
	}
	r.Prime(h.ID, h)
	return &h, nil
}

// ListByArticle returns the article's highlights of every user, newest first.
func (r *HighlightRepository) ListByArticle(ctx context.Context, articleID int64) ([]model.Highlight, error) {
	return r.byArticle.Load(ctx, articleID)
}

// ListByUserAndArticle returns the user's highlights on the article.
func (r *HighlightRepository) ListByUserAndArticle(ctx context.Context, userID, articleID int64) ([]model.Highlight, error) {
	all, err := r.byArticle.Load(ctx, articleID)
	if err != nil {
		return nil, err
	}
	own := make([]model.Highlight, 0, len(all))
	for _, h := range all {
		if h.UserID == userID {
			own = append(own, h)
		}
	}
	return own, nil
}

// Delete flags the highlight deleted and returns its final state.
func (r *HighlightRepository) Delete(ctx context.Context, id int64, tx *bun.Tx) (row *model.Highlight, err error) {
	defer r.track("delete", time.Now(), &err)
	return r.update(ctx, id, []columnValue{{"deleted", true}}, tx)
}
