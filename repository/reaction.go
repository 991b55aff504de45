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

// ReactionRepository stores reactions on a saved link or on a highlight.
type ReactionRepository struct {
	*Base[model.Reaction, model.ReactionCreate, model.ReactionUpdate]
	byUserArticle *ForeignKeyLoader[int64, model.Reaction]
	byHighlight   *ForeignKeyLoader[int64, model.Reaction]
}

// NewReactionRepository returns a reaction repository that hides deleted rows.
func NewReactionRepository(db *bun.DB, opts Options) *ReactionRepository {
	return &ReactionRepository{
		Base: NewBase[model.Reaction, model.ReactionCreate, model.ReactionUpdate](db, BaseConfig[model.Reaction]{
			Name:    "reactions",
			Scope:   notDeleted,
			Visible: func(r model.Reaction) bool { return !r.Deleted },
		}, opts),
		byUserArticle: NewForeignKeyLoader(db, ForeignKeyConfig[int64, model.Reaction]{
			Name:   "reactions_by_user_article",
			Column: "user_article_id",
			KeyOf:  func(r model.Reaction) int64 { return derefID(r.UserArticleID) },
			Scope:  notDeleted,
		}, opts),
		byHighlight: NewForeignKeyLoader(db, ForeignKeyConfig[int64, model.Reaction]{
			Name:   "reactions_by_highlight",
			Column: "highlight_id",
			KeyOf:  func(r model.Reaction) int64 { return derefID(r.HighlightID) },
			Scope:  notDeleted,
		}, opts),
	}
}

// Create stores a reaction that targets exactly one link or highlight.
func (r *ReactionRepository) Create(ctx context.Context, payload *model.ReactionCreate, tx *bun.Tx) (*model.Reaction, error) {
	if !payload.HasSingleTarget() {
		return nil, ErrInvalidReactionTarget
	}
	return r.Base.Create(ctx, payload, tx)
}

// CreateMany validates every payload before inserting any of them.
func (r *ReactionRepository) CreateMany(ctx context.Context, payloads []*model.ReactionCreate, tx *bun.Tx) ([]*model.Reaction, error) {
	for _, p := range payloads {
		if !p.HasSingleTarget() {
			return nil, ErrInvalidReactionTarget
		}
	}
	return r.Base.CreateMany(ctx, payloads, tx)
}

// ListByUserArticle returns the reactions on a saved link.
func (r *ReactionRepository) ListByUserArticle(ctx context.Context, userArticleID int64) ([]model.Reaction, error) {
	return r.byUserArticle.Load(ctx, userArticleID)
}

// ListByHighlight returns the reactions on a highlight.
func (r *ReactionRepository) ListByHighlight(ctx context.Context, highlightID int64) ([]model.Reaction, error) {
	return r.byHighlight.Load(ctx, highlightID)
}

// Delete flags the reaction deleted and returns its final state.
func (r *ReactionRepository) Delete(ctx context.Context, id int64, tx *bun.Tx) (row *model.Reaction, err error) {
	defer r.track("delete", time.Now(), &err)
	return r.update(ctx, id, []columnValue{{"deleted", true}}, tx)
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
