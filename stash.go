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
package stash

import (
	"context"
	"sync"

	"github.com/tomoncle/stash/database"
	"github.com/tomoncle/stash/model"
	"github.com/tomoncle/stash/repository"
	"github.com/uptrace/bun"
)

var registerOnce sync.Once

// RegisterModels adds every stash table to the database model registry so
// migrations create them in dependency order. It is safe to call repeatedly.
func RegisterModels() {
	registerOnce.Do(func() { database.RegisterModels(model.Models()...) })
}

// Option customizes the repositories built by New.
type Option func(*repository.Options)

// WithMetrics reports batch and write timings to m.
func WithMetrics(m repository.Metrics) Option {
	return func(o *repository.Options) { o.Metrics = m }
}

func WithLogger(l database.Logger) Option {
	return func(o *repository.Options) { o.Logger = l }
}

// WithLoaderConfig overrides the batch window, batch size and cache settings.
func WithLoaderConfig(c database.LoaderConfig) Option {
	return func(o *repository.Options) { o.Loader = c }
}

// Repositories bundles one repository per table. Caches live as long as the
// bundle, so build one per request.
type Repositories struct {
	db *bun.DB

	Articles              *repository.ArticleRepository
	UserArticles          *repository.UserArticleRepository
	Highlights            *repository.HighlightRepository
	Reactions             *repository.ReactionRepository
	Reminders             *repository.ReminderRepository
	UploadFiles           *repository.UploadFileRepository
	Users                 *repository.UserRepository
	UserFriends           *repository.UserFriendRepository
	ArticleSavingRequests *repository.ArticleSavingRequestRepository
}

// New returns a fresh bundle on db.
func New(db *bun.DB, opts ...Option) *Repositories {
	o := repository.DefaultOptions()
	if cfg := database.GetConfig(); cfg != nil {
		o.Loader = cfg.Loader
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repositories{
		db:                    db,
		Articles:              repository.NewArticleRepository(db, o),
		UserArticles:          repository.NewUserArticleRepository(db, o),
		Highlights:            repository.NewHighlightRepository(db, o),
		Reactions:             repository.NewReactionRepository(db, o),
		Reminders:             repository.NewReminderRepository(db, o),
		UploadFiles:           repository.NewUploadFileRepository(db, o),
		Users:                 repository.NewUserRepository(db, o),
		UserFriends:           repository.NewUserFriendRepository(db, o),
		ArticleSavingRequests: repository.NewArticleSavingRequestRepository(db, o),
	}
}

// FromGlobal returns a fresh bundle on the pool opened by database.InitDB.
func FromGlobal(opts ...Option) *Repositories {
	return New(database.GetDB(), opts...)
}

func (r *Repositories) DB() *bun.DB { return r.db }

// RunInTx runs fn in a new transaction committed when fn returns nil. fn must
// pass tx to every repository call that should join it.
func (r *Repositories) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *bun.Tx) error) error {
	return repository.WithTx(ctx, r.db, nil, fn)
}

// ClearAll drops every memoized row, e.g. after rolling back a transaction
// whose writes were cached.
func (r *Repositories) ClearAll() {
	r.Articles.ClearAll()
	r.UserArticles.ClearAll()
	r.Highlights.ClearAll()
	r.Reactions.ClearAll()
	r.Reminders.ClearAll()
	r.UploadFiles.ClearAll()
	r.Users.ClearAll()
	r.UserFriends.ClearAll()
	r.ArticleSavingRequests.ClearAll()
}
