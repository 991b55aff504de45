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
	"github.com/uptrace/bun"
)

// ForeignKeyConfig describes a one-to-many lookup by a foreign column.
type ForeignKeyConfig[K comparable, E any] struct {
	Name string
	// Column is the foreign key column matched against the loaded keys.
	Column string
	// Columns optionally narrows the projection.
	Columns []string
	// KeyOf returns the foreign key of a fetched row.
	KeyOf func(E) K
	Scope *Scope
	// Order sorts rows within each key, "created_at DESC" when empty.
	Order string
}

type fkGroup[K comparable, E any] struct {
	key  K
	rows []E
}

// ForeignKeyLoader batches "all rows whose Column is k" lookups. It never
// caches: lists go stale on any write to the child table.
type ForeignKeyLoader[K comparable, E any] struct {
	db     *bun.DB
	cfg    ForeignKeyConfig[K, E]
	loader *dataloader.Loader[K, fkGroup[K, E]]
}

// NewForeignKeyLoader returns a non-caching loader of the rows referencing a key.
func NewForeignKeyLoader[K comparable, E any](db *bun.DB, cfg ForeignKeyConfig[K, E], opts Options) *ForeignKeyLoader[K, E] {
	opts = opts.withDefaults()
	if cfg.Order == "" {
		cfg.Order = "created_at DESC"
	}
	l := &ForeignKeyLoader[K, E]{db: db, cfg: cfg}
	l.loader = dataloader.New(dataloader.Config[K, fkGroup[K, E]]{
		Name:         cfg.Name,
		Fetch:        Instrument(opts.Metrics, "stash."+cfg.Name+".batch", l.fetch),
		KeyOf:        func(g fkGroup[K, E]) K { return g.key },
		Wait:         opts.Loader.BatchWait,
		MaxBatch:     opts.Loader.MaxBatch,
		DisableCache: true,
		StrictCount:  opts.Loader.StrictCount,
		Logger:       opts.Logger,
	})
	return l
}

// fetch returns exactly one group per key so the batch count always lines up.
func (l *ForeignKeyLoader[K, E]) fetch(ctx context.Context, keys []K) ([]fkGroup[K, E], error) {
	var rows []E
	q := l.db.NewSelect().Model(&rows).
		Where("?TableAlias.? IN (?)", bun.Ident(l.cfg.Column), bun.In(keys))
	if len(l.cfg.Columns) > 0 {
		q = q.Column(l.cfg.Columns...)
	}
	if l.cfg.Scope != nil {
		q = q.Where(l.cfg.Scope.Query, l.cfg.Scope.Args...)
	}
	if err := q.Order(l.cfg.Order).Scan(ctx); err != nil {
		return nil, err
	}

	byKey := make(map[K][]E, len(keys))
	for _, r := range rows {
		k := l.cfg.KeyOf(r)
		byKey[k] = append(byKey[k], r)
	}
	groups := make([]fkGroup[K, E], len(keys))
	for i, k := range keys {
		rs := byKey[k]
		if rs == nil {
			rs = []E{}
		}
		groups[i] = fkGroup[K, E]{key: k, rows: rs}
	}
	return groups, nil
}

// Load returns the rows referencing key, empty when there are none.
func (l *ForeignKeyLoader[K, E]) Load(ctx context.Context, key K) ([]E, error) {
	g, err := l.loader.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	return g.rows, nil
}

// LoadMany returns one row list per key in input order.
func (l *ForeignKeyLoader[K, E]) LoadMany(ctx context.Context, keys []K) ([][]E, []error) {
	groups, errs := l.loader.LoadMany(ctx, keys)
	out := make([][]E, len(keys))
	for i, g := range groups {
		if errs != nil && errs[i] != nil {
			continue
		}
		out[i] = g.rows
	}
	return out, errs
}
