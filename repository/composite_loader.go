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
	"strings"
	"sync"

	"github.com/tomoncle/stash/dataloader"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// CompositeConfig describes a unique lookup by two or more columns.
type CompositeConfig[E Entity] struct {
	Name string
	// Fields are the key columns in key order.
	Fields []string
	// PartsOf returns the key values of a fetched row in Fields order.
	PartsOf func(E) []interface{}
	Scope   *Scope
}

// CompositeLoader batches lookups of rows identified by a tuple of column
// values. Tuples are serialized with a KeyCodec to key the cache.
type CompositeLoader[E Entity] struct {
	db     *bun.DB
	cfg    CompositeConfig[E]
	codec  dataloader.KeyCodec
	loader *dataloader.Loader[string, E]

	mu sync.Mutex
	// parts holds the tuples of keys with a Load in progress.
	parts map[string]*pendingTuple
	// keys is the last key each row id was seen under.
	keys map[int64]string
}

type pendingTuple struct {
	parts []interface{}
	refs  int
}

// NewCompositeLoader returns a loader keyed by cfg.Fields. It panics on fewer
// than two fields.
func NewCompositeLoader[E Entity](db *bun.DB, cfg CompositeConfig[E], opts Options) *CompositeLoader[E] {
	if len(cfg.Fields) < 2 {
		panic("repository: composite loader needs at least two fields")
	}
	opts = opts.withDefaults()
	l := &CompositeLoader[E]{
		db:    db,
		cfg:   cfg,
		codec: dataloader.NewKeyCodec(),
		parts: make(map[string]*pendingTuple),
		keys:  make(map[int64]string),
	}
	l.loader = dataloader.New(dataloader.Config[string, E]{
		Name:         cfg.Name,
		Fetch:        Instrument(opts.Metrics, "stash."+cfg.Name+".batch", l.fetch),
		KeyOf:        l.keyOf,
		Wait:         opts.Loader.BatchWait,
		MaxBatch:     opts.Loader.MaxBatch,
		DisableCache: opts.Loader.DisableCache,
		StrictCount:  opts.Loader.StrictCount,
		Logger:       opts.Logger,
	})
	return l
}

// keyOf never panics: a stored value that cannot be encoded gets a key no
// request can match. It also records the key of the row id.
func (l *CompositeLoader[E]) keyOf(e E) string {
	key, err := l.codec.Encode(l.cfg.PartsOf(e)...)
	if err != nil {
		return ""
	}
	l.mu.Lock()
	l.keys[e.GetID()] = key
	l.mu.Unlock()
	return key
}

// acquire encodes parts and keeps the tuple until the matching release.
func (l *CompositeLoader[E]) acquire(parts []interface{}) (string, error) {
	if len(parts) != len(l.cfg.Fields) {
		return "", fmt.Errorf("%s: want %d key parts, got %d", l.cfg.Name, len(l.cfg.Fields), len(parts))
	}
	key, err := l.codec.Encode(parts...)
	if err != nil {
		return "", err
	}
	l.mu.Lock()
	p, ok := l.parts[key]
	if !ok {
		p = &pendingTuple{parts: parts}
		l.parts[key] = p
	}
	p.refs++
	l.mu.Unlock()
	return key, nil
}

func (l *CompositeLoader[E]) release(key string) {
	l.mu.Lock()
	if p, ok := l.parts[key]; ok {
		p.refs--
		if p.refs <= 0 {
			delete(l.parts, key)
		}
	}
	l.mu.Unlock()
}

// Load returns the row whose key columns equal parts.
func (l *CompositeLoader[E]) Load(ctx context.Context, parts ...interface{}) (E, error) {
	key, err := l.acquire(parts)
	if err != nil {
		var zero E
		return zero, err
	}
	defer l.release(key)
	return l.loader.Load(ctx, key)
}

// LoadMany resolves several tuples in one batch, in input order.
func (l *CompositeLoader[E]) LoadMany(ctx context.Context, tuples [][]interface{}) ([]E, []error) {
	rows := make([]E, len(tuples))
	var errs []error
	fail := func(i int, err error) {
		if errs == nil {
			errs = make([]error, len(tuples))
		}
		errs[i] = err
	}

	thunks := make([]func() (E, error), len(tuples))
	keys := make([]string, len(tuples))
	for i, t := range tuples {
		key, err := l.acquire(t)
		if err != nil {
			fail(i, err)
			continue
		}
		keys[i] = key
		thunks[i] = l.loader.LoadThunk(ctx, key)
	}
	for i, thunk := range thunks {
		if thunk == nil {
			continue
		}
		r, err := thunk()
		l.release(keys[i])
		if err != nil {
			fail(i, err)
			continue
		}
		rows[i] = r
	}
	return rows, errs
}

// ForcePrime caches row under its own key, replacing any cached value.
func (l *CompositeLoader[E]) ForcePrime(row E) {
	if key := l.keyOf(row); key != "" {
		l.loader.ForcePrime(key, row)
	}
}

// Clear evicts the tuple parts.
func (l *CompositeLoader[E]) Clear(parts ...interface{}) {
	if key, err := l.codec.Encode(parts...); err == nil {
		l.loader.Clear(key)
	}
}

// Sync brings the cache in line with a written row. The key the row id was
// last seen under is evicted, then the row is cached under its current key
// unless it was deleted.
func (l *CompositeLoader[E]) Sync(row E, deleted bool) {
	l.mu.Lock()
	old, ok := l.keys[row.GetID()]
	delete(l.keys, row.GetID())
	l.mu.Unlock()
	if ok {
		l.loader.Clear(old)
	}
	if deleted {
		l.Clear(l.cfg.PartsOf(row)...)
		return
	}
	l.ForcePrime(row)
}

// ClearAll evicts every tuple.
func (l *CompositeLoader[E]) ClearAll() {
	l.loader.ClearAll()
	l.mu.Lock()
	l.keys = make(map[int64]string)
	l.mu.Unlock()
}

func (l *CompositeLoader[E]) fetch(ctx context.Context, keys []string) ([]E, error) {
	l.mu.Lock()
	tuples := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		if p, ok := l.parts[k]; ok {
			tuples = append(tuples, p.parts)
		}
	}
	l.mu.Unlock()
	if len(tuples) == 0 {
		return nil, nil
	}

	expr, args := l.tupleIn(tuples)
	var rows []E
	q := l.db.NewSelect().Model(&rows).Where(expr, args...)
	if l.cfg.Scope != nil {
		q = q.Where(l.cfg.Scope.Query, l.cfg.Scope.Args...)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

// tupleIn renders "(a, b) IN (VALUES (?, ?), ...)", or the bare row list form
// on MySQL which has no VALUES table constructor in this position.
func (l *CompositeLoader[E]) tupleIn(tuples [][]interface{}) (string, []interface{}) {
	n := len(l.cfg.Fields)
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"

	args := make([]interface{}, 0, n+n*len(tuples))
	for _, f := range l.cfg.Fields {
		args = append(args, bun.Ident(f))
	}
	rows := make([]string, len(tuples))
	for i, t := range tuples {
		rows[i] = placeholders
		args = append(args, t...)
	}

	list := strings.Join(rows, ", ")
	if l.db.Dialect().Name() == dialect.MySQL {
		return placeholders + " IN (" + list + ")", args
	}
	return placeholders + " IN (VALUES " + list + ")", args
}
