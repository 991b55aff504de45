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

package dataloader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned for a key the batch query did not produce a row for.
	ErrNotFound = errors.New("dataloader: not found")

	// ErrCountMismatch is returned to every caller of a batch when StrictCount is
	// enabled and the fetched row count differs from the distinct key count.
	ErrCountMismatch = errors.New("dataloader: batch result count mismatch")
)

// DefaultWait is the batch window used when Config.Wait is zero.
const DefaultWait = time.Millisecond

// FetchFunc resolves a batch of distinct keys with a single query.
type FetchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, error)

// Config describes how a Loader fetches and keys its values.
type Config[K comparable, V any] struct {
	// Name identifies the loader in logs.
	Name string

	// Fetch runs one query for a whole batch.
	Fetch FetchFunc[K, V]

	// KeyOf extracts the key a fetched value answers.
	KeyOf func(V) K

	// Wait is how long a batch stays open for more keys after the first one.
	Wait time.Duration

	// MaxBatch caps the number of distinct keys per batch, 0 means unlimited.
	MaxBatch int

	// DisableCache turns off memoization across batches.
	DisableCache bool

	// StrictCount fails the batch on a row count mismatch instead of logging it.
	StrictCount bool

	Logger Logger
}

// Loader coalesces concurrent lookups into batches and memoizes the results
// for its own lifetime. A Loader is meant to live for one unit of work.
type Loader[K comparable, V any] struct {
	cfg Config[K, V]

	mu    sync.Mutex
	cache map[K]V
	batch *batch[K, V]

	// epoch and cleared count evictions so a batch that was in flight
	// during a Clear does not cache what it read before it.
	epoch   uint64
	cleared map[K]uint64
}

type batch[K comparable, V any] struct {
	ctx       context.Context
	keys      []K
	seen      map[K]uint64
	epoch     uint64
	requested int
	results   map[K]V
	err       error
	closing   bool
	done      chan struct{}
}

// New returns a Loader for the given config. Fetch and KeyOf are required.
func New[K comparable, V any](cfg Config[K, V]) *Loader[K, V] {
	if cfg.Fetch == nil || cfg.KeyOf == nil {
		panic("dataloader: Fetch and KeyOf are required")
	}
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultWait
	}
	if cfg.Logger == nil {
		cfg.Logger = defaultLogger()
	}
	if cfg.Name == "" {
		cfg.Name = "loader"
	}
	return &Loader[K, V]{cfg: cfg}
}

// Load returns the value for key, batching it with other keys requested
// within the same window.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	return l.LoadThunk(ctx, key)()
}

// LoadThunk enqueues key and returns a function that blocks until the value
// is available. Every thunk created before the window closes shares a batch.
func (l *Loader[K, V]) LoadThunk(ctx context.Context, key K) func() (V, error) {
	l.mu.Lock()
	if v, ok := l.cached(key); ok {
		l.mu.Unlock()
		return func() (V, error) { return v, nil }
	}
	b := l.enqueue(ctx, key)
	l.mu.Unlock()

	return func() (V, error) {
		<-b.done
		var zero V
		if b.err != nil {
			return zero, b.err
		}
		v, ok := b.results[key]
		if !ok {
			return zero, ErrNotFound
		}
		return v, nil
	}
}

// LoadMany loads every key and returns the values in input order. errs is nil
// when every key resolved, otherwise it has one entry per key.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) ([]V, []error) {
	return l.LoadManyThunk(ctx, keys)()
}

// LoadManyThunk enqueues all keys at once and returns a function waiting for them.
func (l *Loader[K, V]) LoadManyThunk(ctx context.Context, keys []K) func() ([]V, []error) {
	thunks := make([]func() (V, error), len(keys))
	for i, key := range keys {
		thunks[i] = l.LoadThunk(ctx, key)
	}
	return func() ([]V, []error) {
		values := make([]V, len(keys))
		var errs []error
		for i, thunk := range thunks {
			v, err := thunk()
			values[i] = v
			if err != nil {
				if errs == nil {
					errs = make([]error, len(keys))
				}
				errs[i] = err
			}
		}
		return values, errs
	}
}

// Prime stores value for key unless the key is already cached. It returns
// false when nothing was stored. To overwrite, Clear the key first.
func (l *Loader[K, V]) Prime(key K, value V) bool {
	if l.cfg.DisableCache {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[key]; ok {
		return false
	}
	l.set(key, value)
	return true
}

// ForcePrime stores value for key, replacing any cached value.
func (l *Loader[K, V]) ForcePrime(key K, value V) {
	if l.cfg.DisableCache {
		return
	}
	l.mu.Lock()
	l.set(key, value)
	l.mu.Unlock()
}

// Clear evicts key so the next Load queries again.
func (l *Loader[K, V]) Clear(key K) {
	l.mu.Lock()
	delete(l.cache, key)
	if l.cleared == nil {
		l.cleared = make(map[K]uint64)
	}
	l.cleared[key]++
	l.mu.Unlock()
}

// ClearAll evicts every memoized value.
func (l *Loader[K, V]) ClearAll() {
	l.mu.Lock()
	l.cache = nil
	l.cleared = nil
	l.epoch++
	l.mu.Unlock()
}

// Name returns the configured loader name.
func (l *Loader[K, V]) Name() string { return l.cfg.Name }

func (l *Loader[K, V]) cached(key K) (V, bool) {
	if l.cfg.DisableCache {
		var zero V
		return zero, false
	}
	v, ok := l.cache[key]
	return v, ok
}

func (l *Loader[K, V]) set(key K, value V) {
	if l.cache == nil {
		l.cache = make(map[K]V)
	}
	l.cache[key] = value
}

// enqueue must be called with l.mu held.
func (l *Loader[K, V]) enqueue(ctx context.Context, key K) *batch[K, V] {
	if l.batch == nil {
		l.batch = &batch[K, V]{
			ctx:   ctx,
			seen:  make(map[K]uint64),
			epoch: l.epoch,
			done:  make(chan struct{}),
		}
	}
	b := l.batch
	b.requested++
	if _, ok := b.seen[key]; !ok {
		b.seen[key] = l.cleared[key]
		b.keys = append(b.keys, key)
		if len(b.keys) == 1 {
			go l.startTimer(b)
		}
	}
	if l.cfg.MaxBatch > 0 && len(b.keys) >= l.cfg.MaxBatch {
		if !b.closing {
			b.closing = true
			l.batch = nil
			go l.dispatch(b)
		}
	}
	return b
}

func (l *Loader[K, V]) startTimer(b *batch[K, V]) {
	time.Sleep(l.cfg.Wait)
	l.mu.Lock()
	if b.closing {
		l.mu.Unlock()
		return
	}
	b.closing = true
	l.batch = nil
	l.mu.Unlock()

	l.dispatch(b)
}

func (l *Loader[K, V]) dispatch(b *batch[K, V]) {
	defer close(b.done)

	rows, err := l.fetch(b)
	if err != nil {
		b.err = err
		return
	}

	b.results = make(map[K]V, len(rows))
	for _, row := range rows {
		k := l.cfg.KeyOf(row)
		if _, dup := b.results[k]; dup {
			continue
		}
		b.results[k] = row
	}

	if len(rows) != len(b.keys) {
		l.cfg.Logger.Warn("batch result count mismatch",
			"loader", l.cfg.Name,
			"requested", len(b.keys),
			"returned", len(rows),
		)
		if l.cfg.StrictCount {
			b.err = fmt.Errorf("%w: %s requested %d, returned %d", ErrCountMismatch, l.cfg.Name, len(b.keys), len(rows))
			return
		}
	}

	if l.cfg.DisableCache {
		return
	}
	l.mu.Lock()
	for _, k := range b.keys {
		if b.epoch != l.epoch || b.seen[k] != l.cleared[k] {
			continue
		}
		if v, ok := b.results[k]; ok {
			if _, exists := l.cache[k]; !exists {
				l.set(k, v)
			}
		}
	}
	l.mu.Unlock()
}

func (l *Loader[K, V]) fetch(b *batch[K, V]) (rows []V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dataloader: %s fetch panicked: %v", l.cfg.Name, r)
		}
	}()
	return l.cfg.Fetch(b.ctx, b.keys)
}
