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
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	ID   int
	Name string
}

type recorder struct {
	mu      sync.Mutex
	batches [][]int
}

func (r *recorder) fetch(_ context.Context, keys []int) ([]user, error) {
	r.mu.Lock()
	r.batches = append(r.batches, append([]int(nil), keys...))
	r.mu.Unlock()
	rows := make([]user, 0, len(keys))
	// reversed and without key 0 to prove distribution is by key
	for i := len(keys) - 1; i >= 0; i-- {
		if keys[i] == 0 {
			continue
		}
		rows = append(rows, user{ID: keys[i], Name: fmt.Sprintf("user-%d", keys[i])})
	}
	return rows, nil
}

func (r *recorder) calls() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int(nil), r.batches...)
}

type warnings struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnings) Warn(msg string, _ ...interface{}) {
	w.mu.Lock()
	w.msgs = append(w.msgs, msg)
	w.mu.Unlock()
}

func (w *warnings) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.msgs)
}

func newUserLoader(r *recorder, mutate ...func(*Config[int, user])) *Loader[int, user] {
	cfg := Config[int, user]{
		Name:   "users",
		Fetch:  r.fetch,
		KeyOf:  func(u user) int { return u.ID },
		Wait:   5 * time.Millisecond,
		Logger: &warnings{},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg)
}

func TestLoadCoalescesConcurrentCalls(t *testing.T) {
	r := &recorder{}
	l := newUserLoader(r)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]user, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := l.Load(ctx, i+1)
			assert.NoError(t, err)
			results[i] = u
		}(i)
	}
	wg.Wait()

	calls := r.calls()
	require.Len(t, calls, 1)
	sort.Ints(calls[0])
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, calls[0])
	for i, u := range results {
		assert.Equal(t, i+1, u.ID)
	}
}

func TestLoadManyDedupsAndKeepsOrder(t *testing.T) {
	r := &recorder{}
	l := newUserLoader(r)

	users, errs := l.LoadMany(context.Background(), []int{3, 1, 3, 2})
	assert.Nil(t, errs)
	want := []user{{3, "user-3"}, {1, "user-1"}, {3, "user-3"}, {2, "user-2"}}
	if diff := cmp.Diff(want, users); diff != "" {
		t.Errorf("LoadMany mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, [][]int{{3, 1, 2}}, r.calls())
}

func TestLoadMissingKeyIsNotFound(t *testing.T) {
	r := &recorder{}
	w := &warnings{}
	l := newUserLoader(r, func(c *Config[int, user]) { c.Logger = w })

	users, errs := l.LoadMany(context.Background(), []int{1, 0})
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], ErrNotFound)
	assert.Equal(t, 1, users[0].ID)
	assert.Equal(t, 1, w.count(), "short batch logs a count mismatch")
}

func TestLoadCachesAcrossBatches(t *testing.T) {
	r := &recorder{}
	l := newUserLoader(r)
	ctx := context.Background()

	_, err := l.Load(ctx, 1)
	require.NoError(t, err)
	_, err = l.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, r.calls(), 1)

	l.Clear(1)
	_, err = l.Load(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, r.calls(), 2)

	_, _ = l.LoadMany(ctx, []int{2, 3})
	l.ClearAll()
	_, _ = l.LoadMany(ctx, []int{1, 2, 3})
	assert.Len(t, r.calls(), 4)
}

func TestDisableCacheAlwaysFetches(t *testing.T) {
	r := &recorder{}
	l := newUserLoader(r, func(c *Config[int, user]) { c.DisableCache = true })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.Load(ctx, 1)
		require.NoError(t, err)
	}
	assert.Len(t, r.calls(), 3)
	assert.False(t, l.Prime(1, user{ID: 1}))
}

func TestPrime(t *testing.T) {
	r := &recorder{}
	l := newUserLoader(r)
	ctx := context.Background()

	assert.True(t, l.Prime(1, user{ID: 1, Name: "primed"}))
	assert.False(t, l.Prime(1, user{ID: 1, Name: "ignored"}))
	u, err := l.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "primed", u.Name)
	assert.Empty(t, r.calls())

	l.ForcePrime(1, user{ID: 1, Name: "forced"})
	u, _ = l.Load(ctx, 1)
	assert.Equal(t, "forced", u.Name)

	l.Clear(1)
	assert.True(t, l.Prime(1, user{ID: 1, Name: "again"}))
}

func TestMaxBatchSplitsBatches(t *testing.T) {
	r := &recorder{}
	l := newUserLoader(r, func(c *Config[int, user]) { c.MaxBatch = 2 })

	users, errs := l.LoadMany(context.Background(), []int{1, 2, 3, 4, 5})
	assert.Nil(t, errs)
	assert.Len(t, users, 5)

	calls := r.calls()
	require.Len(t, calls, 3)
	for _, c := range calls {
		assert.LessOrEqual(t, len(c), 2)
	}
}

func TestThunksShareBatch(t *testing.T) {
	r := &recorder{}
	l := newUserLoader(r)
	ctx := context.Background()

	t1 := l.LoadThunk(ctx, 1)
	t2 := l.LoadManyThunk(ctx, []int{2, 1})
	u1, err := t1()
	require.NoError(t, err)
	us, errs := t2()
	assert.Nil(t, errs)
	assert.Equal(t, 1, u1.ID)
	assert.Equal(t, 2, us[0].ID)
	assert.Len(t, r.calls(), 1)
}

func TestStrictCountFailsBatch(t *testing.T) {
	l := New(Config[int, user]{
		Fetch: func(_ context.Context, keys []int) ([]user, error) {
			return []user{{ID: keys[0]}, {ID: keys[0]}, {ID: 99}}, nil
		},
		KeyOf:       func(u user) int { return u.ID },
		StrictCount: true,
		Logger:      &warnings{},
	})
	_, errs := l.LoadMany(context.Background(), []int{1, 2})
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], ErrCountMismatch)
	assert.ErrorIs(t, errs[1], ErrCountMismatch)
}

func TestCountMismatchIsLoggedByDefault(t *testing.T) {
	w := &warnings{}
	l := New(Config[int, user]{
		Fetch: func(_ context.Context, keys []int) ([]user, error) {
			return []user{{ID: 1, Name: "first"}, {ID: 1, Name: "second"}, {ID: 2}}, nil
		},
		KeyOf:  func(u user) int { return u.ID },
		Logger: w,
	})
	users, errs := l.LoadMany(context.Background(), []int{1, 2})
	assert.Nil(t, errs)
	assert.Equal(t, "first", users[0].Name)
	assert.Equal(t, 1, w.count())
}

func TestFetchErrorReachesEveryCaller(t *testing.T) {
	boom := errors.New("boom")
	l := New(Config[int, user]{
		Fetch: func(context.Context, []int) ([]user, error) { return nil, boom },
		KeyOf: func(u user) int { return u.ID },
	})
	_, errs := l.LoadMany(context.Background(), []int{1, 2})
	require.Len(t, errs, 2)
	assert.ErrorIs(t, errs[0], boom)
	assert.ErrorIs(t, errs[1], boom)

	_, err := l.Load(context.Background(), 1)
	assert.ErrorIs(t, err, boom, "failures are not cached")
}

func TestFetchPanicBecomesError(t *testing.T) {
	l := New(Config[int, user]{
		Name:  "panicky",
		Fetch: func(context.Context, []int) ([]user, error) { panic("bad row") },
		KeyOf: func(u user) int { return u.ID },
	})
	_, err := l.Load(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicky")
}

func TestNewRequiresFetchAndKeyOf(t *testing.T) {
	assert.Panics(t, func() { New(Config[int, user]{}) })
}

// inFlightLoader blocks every fetch until release is closed and signals
// started when one begins.
func inFlightLoader(fetches *int32, started chan<- struct{}, release <-chan struct{}) *Loader[int, user] {
	return New(Config[int, user]{
		Fetch: func(_ context.Context, keys []int) ([]user, error) {
			if atomic.AddInt32(fetches, 1) == 1 {
				close(started)
				<-release
				return []user{{ID: keys[0], Name: "stale"}}, nil
			}
			return []user{{ID: keys[0], Name: "fresh"}}, nil
		},
		KeyOf: func(u user) int { return u.ID },
	})
}

func TestClearDuringFetchIsNotUndone(t *testing.T) {
	var fetches int32
	started, release := make(chan struct{}), make(chan struct{})
	l := inFlightLoader(&fetches, started, release)
	ctx := context.Background()

	done := make(chan user)
	go func() {
		u, _ := l.Load(ctx, 1)
		done <- u
	}()
	<-started
	l.Clear(1)
	close(release)
	assert.Equal(t, "stale", (<-done).Name, "callers of the batch still get its result")

	u, err := l.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "fresh", u.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
}

func TestClearAllDuringFetchIsNotUndone(t *testing.T) {
	var fetches int32
	started, release := make(chan struct{}), make(chan struct{})
	l := inFlightLoader(&fetches, started, release)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		_, _ = l.Load(ctx, 1)
		close(done)
	}()
	<-started
	l.ClearAll()
	close(release)
	<-done

	u, err := l.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "fresh", u.Name)
}
