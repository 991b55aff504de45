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
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/stash/model"
)

func TestInstrument(t *testing.T) {
	m := NewMemoryMetrics()
	boom := errors.New("boom")
	fn := Instrument(m, "op", func(_ context.Context, n int) (int, error) {
		if n < 0 {
			return 0, boom
		}
		return n * 2, nil
	})

	got, err := fn(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	_, err = fn(context.Background(), -1)
	assert.ErrorIs(t, err, boom)

	assert.EqualValues(t, 2, m.Counter("op.calls"))
	assert.EqualValues(t, 1, m.Counter("op.errors"))
	assert.Len(t, m.Timings("op.duration"), 2)
	assert.Equal(t, []string{"op.calls", "op.errors"}, m.Names())
}

func TestTee(t *testing.T) {
	a, b := NewMemoryMetrics(), NewMemoryMetrics()
	tee := Tee{a, b, NopMetrics{}}
	tee.Count("n")
	tee.Timing("d", time.Second)
	assert.EqualValues(t, 1, a.Counter("n"))
	assert.EqualValues(t, 1, b.Counter("n"))
	assert.Equal(t, []time.Duration{time.Second}, b.Timings("d"))
}

func TestRepositoryMetrics(t *testing.T) {
	db, _ := newTestDB(t)
	m := NewMemoryMetrics()
	opts := testOptions(time.Millisecond)
	opts.Metrics = m
	repo := NewArticleRepository(db, opts)
	ctx := context.Background()

	a, err := repo.Create(ctx, &model.ArticleCreate{Title: "A", URL: "http://a", Hash: "h", Content: "c"}, nil)
	require.NoError(t, err)
	repo.ClearAll()
	_, err = repo.Get(ctx, a.ID)
	require.NoError(t, err)
	_, err = repo.Update(ctx, 999, &model.ArticleUpdate{Title: ptr("x")}, nil)
	require.ErrorIs(t, err, ErrNotFound)

	assert.EqualValues(t, 1, m.Counter("stash.articles.create.calls"))
	assert.EqualValues(t, 1, m.Counter("stash.articles.batch.calls"))
	assert.EqualValues(t, 1, m.Counter("stash.articles.update.calls"))
	assert.Zero(t, m.Counter("stash.articles.update.errors"), "not found is not an error")
}

func TestStatsdMetrics(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()

	m, err := NewStatsdMetrics(conn.LocalAddr().String(), "test.")
	require.NoError(t, err)
	m.Count("stash.articles.get.calls", "env:test")
	m.Timing("stash.articles.get.duration", 3*time.Millisecond)
	require.NoError(t, m.Close())

	var received strings.Builder
	buf := make([]byte, 4096)
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(received.String(), "test.stash.articles.get.calls:1|c") && time.Now().Before(deadline) {
		require.NoError(t, conn.SetReadDeadline(deadline))
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			break
		}
		received.Write(buf[:n])
	}
	assert.Contains(t, received.String(), "test.stash.articles.get.calls:1|c")
	assert.Contains(t, received.String(), "test.stash.articles.get.duration:")
}
