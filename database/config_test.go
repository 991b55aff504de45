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
package database

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection:
  type: postgres
  host: db.local
  port: 5432
  dbname: stash
  slow_query_time: 500ms
migrate:
  enable_foreign_key: true
loader:
  batch_wait: 2ms
  max_batch: 50
  strict_count: true
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Connection.Type)
	assert.Equal(t, 5432, cfg.Connection.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Connection.SlowQueryTime)
	assert.Equal(t, 100, cfg.Connection.MaxOpenConns, "defaults survive")
	assert.True(t, cfg.Migrate.EnableForeignKey)
	assert.Equal(t, 2*time.Millisecond, cfg.Loader.BatchWait)
	assert.Equal(t, 50, cfg.Loader.MaxBatch)
	assert.Equal(t, 1000, cfg.Loader.MaxRows)
	assert.True(t, cfg.Loader.StrictCount)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Connection.Type)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STASH_TEST_DOTENV=from-file\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("STASH_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("STASH_TEST_DOTENV"))
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "override.local")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_CONN_MAX_LIFETIME", "60")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")
	t.Setenv("LOADER_MAX_BATCH", "7")
	t.Setenv("LOADER_BATCH_WAIT", "5ms")
	t.Setenv("LOADER_DISABLE_CACHE", "true")

	conn := DefaultConnectionConfig()
	OverrideConnectionFromEnv(conn)
	assert.Equal(t, "override.local", conn.Host)
	assert.Equal(t, 6543, conn.Port)
	assert.Equal(t, time.Minute, conn.ConnMaxLifetime)
	assert.True(t, conn.EnableQueryLog)

	loader := DefaultLoaderConfig()
	OverrideLoaderFromEnv(&loader)
	assert.Equal(t, 7, loader.MaxBatch)
	assert.Equal(t, 5*time.Millisecond, loader.BatchWait)
	assert.True(t, loader.DisableCache)
	assert.Equal(t, 1000, loader.MaxRows)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared", SQLiteDSN(":memory:"))
	assert.Equal(t, "file:x?mode=memory", SQLiteDSN("file:x?mode=memory"))
	assert.Equal(t, "stash.db", SQLiteDSN("stash"))
	assert.Equal(t, "data/stash.db", SQLiteDSN("data/stash.db"))
}

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	_, err := NewDatabaseFactory().CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.Error(t, err)
}
