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
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/stash/model"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunMigrations(t *testing.T) {
	RegisterModels(model.Models()...)
	db := newTestDB(t)
	counter := NewQueryCounter(true)
	db.AddQueryHook(counter)
	ctx := context.Background()

	mm := NewMigrationManager(db, nil, MigrateConfig{EnableForeignKey: true})
	require.NoError(t, mm.RunMigrations(ctx))

	applied, err := mm.AppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 2, "foreign keys are skipped on sqlite")
	assert.Equal(t, "001", applied[0].Version)
	assert.Equal(t, "create_indexes", applied[1].Name)

	n, err := db.NewSelect().Model((*model.Highlight)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	counter.Reset()
	require.NoError(t, mm.RunMigrations(ctx))
	assert.Zero(t, counter.CountOf("INSERT"), "second run applies nothing")
}

func TestRegisterModelsKeepsOrder(t *testing.T) {
	RegisterModels(model.Models()...)
	RegisterModels((*model.User)(nil))
	instances := RegisteredModelInstances()
	require.NotEmpty(t, instances)
	assert.IsType(t, (*model.User)(nil), instances[0])
	assert.Len(t, instances, len(model.Models()))
}
