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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
)

// upsert inserts payload or, when it collides on duplicateKeys, overwrites
// fields on the existing row and touches updated_at. It does not return the row: callers re-read it
// by its natural key.
func (b *Base[E, C, U]) upsert(ctx context.Context, idb bun.IDB, payload *C, fields []string, duplicateKeys []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("upsert %s: fields cannot be empty", b.name)
	}
	insertQuery := idb.NewInsert().Model(payload)

	switch {
	case b.db.HasFeature(feature.InsertOnConflict):
		return b.upsertOnConflict(ctx, insertQuery, fields, duplicateKeys)
	case b.db.HasFeature(feature.InsertOnDuplicateKey):
		return b.upsertOnDuplicateKey(ctx, insertQuery, fields)
	default:
		return fmt.Errorf("upsert %s: dialect %s supports neither ON CONFLICT nor ON DUPLICATE KEY",
			b.name, b.db.Dialect().Name())
	}
}

func (b *Base[E, C, U]) upsertOnDuplicateKey(ctx context.Context, insertQuery *bun.InsertQuery, fields []string) error {
	queryArgs := make([]string, 0, len(fields))
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf("`%s` = VALUES(`%s`)", field, field))
	}
	if hasColumn(b.table, "updated_at") {
		queryArgs = append(queryArgs, "`updated_at` = CURRENT_TIMESTAMP")
	}
	_, err := insertQuery.
		On("DUPLICATE KEY UPDATE " + strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}

func (b *Base[E, C, U]) upsertOnConflict(ctx context.Context, insertQuery *bun.InsertQuery, fields []string, duplicateKeys []string) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{"id"}
	}
	queryArgs := make([]string, 0, len(fields))
	for _, field := range fields {
		queryArgs = append(queryArgs, fmt.Sprintf(`"%s" = EXCLUDED."%s"`, field, field))
	}
	if hasColumn(b.table, "updated_at") {
		queryArgs = append(queryArgs, `"updated_at" = CURRENT_TIMESTAMP`)
	}
	_, err := insertQuery.
		On("CONFLICT (" + strings.Join(duplicateKeys, ", ") + ") DO UPDATE").
		Set(strings.Join(queryArgs, ", ")).
		Exec(ctx)
	return err
}
