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

	"github.com/uptrace/bun"
)

// WithTx runs fn inside tx when one is given and leaves commit to its owner.
// Without tx it opens a transaction that is committed when fn returns nil and
// rolled back otherwise. Handles are never looked up implicitly: nested calls
// must receive the tx passed to fn.
func WithTx(ctx context.Context, db *bun.DB, tx *bun.Tx, fn func(ctx context.Context, tx *bun.Tx) error) error {
	if tx != nil {
		return fn(ctx, tx)
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &tx)
	})
}

// inTx is WithTx for a write that returns its row.
func inTx[T any](ctx context.Context, db *bun.DB, tx *bun.Tx, fn func(ctx context.Context, tx *bun.Tx) (T, error)) (out T, err error) {
	err = WithTx(ctx, db, tx, func(ctx context.Context, tx *bun.Tx) error {
		out, err = fn(ctx, tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// conn returns tx when set, the pool otherwise.
func conn(db *bun.DB, tx *bun.Tx) bun.IDB {
	if tx != nil {
		return tx
	}
	return db
}
