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
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomoncle/stash/database"
	"github.com/tomoncle/stash/dataloader"
	"github.com/tomoncle/stash/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

// Entity is a row with a single store-assigned int64 primary key.
type Entity interface {
	GetID() int64
}

// Scope is a WHERE clause carried by every read of a repository. Columns are
// referenced bare so it fits single-table select, update and delete queries.
type Scope struct {
	Query string
	Args  []interface{}
}

// Options configures the loader and instrumentation of a repository.
type Options struct {
	Loader  database.LoaderConfig
	Logger  database.Logger
	Metrics Metrics
}

// DefaultOptions returns the default loader config, the database logger and
// no metrics.
func DefaultOptions() Options {
	return Options{Loader: database.DefaultLoaderConfig()}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = database.GetLogger()
	}
	if o.Metrics == nil {
		o.Metrics = NopMetrics{}
	}
	if o.Loader.MaxRows <= 0 {
		o.Loader.MaxRows = database.DefaultLoaderConfig().MaxRows
	}
	return o
}

// BaseConfig describes one table.
type BaseConfig[E Entity] struct {
	// Name is used for the loader name, logs and metric names.
	Name string
	// Scope restricts every read. Nil means every row is visible.
	Scope *Scope
	// Visible must agree with Scope for a fetched row. Invisible rows are
	// never cached.
	Visible func(E) bool
	// OnWrite sees every row a write stored or removed, so secondary caches
	// follow the id cache. deleted is set for removed rows and for rows the
	// write made invisible.
	OnWrite func(row E, deleted bool)
}

// Base is the generic repository of entity E with create payload C and
// update payload U. Point reads go through a per-instance batch loader;
// writes keep that loader coherent. A Base is meant to live for one request.
type Base[E Entity, C any, U any] struct {
	db        *bun.DB
	name      string
	table     *schema.Table
	scope     *Scope
	visible   func(E) bool
	onWrite   func(E, bool)
	opts      Options
	loader    *dataloader.Loader[int64, E]
	returning bool
}

// NewBase returns a repository for E.
func NewBase[E Entity, C any, U any](db *bun.DB, cfg BaseConfig[E], opts Options) *Base[E, C, U] {
	opts = opts.withDefaults()
	b := &Base[E, C, U]{
		db:        db,
		name:      cfg.Name,
		table:     tableOf[E](db),
		scope:     cfg.Scope,
		visible:   cfg.Visible,
		onWrite:   cfg.OnWrite,
		opts:      opts,
		returning: db.HasFeature(feature.InsertReturning) && db.HasFeature(feature.Returning),
	}
	if b.name == "" {
		b.name = b.table.Name
	}
	b.loader = dataloader.New(dataloader.Config[int64, E]{
		Name:         b.name,
		Fetch:        Instrument(opts.Metrics, b.metric("batch"), b.fetchByIDs),
		KeyOf:        func(e E) int64 { return e.GetID() },
		Wait:         opts.Loader.BatchWait,
		MaxBatch:     opts.Loader.MaxBatch,
		DisableCache: opts.Loader.DisableCache,
		StrictCount:  opts.Loader.StrictCount,
		Logger:       opts.Logger,
	})
	return b
}

// DB returns the pool the repository reads from.
func (b *Base[E, C, U]) DB() *bun.DB { return b.db }

// Name returns the repository name used in logs and metrics.
func (b *Base[E, C, U]) Name() string { return b.name }

// Column resolves an attribute name of E to its column.
func (b *Base[E, C, U]) Column(field string) (string, error) {
	return columnOf(b.table, field)
}

func (b *Base[E, C, U]) metric(op string) string {
	return "stash." + b.name + "." + op
}

// track is deferred with a pointer to the named error result.
func (b *Base[E, C, U]) track(op string, start time.Time, err *error) {
	m := b.opts.Metrics
	m.Timing(b.metric(op)+".duration", time.Since(start))
	m.Count(b.metric(op) + ".calls")
	if *err != nil && !IsNotFound(*err) {
		m.Count(b.metric(op) + ".errors")
	}
}

func (b *Base[E, C, U]) isVisible(row E) bool {
	return b.visible == nil || b.visible(row)
}

func (b *Base[E, C, U]) scoped(q *bun.SelectQuery) *bun.SelectQuery {
	if b.scope != nil {
		q = q.Where(b.scope.Query, b.scope.Args...)
	}
	return q
}

func (b *Base[E, C, U]) fetchByIDs(ctx context.Context, ids []int64) ([]E, error) {
	var rows []E
	err := b.scoped(b.db.NewSelect().Model(&rows)).
		Where("?TableAlias.id IN (?)", bun.In(ids)).
		Scan(ctx)
	return rows, err
}

// Get loads one row by id through the batch loader. A missing or invisible
// row yields ErrNotFound.
func (b *Base[E, C, U]) Get(ctx context.Context, id int64) (*E, error) {
	row, err := b.loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetMany loads rows by id in input order. errs is nil when every id
// resolved; otherwise errs[i] explains a nil rows[i].
func (b *Base[E, C, U]) GetMany(ctx context.Context, ids []int64) ([]*E, []error) {
	values, errs := b.loader.LoadMany(ctx, ids)
	rows := make([]*E, len(ids))
	for i := range values {
		if errs != nil && errs[i] != nil {
			continue
		}
		v := values[i]
		rows[i] = &v
	}
	return rows, errs
}

// GetWhereIn returns the visible rows whose field is one of values, newest
// first, and primes each of them. Rows where any notNullFields is NULL are
// skipped.
func (b *Base[E, C, U]) GetWhereIn(ctx context.Context, field string, values []interface{}, tx *bun.Tx, notNullFields ...string) (rows []*E, err error) {
	defer b.track("get_where_in", time.Now(), &err)
	if len(values) == 0 {
		return []*E{}, nil
	}
	col, err := b.Column(field)
	if err != nil {
		return nil, err
	}

	var found []E
	q := b.scoped(conn(b.db, tx).NewSelect().Model(&found)).
		Where("?TableAlias.? IN (?)", bun.Ident(col), bun.In(values))
	for _, f := range notNullFields {
		c, err := b.Column(f)
		if err != nil {
			return nil, err
		}
		q = q.Where("?TableAlias.? IS NOT NULL", bun.Ident(c))
	}
	if err := q.OrderExpr("?TableAlias.created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	return b.primeAll(found), nil
}

// GetAll returns up to Loader.MaxRows visible rows, newest first.
func (b *Base[E, C, U]) GetAll(ctx context.Context, tx *bun.Tx) (rows []*E, err error) {
	defer b.track("get_all", time.Now(), &err)
	var found []E
	err = b.scoped(conn(b.db, tx).NewSelect().Model(&found)).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(b.opts.Loader.MaxRows).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return b.primeAll(found), nil
}

// Page returns one page of visible rows matching the request filter.
func (b *Base[E, C, U]) Page(ctx context.Context, req *types.PageRequest, tx *bun.Tx) (*types.Pagination[E], error) {
	var found []E
	query := b.scoped(conn(b.db, tx).NewSelect().Model(&found))
	if f := req.GetFilter(); f != nil {
		query = query.Where(f.Schema, f.Args...)
	}
	pagination := types.NewDefaultPagination[E](req.GetPage(), req.GetPageSize())
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	err = query.
		Offset(req.GetOffset()).
		Limit(req.GetPageSize()).
		Order(req.GetOrders()...).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = b.primeAll(found)
	return pagination, nil
}

// Exists reports whether a visible row with id exists.
func (b *Base[E, C, U]) Exists(ctx context.Context, id int64, tx *bun.Tx) (bool, error) {
	return b.scoped(conn(b.db, tx).NewSelect().Model((*E)(nil))).
		Where("?TableAlias.id = ?", id).
		Exists(ctx)
}

// Create inserts payload and returns the stored row, store defaults included.
func (b *Base[E, C, U]) Create(ctx context.Context, payload *C, tx *bun.Tx) (row *E, err error) {
	defer b.track("create", time.Now(), &err)
	if b.returning {
		row, err = b.insert(ctx, conn(b.db, tx), payload)
	} else {
		// insert and re-select must see the same connection
		row, err = inTx(ctx, b.db, tx, func(ctx context.Context, tx *bun.Tx) (*E, error) {
			return b.insert(ctx, tx, payload)
		})
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", b.name, err)
	}
	b.primeWrite(*row)
	return row, nil
}

// CreateMany inserts every payload inside tx and returns the stored rows in
// payload order.
func (b *Base[E, C, U]) CreateMany(ctx context.Context, payloads []*C, tx *bun.Tx) (rows []*E, err error) {
	defer b.track("create_many", time.Now(), &err)
	if tx == nil {
		return nil, ErrTxRequired
	}
	if len(payloads) == 0 {
		return []*E{}, nil
	}

	if b.returning {
		var created []E
		if err := tx.NewInsert().Model(&payloads).Returning("*").Scan(ctx, &created); err != nil {
			return nil, fmt.Errorf("create %s: %w", b.name, err)
		}
		for _, r := range created {
			b.primeWrite(r)
		}
		return pointers(created), nil
	}

	rows = make([]*E, 0, len(payloads))
	for _, p := range payloads {
		r, err := b.insert(ctx, tx, p)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", b.name, err)
		}
		b.primeWrite(*r)
		rows = append(rows, r)
	}
	return rows, nil
}

func (b *Base[E, C, U]) insert(ctx context.Context, idb bun.IDB, payload *C) (*E, error) {
	var row E
	if b.returning {
		if err := idb.NewInsert().Model(payload).Returning("*").Scan(ctx, &row); err != nil {
			return nil, err
		}
		return &row, nil
	}

	res, err := idb.NewInsert().Model(payload).Exec(ctx)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := idb.NewSelect().Model(&row).Where("?TableAlias.id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return &row, nil
}

// Update writes the set fields of payload to the visible row id and returns
// the updated row. No matching row yields ErrNotFound.
func (b *Base[E, C, U]) Update(ctx context.Context, id int64, payload *U, tx *bun.Tx) (row *E, err error) {
	defer b.track("update", time.Now(), &err)
	cols := updateColumns(payload)
	if len(cols) == 0 {
		return nil, ErrEmptyUpdate
	}
	return b.update(ctx, id, cols, tx)
}

func (b *Base[E, C, U]) update(ctx context.Context, id int64, cols []columnValue, tx *bun.Tx) (*E, error) {
	if !b.returning && tx == nil {
		return inTx(ctx, b.db, tx, func(ctx context.Context, tx *bun.Tx) (*E, error) {
			return b.update(ctx, id, cols, tx)
		})
	}
	idb := conn(b.db, tx)
	q := idb.NewUpdate().Model((*E)(nil)).Where("id = ?", id)
	if b.scope != nil {
		q = q.Where(b.scope.Query, b.scope.Args...)
	}
	touched := false
	for _, c := range cols {
		q = q.Set("? = ?", bun.Ident(c.column), c.value)
		touched = touched || c.column == "updated_at"
	}
	if !touched && hasColumn(b.table, "updated_at") {
		q = q.Set("? = ?", bun.Ident("updated_at"), time.Now())
	}

	var row E
	if b.returning {
		if err := q.Returning("*").Scan(ctx, &row); err != nil {
			return nil, b.notFound(id, err)
		}
	} else {
		exists, err := b.Exists(ctx, id, tx)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, b.notFound(id, sql.ErrNoRows)
		}
		if _, err := q.Exec(ctx); err != nil {
			return nil, err
		}
		if err := idb.NewSelect().Model(&row).Where("?TableAlias.id = ?", id).Scan(ctx); err != nil {
			return nil, b.notFound(id, err)
		}
	}
	if row.GetID() == 0 {
		return nil, b.notFound(id, sql.ErrNoRows)
	}
	b.primeWrite(row)
	return &row, nil
}

// Delete removes row id inside tx and returns it.
func (b *Base[E, C, U]) Delete(ctx context.Context, id int64, tx *bun.Tx) (row *E, err error) {
	defer b.track("delete", time.Now(), &err)
	if tx == nil {
		return nil, ErrTxRequired
	}

	var deleted E
	if b.returning {
		err = tx.NewDelete().Model((*E)(nil)).Where("id = ?", id).Returning("*").Scan(ctx, &deleted)
		if err != nil {
			return nil, b.notFound(id, err)
		}
	} else {
		if err := tx.NewSelect().Model(&deleted).Where("?TableAlias.id = ?", id).Scan(ctx); err != nil {
			return nil, b.notFound(id, err)
		}
		if _, err := tx.NewDelete().Model((*E)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return nil, err
		}
	}
	if deleted.GetID() == 0 {
		return nil, b.notFound(id, sql.ErrNoRows)
	}
	b.loader.Clear(id)
	b.wrote(deleted, true)
	return &deleted, nil
}

// DeleteWhere removes every row matching filter inside tx and returns them.
func (b *Base[E, C, U]) DeleteWhere(ctx context.Context, filter *types.QueryFilter, tx *bun.Tx) (rows []*E, err error) {
	defer b.track("delete_where", time.Now(), &err)
	if tx == nil {
		return nil, ErrTxRequired
	}
	if filter == nil || strings.TrimSpace(filter.Schema) == "" {
		return nil, ErrUnboundedDelete
	}

	var deleted []E
	if b.returning {
		err = tx.NewDelete().Model((*E)(nil)).Where(filter.Schema, filter.Args...).Returning("*").Scan(ctx, &deleted)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	} else {
		if err := tx.NewSelect().Model(&deleted).Where(filter.Schema, filter.Args...).Scan(ctx); err != nil {
			return nil, err
		}
		if len(deleted) > 0 {
			ids := make([]int64, len(deleted))
			for i, r := range deleted {
				ids[i] = r.GetID()
			}
			if _, err := tx.NewDelete().Model((*E)(nil)).Where("id IN (?)", bun.In(ids)).Exec(ctx); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range deleted {
		b.loader.Clear(r.GetID())
		b.wrote(r, true)
	}
	return pointers(deleted), nil
}

// DeleteWhereIn removes every row whose field is one of values.
func (b *Base[E, C, U]) DeleteWhereIn(ctx context.Context, field string, values []interface{}, tx *bun.Tx) ([]*E, error) {
	if tx == nil {
		return nil, ErrTxRequired
	}
	if len(values) == 0 {
		return []*E{}, nil
	}
	col, err := b.Column(field)
	if err != nil {
		return nil, err
	}
	return b.DeleteWhere(ctx, types.NewQueryFilter("? IN (?)", bun.Ident(col), bun.In(values)), tx)
}

// Prime caches row under id unless id is cached already.
func (b *Base[E, C, U]) Prime(id int64, row E) bool {
	if !b.isVisible(row) {
		return false
	}
	return b.loader.Prime(id, row)
}

// Clear evicts id from the cache.
func (b *Base[E, C, U]) Clear(id int64) { b.loader.Clear(id) }

// ClearAll empties the cache.
func (b *Base[E, C, U]) ClearAll() { b.loader.ClearAll() }

func (b *Base[E, C, U]) primeAll(rows []E) []*E {
	for _, r := range rows {
		if b.isVisible(r) {
			b.loader.Prime(r.GetID(), r)
		}
	}
	return pointers(rows)
}

// primeWrite replaces the cached row with the post-write state.
func (b *Base[E, C, U]) primeWrite(row E) {
	if b.isVisible(row) {
		b.loader.ForcePrime(row.GetID(), row)
		b.wrote(row, false)
		return
	}
	b.loader.Clear(row.GetID())
	b.wrote(row, true)
}

func (b *Base[E, C, U]) wrote(row E, deleted bool) {
	if b.onWrite != nil {
		b.onWrite(row, deleted)
	}
}

func (b *Base[E, C, U]) notFound(id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", b.name, id, ErrNotFound)
	}
	return err
}

func pointers[E any](rows []E) []*E {
	out := make([]*E, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

// anys converts a typed slice for GetWhereIn and DeleteWhereIn.
func anys[T any](values []T) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
