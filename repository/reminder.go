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
	"time"

	"github.com/tomoncle/stash/model"
	"github.com/uptrace/bun"
)

// ReminderRepository stores reminders. A DELETED reminder is invisible.
type ReminderRepository struct {
	*Base[model.Reminder, model.ReminderCreate, model.ReminderUpdate]
}

// NewReminderRepository returns a reminder repository that hides DELETED rows.
func NewReminderRepository(db *bun.DB, opts Options) *ReminderRepository {
	return &ReminderRepository{
		Base: NewBase[model.Reminder, model.ReminderCreate, model.ReminderUpdate](db, BaseConfig[model.Reminder]{
			Name:    "reminders",
			Scope:   &Scope{Query: "status <> ?", Args: []interface{}{model.ReminderDeleted}},
			Visible: func(r model.Reminder) bool { return r.Status != model.ReminderDeleted },
		}, opts),
	}
}

// Create inserts the reminder, CREATED unless a status is given.
func (r *ReminderRepository) Create(ctx context.Context, payload *model.ReminderCreate, tx *bun.Tx) (*model.Reminder, error) {
	if payload.Status == "" {
		payload.Status = model.ReminderCreated
	}
	return r.Base.Create(ctx, payload, tx)
}

// GetByRequestID returns the newest visible reminder of a saving request.
func (r *ReminderRepository) GetByRequestID(ctx context.Context, requestID int64, tx *bun.Tx) (*model.Reminder, error) {
	return r.first(ctx, "ArticleSavingRequestID", requestID, tx)
}

// GetByLinkID returns the newest visible reminder of a saved link.
func (r *ReminderRepository) GetByLinkID(ctx context.Context, linkID int64, tx *bun.Tx) (*model.Reminder, error) {
	return r.first(ctx, "LinkID", linkID, tx)
}

func (r *ReminderRepository) first(ctx context.Context, field string, id int64, tx *bun.Tx) (*model.Reminder, error) {
	rows, err := r.GetWhereIn(ctx, field, []interface{}{id}, tx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("reminder by %s %d: %w", field, id, ErrNotFound)
	}
	return rows[0], nil
}

// ListDue returns the CREATED reminders whose time is at or before now,
// earliest first.
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time, tx *bun.Tx) ([]*model.Reminder, error) {
	var rows []model.Reminder
	err := conn(r.db, tx).NewSelect().Model(&rows).
		Where("?TableAlias.status = ?", model.ReminderCreated).
		Where("?TableAlias.remind_at <= ?", now).
		OrderExpr("?TableAlias.remind_at ASC").
		Limit(r.opts.Loader.MaxRows).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return r.primeAll(rows), nil
}

// MarkCompleted moves a reminder to COMPLETED.
func (r *ReminderRepository) MarkCompleted(ctx context.Context, id int64, tx *bun.Tx) (row *model.Reminder, err error) {
	defer r.track("mark_completed", time.Now(), &err)
	return r.update(ctx, id, []columnValue{{"status", model.ReminderCompleted}}, tx)
}

// Delete moves a reminder to DELETED and returns its final state.
func (r *ReminderRepository) Delete(ctx context.Context, id int64, tx *bun.Tx) (row *model.Reminder, err error) {
	defer r.track("delete", time.Now(), &err)
	return r.update(ctx, id, []columnValue{{"status", model.ReminderDeleted}}, tx)
}
