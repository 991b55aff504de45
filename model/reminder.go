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

package model

import (
	"time"

	"github.com/uptrace/bun"
)

// Reminder schedules a notification for a saving request or a link.
type Reminder struct {
	bun.BaseModel `bun:"table:reminders,alias:rm"`

	ID                     int64          `bun:"id,pk,autoincrement" json:"id"`
	UserID                 int64          `bun:"user_id,notnull" json:"userId"`
	ArticleSavingRequestID *int64         `bun:"article_saving_request_id" json:"articleSavingRequestId"`
	LinkID                 *int64         `bun:"link_id" json:"linkId"`
	ArchiveUntil           bool           `bun:"archive_until,notnull,default:false" json:"archiveUntil"`
	SendNotification       bool           `bun:"send_notification,notnull,default:true" json:"sendNotification"`
	RemindAt               time.Time      `bun:"remind_at,notnull" json:"remindAt"`
	Status                 ReminderStatus `bun:"status,notnull,default:'CREATED'" json:"status"`
	CreatedAt              time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt              time.Time      `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (r Reminder) GetID() int64 { return r.ID }

type ReminderCreate struct {
	bun.BaseModel `bun:"table:reminders,alias:rm"`

	UserID                 int64          `bun:"user_id"`
	ArticleSavingRequestID *int64         `bun:"article_saving_request_id"`
	LinkID                 *int64         `bun:"link_id"`
	ArchiveUntil           bool           `bun:"archive_until"`
	SendNotification       bool           `bun:"send_notification"`
	RemindAt               time.Time      `bun:"remind_at"`
	Status                 ReminderStatus `bun:"status"`
}

type ReminderUpdate struct {
	ArchiveUntil     *bool           `bun:"archive_until"`
	SendNotification *bool           `bun:"send_notification"`
	RemindAt         *time.Time      `bun:"remind_at"`
	Status           *ReminderStatus `bun:"status"`
}
