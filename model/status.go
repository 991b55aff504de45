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
	"github.com/tomoncle/stash/types"
)

// ReminderStatus is stored as text in reminders.status.
type ReminderStatus string

const (
	ReminderCreated   ReminderStatus = "CREATED"
	ReminderCompleted ReminderStatus = "COMPLETED"
	ReminderDeleted   ReminderStatus = "DELETED"
)

var reminderStatuses = []ReminderStatus{ReminderCreated, ReminderCompleted, ReminderDeleted}

func (s ReminderStatus) IsValid() bool  { return s.Number() != types.IllegalValue }
func (s ReminderStatus) Number() int    { return indexOf(reminderStatuses, s) }
func (s ReminderStatus) String() string { return string(s) }
func (s ReminderStatus) Name() string   { return string(s) }

// ParseReminderStatus returns the status named name.
func ParseReminderStatus(name string) ReminderStatus {
	return types.EnumOf(name, reminderStatuses, ReminderStatus(types.IllegalName))
}

// UploadFileStatus is stored as text in upload_files.status.
type UploadFileStatus string

const (
	UploadFilePending   UploadFileStatus = "PENDING"
	UploadFileCompleted UploadFileStatus = "COMPLETED"
)

var uploadFileStatuses = []UploadFileStatus{UploadFilePending, UploadFileCompleted}

func (s UploadFileStatus) IsValid() bool  { return s.Number() != types.IllegalValue }
func (s UploadFileStatus) Number() int    { return indexOf(uploadFileStatuses, s) }
func (s UploadFileStatus) String() string { return string(s) }
func (s UploadFileStatus) Name() string   { return string(s) }

func ParseUploadFileStatus(name string) UploadFileStatus {
	return types.EnumOf(name, uploadFileStatuses, UploadFileStatus(types.IllegalName))
}

// ArticleSavingRequestStatus is stored as text in article_saving_requests.status.
type ArticleSavingRequestStatus string

const (
	SavingRequestProcessing ArticleSavingRequestStatus = "PROCESSING"
	SavingRequestSucceeded  ArticleSavingRequestStatus = "SUCCEEDED"
	SavingRequestFailed     ArticleSavingRequestStatus = "FAILED"
)

var savingRequestStatuses = []ArticleSavingRequestStatus{
	SavingRequestProcessing, SavingRequestSucceeded, SavingRequestFailed,
}

func (s ArticleSavingRequestStatus) IsValid() bool  { return s.Number() != types.IllegalValue }
func (s ArticleSavingRequestStatus) Number() int    { return indexOf(savingRequestStatuses, s) }
func (s ArticleSavingRequestStatus) String() string { return string(s) }
func (s ArticleSavingRequestStatus) Name() string   { return string(s) }

func ParseArticleSavingRequestStatus(name string) ArticleSavingRequestStatus {
	return types.EnumOf(name, savingRequestStatuses, ArticleSavingRequestStatus(types.IllegalName))
}

func indexOf[E comparable](values []E, v E) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return types.IllegalValue
}
