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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusEnums(t *testing.T) {
	assert.True(t, ReminderDeleted.IsValid())
	assert.Equal(t, 2, ReminderDeleted.Number())
	assert.Equal(t, ReminderCompleted, ParseReminderStatus("COMPLETED"))
	assert.False(t, ParseReminderStatus("nope").IsValid())

	assert.Equal(t, UploadFilePending, ParseUploadFileStatus("PENDING"))
	assert.Equal(t, 1, UploadFileCompleted.Number())

	assert.Equal(t, SavingRequestFailed, ParseArticleSavingRequestStatus("FAILED"))
	assert.Equal(t, "UNKNOWN", ParseArticleSavingRequestStatus("").Name())
}

func TestReactionCreateTarget(t *testing.T) {
	id := int64(7)
	assert.True(t, ReactionCreate{UserArticleID: &id}.HasSingleTarget())
	assert.True(t, ReactionCreate{HighlightID: &id}.HasSingleTarget())
	assert.False(t, ReactionCreate{}.HasSingleTarget())
	assert.False(t, ReactionCreate{UserArticleID: &id, HighlightID: &id}.HasSingleTarget())
}

func TestHighlightAnnotation(t *testing.T) {
	empty, note := "", "note"
	assert.False(t, Highlight{}.HasAnnotation())
	assert.False(t, Highlight{Annotation: &empty}.HasAnnotation())
	assert.True(t, Highlight{Annotation: &note}.HasAnnotation())
}
