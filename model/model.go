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

// Package model holds the row types of the stash schema. Each table has an
// entity type, a Create payload bound to the same table and an Update payload
// whose nil fields are left untouched.
package model

// Models returns one zero value per table in creation order: referenced
// tables come before the tables that reference them.
func Models() []interface{} {
	return []interface{}{
		(*User)(nil),
		(*Profile)(nil),
		(*UserFriend)(nil),
		(*UploadFile)(nil),
		(*Article)(nil),
		(*UserArticle)(nil),
		(*Highlight)(nil),
		(*Reaction)(nil),
		(*ArticleSavingRequest)(nil),
		(*Reminder)(nil),
	}
}
