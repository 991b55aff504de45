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

// UserFriend is a directed follow edge from UserID to FriendUserID.
type UserFriend struct {
	bun.BaseModel `bun:"table:user_friends,alias:uff"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID       int64     `bun:"user_id,notnull,unique:uk_user_friends_edge" json:"userId"`
	FriendUserID int64     `bun:"friend_user_id,notnull,unique:uk_user_friends_edge" json:"friendUserId"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

func (f UserFriend) GetID() int64 { return f.ID }

type UserFriendCreate struct {
	bun.BaseModel `bun:"table:user_friends,alias:uff"`

	UserID       int64 `bun:"user_id"`
	FriendUserID int64 `bun:"friend_user_id"`
}

// UserFriendUpdate is empty: a follow edge has no mutable columns.
type UserFriendUpdate struct{}
