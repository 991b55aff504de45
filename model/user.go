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

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	Source       string    `bun:"source,notnull,unique:uk_users_source" json:"source"`
	SourceUserID string    `bun:"source_user_id,notnull,unique:uk_users_source" json:"sourceUserId"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (u User) GetID() int64 { return u.ID }

type UserCreate struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	Name         string `bun:"name"`
	Email        string `bun:"email"`
	Source       string `bun:"source"`
	SourceUserID string `bun:"source_user_id"`
}

type UserUpdate struct {
	Name  *string `bun:"name"`
	Email *string `bun:"email"`
}

// Profile is the public one-to-one profile of a User.
type Profile struct {
	bun.BaseModel `bun:"table:user_profiles,alias:p"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID     int64     `bun:"user_id,notnull,unique" json:"userId"`
	Username   string    `bun:"username,notnull,unique" json:"username"`
	Bio        string    `bun:"bio" json:"bio"`
	PictureURL string    `bun:"picture_url" json:"pictureUrl"`
	Private    bool      `bun:"private,notnull,default:false" json:"private"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

func (p Profile) GetID() int64 { return p.ID }

type ProfileCreate struct {
	bun.BaseModel `bun:"table:user_profiles,alias:p"`

	UserID     int64  `bun:"user_id"`
	Username   string `bun:"username"`
	Bio        string `bun:"bio"`
	PictureURL string `bun:"picture_url"`
	Private    bool   `bun:"private"`
}

type ProfileUpdate struct {
	Username   *string `bun:"username"`
	Bio        *string `bun:"bio"`
	PictureURL *string `bun:"picture_url"`
	Private    *bool   `bun:"private"`
}

// UserWithProfile is a User joined with its Profile. The profile is loaded by
// join and never stored on the users row.
type UserWithProfile struct {
	User `bun:",extend"`

	Profile *Profile `bun:"rel:has-one,join:id=user_id" json:"profile"`
}

// NewUserInput is the payload for creating a user together with its profile.
type NewUserInput struct {
	User     UserCreate
	Username string
	Bio      string
}
