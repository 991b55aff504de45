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

// UserRepository stores users and their one-to-one profiles.
type UserRepository struct {
	*Base[model.User, model.UserCreate, model.UserUpdate]
	profiles *Base[model.Profile, model.ProfileCreate, model.ProfileUpdate]
	bySource *CompositeLoader[model.User]
}

// NewUserRepository returns a user repository with its own user, profile and
// source caches.
func NewUserRepository(db *bun.DB, opts Options) *UserRepository {
	bySource := NewCompositeLoader(db, CompositeConfig[model.User]{
		Name:    "users_by_source",
		Fields:  []string{"source", "source_user_id"},
		PartsOf: func(u model.User) []interface{} { return []interface{}{u.Source, u.SourceUserID} },
	}, opts)
	return &UserRepository{
		Base: NewBase[model.User, model.UserCreate, model.UserUpdate](db, BaseConfig[model.User]{
			Name:    "users",
			OnWrite: bySource.Sync,
		}, opts),
		profiles: NewBase[model.Profile, model.ProfileCreate, model.ProfileUpdate](db, BaseConfig[model.Profile]{Name: "user_profiles"}, opts),
		bySource: bySource,
	}
}

// Profiles exposes the profile table for direct reads.
func (r *UserRepository) Profiles() *Base[model.Profile, model.ProfileCreate, model.ProfileUpdate] {
	return r.profiles
}

// GetWithProfile joins the user with its profile in one query and primes both
// caches. A user without a profile is returned with a nil Profile.
func (r *UserRepository) GetWithProfile(ctx context.Context, id int64, tx *bun.Tx) (*model.UserWithProfile, error) {
	var u model.UserWithProfile
	err := conn(r.db, tx).NewSelect().Model(&u).
		Relation("Profile").
		Where("?TableAlias.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, r.notFound(id, err)
	}
	r.Prime(u.ID, u.User)
	if u.Profile != nil && u.Profile.ID != 0 {
		r.profiles.Prime(u.Profile.ID, *u.Profile)
	} else {
		u.Profile = nil
	}
	return &u, nil
}

// GetByUsername resolves a profile username to its user.
func (r *UserRepository) GetByUsername(ctx context.Context, username string, tx *bun.Tx) (*model.UserWithProfile, error) {
	var p model.Profile
	err := conn(r.db, tx).NewSelect().Model(&p).
		Column("user_id").
		Where("?TableAlias.username = ?", username).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, translateNoRows(err))
	}
	return r.GetWithProfile(ctx, p.UserID, tx)
}

// GetByEmail returns the newest user registered with email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string, tx *bun.Tx) (*model.User, error) {
	rows, err := r.GetWhereIn(ctx, "email", []interface{}{email}, tx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("user %q: %w", email, ErrNotFound)
	}
	return rows[0], nil
}

// GetBySource loads the user registered through an identity provider.
func (r *UserRepository) GetBySource(ctx context.Context, source, sourceUserID string) (*model.User, error) {
	u, err := r.bySource.Load(ctx, source, sourceUserID)
	if err != nil {
		return nil, err
	}
	r.Prime(u.ID, u)
	return &u, nil
}

// CreateWithProfile inserts the user and its profile in one transaction. Both
// rows are written through the same tx, whether given or opened here.
func (r *UserRepository) CreateWithProfile(ctx context.Context, input *model.NewUserInput, tx *bun.Tx) (out *model.UserWithProfile, err error) {
	defer r.track("create_with_profile", time.Now(), &err)
	err = WithTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) error {
		u, err := r.Base.Create(ctx, &input.User, tx)
		if err != nil {
			return err
		}
		p, err := r.profiles.Create(ctx, &model.ProfileCreate{
			UserID:   u.ID,
			Username: input.Username,
			Bio:      input.Bio,
		}, tx)
		if err != nil {
			return err
		}
		out = &model.UserWithProfile{User: *u, Profile: p}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a user without a profile, in tx or in a transaction of its own.
func (r *UserRepository) Create(ctx context.Context, payload *model.UserCreate, tx *bun.Tx) (*model.User, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.User, error) {
		return r.Base.Create(ctx, payload, tx)
	})
}

// Update writes payload in tx, or in a transaction of its own.
func (r *UserRepository) Update(ctx context.Context, id int64, payload *model.UserUpdate, tx *bun.Tx) (*model.User, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.User, error) {
		return r.Base.Update(ctx, id, payload, tx)
	})
}

// Delete removes the user in tx, or in a transaction of its own.
func (r *UserRepository) Delete(ctx context.Context, id int64, tx *bun.Tx) (*model.User, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.User, error) {
		return r.Base.Delete(ctx, id, tx)
	})
}

// UpdateProfile updates the profile owned by userID.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, payload *model.ProfileUpdate, tx *bun.Tx) (*model.Profile, error) {
	var p model.Profile
	err := conn(r.db, tx).NewSelect().Model(&p).
		Column("id").
		Where("?TableAlias.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile of user %d: %w", userID, translateNoRows(err))
	}
	return r.profiles.Update(ctx, p.ID, payload, tx)
}

// ClearAll empties the user, profile and source caches.
func (r *UserRepository) ClearAll() {
	r.Base.ClearAll()
	r.profiles.ClearAll()
	r.bySource.ClearAll()
}
