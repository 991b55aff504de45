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
	"time"

	"github.com/tomoncle/stash/model"
	"github.com/tomoncle/stash/types"
	"github.com/uptrace/bun"
)

// UserFriendRepository stores directed follow edges.
type UserFriendRepository struct {
	*Base[model.UserFriend, model.UserFriendCreate, model.UserFriendUpdate]
	following *ForeignKeyLoader[int64, model.UserFriend]
	followers *ForeignKeyLoader[int64, model.UserFriend]
	edges     *CompositeLoader[model.UserFriend]
}

// NewUserFriendRepository returns a follow edge repository with its own
// caches and loaders.
func NewUserFriendRepository(db *bun.DB, opts Options) *UserFriendRepository {
	edges := NewCompositeLoader(db, CompositeConfig[model.UserFriend]{
		Name:    "user_friends_edge",
		Fields:  []string{"user_id", "friend_user_id"},
		PartsOf: func(f model.UserFriend) []interface{} { return []interface{}{f.UserID, f.FriendUserID} },
	}, opts)
	return &UserFriendRepository{
		Base: NewBase[model.UserFriend, model.UserFriendCreate, model.UserFriendUpdate](db, BaseConfig[model.UserFriend]{
			Name:    "user_friends",
			OnWrite: edges.Sync,
		}, opts),
		following: NewForeignKeyLoader(db, ForeignKeyConfig[int64, model.UserFriend]{
			Name:   "user_friends_following",
			Column: "user_id",
			KeyOf:  func(f model.UserFriend) int64 { return f.UserID },
		}, opts),
		followers: NewForeignKeyLoader(db, ForeignKeyConfig[int64, model.UserFriend]{
			Name:   "user_friends_followers",
			Column: "friend_user_id",
			KeyOf:  func(f model.UserFriend) int64 { return f.FriendUserID },
		}, opts),
		edges: edges,
	}
}

// GetFollowing returns the edges going out of userID, newest first.
func (r *UserFriendRepository) GetFollowing(ctx context.Context, userID int64) ([]model.UserFriend, error) {
	return r.following.Load(ctx, userID)
}

// GetFollowers returns the edges coming into userID, newest first.
func (r *UserFriendRepository) GetFollowers(ctx context.Context, userID int64) ([]model.UserFriend, error) {
	return r.followers.Load(ctx, userID)
}

// IsFollowing reports whether the edge userID -> friendUserID exists.
func (r *UserFriendRepository) IsFollowing(ctx context.Context, userID, friendUserID int64) (bool, error) {
	_, err := r.edges.Load(ctx, userID, friendUserID)
	switch {
	case err == nil:
		return true, nil
	case IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// Follow adds the edge unless it exists and returns it either way.
func (r *UserFriendRepository) Follow(ctx context.Context, userID, friendUserID int64, tx *bun.Tx) (edge *model.UserFriend, err error) {
	defer r.track("follow", time.Now(), &err)
	err = WithTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) error {
		var existing model.UserFriend
		err := tx.NewSelect().Model(&existing).
			Where("?TableAlias.user_id = ? AND ?TableAlias.friend_user_id = ?", userID, friendUserID).
			Scan(ctx)
		if err == nil {
			edge = &existing
			return nil
		}
		if !IsNotFound(translateNoRows(err)) {
			return err
		}
		edge, err = r.Base.Create(ctx, &model.UserFriendCreate{UserID: userID, FriendUserID: friendUserID}, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	r.edges.ForcePrime(*edge)
	return edge, nil
}

// Delete removes the edge in tx, or in a transaction of its own.
func (r *UserFriendRepository) Delete(ctx context.Context, id int64, tx *bun.Tx) (*model.UserFriend, error) {
	return inTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (*model.UserFriend, error) {
		return r.Base.Delete(ctx, id, tx)
	})
}

// Unfollow removes the edge. It reports false when there was none.
func (r *UserFriendRepository) Unfollow(ctx context.Context, userID, friendUserID int64, tx *bun.Tx) (bool, error) {
	var removed []*model.UserFriend
	err := WithTx(ctx, r.db, tx, func(ctx context.Context, tx *bun.Tx) (err error) {
		removed, err = r.DeleteWhere(ctx,
			types.NewQueryFilter("user_id = ? AND friend_user_id = ?", userID, friendUserID), tx)
		return err
	})
	if err != nil {
		return false, err
	}
	return len(removed) > 0, nil
}

// ClearAll empties the id and edge caches.
func (r *UserFriendRepository) ClearAll() {
	r.Base.ClearAll()
	r.edges.ClearAll()
}
