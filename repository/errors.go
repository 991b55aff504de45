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
	"database/sql"
	"errors"

	"github.com/tomoncle/stash/dataloader"
)

var (
	// ErrNotFound reports a missing or invisible row.
	ErrNotFound = dataloader.ErrNotFound

	// ErrTxRequired is returned by operations that refuse to run outside an
	// explicit transaction.
	ErrTxRequired = errors.New("repository: transaction required")

	// ErrUnknownField is returned when an attribute name maps to no column.
	ErrUnknownField = errors.New("repository: unknown field")

	// ErrEmptyUpdate is returned by an update payload with no field set.
	ErrEmptyUpdate = errors.New("repository: empty update")

	// ErrUnboundedDelete is returned by DeleteWhere without a filter.
	ErrUnboundedDelete = errors.New("repository: delete without filter")

	// ErrInvalidReactionTarget is returned when a reaction does not name
	// exactly one of a link or a highlight.
	ErrInvalidReactionTarget = errors.New("repository: reaction needs exactly one target")
)

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// translateNoRows maps sql.ErrNoRows to ErrNotFound and leaves other errors alone.
func translateNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
