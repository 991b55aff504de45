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

package dataloader

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrCompositeKeyCollision means a key part contains the codec separator, so
// two different tuples could serialize to the same key.
var ErrCompositeKeyCollision = errors.New("dataloader: composite key part contains separator")

// DefaultSeparator is the unit separator control character, which never
// appears in ids, urls or hashes.
const DefaultSeparator = "\x1f"

// NullPart encodes a nil part, so NULL and "" never share a key.
const NullPart = "\x00"

// KeyCodec serializes ordered key parts into one comparable string.
type KeyCodec struct {
	Separator string
}

// NewKeyCodec returns a codec using DefaultSeparator.
func NewKeyCodec() KeyCodec {
	return KeyCodec{Separator: DefaultSeparator}
}

func (c KeyCodec) sep() string {
	if c.Separator == "" {
		return DefaultSeparator
	}
	return c.Separator
}

// Encode joins parts with the separator. Nil parts, including nil pointers,
// encode as NullPart. A part that contains the separator or NullPart is
// rejected with ErrCompositeKeyCollision.
func (c KeyCodec) Encode(parts ...interface{}) (string, error) {
	sep := c.sep()
	strs := make([]string, len(parts))
	for i, p := range parts {
		s, ok := partString(p)
		if !ok {
			strs[i] = NullPart
			continue
		}
		if strings.Contains(s, sep) || strings.Contains(s, NullPart) {
			return "", fmt.Errorf("%w: part %d %q", ErrCompositeKeyCollision, i, s)
		}
		strs[i] = s
	}
	return strings.Join(strs, sep), nil
}

// MustEncode is Encode for parts that are known to be valid, such as values
// read back from the store after a successful Encode of the same tuple.
func (c KeyCodec) MustEncode(parts ...interface{}) string {
	key, err := c.Encode(parts...)
	if err != nil {
		panic(err)
	}
	return key
}

// Decode splits key into exactly n parts.
func (c KeyCodec) Decode(key string, n int) ([]string, error) {
	parts := strings.Split(key, c.sep())
	if len(parts) != n {
		return nil, fmt.Errorf("dataloader: invalid composite key %q, want %d parts", key, n)
	}
	return parts, nil
}

// partString reports false for nil and nil pointers.
func partString(p interface{}) (string, bool) {
	if p == nil {
		return "", false
	}
	if v := reflect.ValueOf(p); v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", false
		}
		p = v.Elem().Interface()
	}
	switch v := p.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
