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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status string

func (s status) String() string { return "status:" + string(s) }

func TestKeyCodec(t *testing.T) {
	c := NewKeyCodec()

	key, err := c.Encode(int64(7), "slug", status("ok"))
	require.NoError(t, err)
	assert.Equal(t, "7\x1fslug\x1fstatus:ok", key)

	parts, err := c.Decode(key, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "slug", "status:ok"}, parts)

	_, err = c.Decode(key, 2)
	assert.Error(t, err)
}

func TestKeyCodecNormalizesIntegerWidths(t *testing.T) {
	c := NewKeyCodec()
	assert.Equal(t, c.MustEncode(int64(5), 6), c.MustEncode(5, int32(6)))

	id := int64(9)
	assert.Equal(t, "9", c.MustEncode(&id))
	assert.Equal(t, NullPart, c.MustEncode((*int64)(nil)))
}

func TestKeyCodecKeepsNullApartFromEmpty(t *testing.T) {
	c := NewKeyCodec()
	empty := c.MustEncode(int64(1), "")
	assert.NotEqual(t, empty, c.MustEncode(int64(1), nil))
	assert.NotEqual(t, empty, c.MustEncode(int64(1), (*string)(nil)))
	assert.Equal(t, c.MustEncode(int64(1), nil), c.MustEncode(int64(1), (*string)(nil)))

	s := ""
	assert.Equal(t, empty, c.MustEncode(int64(1), &s))

	_, err := c.Encode(int64(1), NullPart)
	assert.ErrorIs(t, err, ErrCompositeKeyCollision)
}

func TestKeyCodecRejectsSeparator(t *testing.T) {
	c := NewKeyCodec()
	_, err := c.Encode(1, "a\x1fb")
	assert.ErrorIs(t, err, ErrCompositeKeyCollision)

	custom := KeyCodec{Separator: "|"}
	_, err = custom.Encode("a|b", "c")
	assert.ErrorIs(t, err, ErrCompositeKeyCollision)
	assert.Panics(t, func() { custom.MustEncode("x|y") })
}
