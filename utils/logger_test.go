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
package utils

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvDefaults(t *testing.T) {
	t.Setenv("STASH_TEST_INT", " 12 ")
	t.Setenv("STASH_TEST_BAD", "x")
	t.Setenv("STASH_TEST_BOOL", "true")
	t.Setenv("STASH_TEST_DUR", "5ms")
	t.Setenv("STASH_TEST_BLANK", "  ")

	assert.Equal(t, 12, EnvDefaultInt("STASH_TEST_INT", 1))
	assert.Equal(t, 1, EnvDefaultInt("STASH_TEST_BAD", 1))
	assert.True(t, EnvDefaultBool("STASH_TEST_BOOL", false))
	assert.False(t, EnvDefaultBool("STASH_TEST_BAD", false))
	assert.Equal(t, 5*time.Millisecond, EnvDefaultDuration("STASH_TEST_DUR", time.Second))
	assert.Equal(t, "def", EnvDefaultString("STASH_TEST_BLANK", "def"))
	assert.Equal(t, "def", EnvDefaultString("STASH_TEST_UNSET", "def"))
}

func TestNamedLoggerRegistry(t *testing.T) {
	l := NewLogger("utils-test")
	assert.Same(t, l, NewLogger("utils-test"))
	assert.True(t, SetLoggerLevel("utils-test", "debug"))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("missing", "debug"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("WARNING"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("nonsense"))
}

func TestFormatters(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "batch result count mismatch",
		Data:    logrus.Fields{"returned": 1, "loader": "articles", "err": errors.New("x")},
	}

	text, err := (&TextLogFormatter{LoggerName: "DB"}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06 07:08:09.000 WARNING [DB] batch result count mismatch err=x loader=articles returned=1\n", string(text))

	raw, err := (&JSONLogFormatter{LoggerName: "DB"}).Format(entry)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(raw), "\n"))
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "x", out["err"])
	assert.Equal(t, "DB", out["logger"])
	assert.Equal(t, "warning", out["level"])
}
