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
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

const hookTimeFormat = "2006-01-02 15:04:05.000"

var (
	silentMu   sync.RWMutex
	silentMode bool
)

// EnableSilentMode mutes the query log and slow query hooks.
func EnableSilentMode(b bool) {
	silentMu.Lock()
	silentMode = b
	silentMu.Unlock()
}

func silenced() bool {
	silentMu.RLock()
	defer silentMu.RUnlock()
	return silentMode
}

var (
	operationColors = map[string]*color.Color{
		"SELECT": color.New(color.FgGreen),
		"INSERT": color.New(color.FgBlue),
		"UPDATE": color.New(color.FgYellow),
		"DELETE": color.New(color.FgMagenta),
	}
	operationBackgrounds = map[string]*color.Color{
		"SELECT": color.New(color.BgGreen, color.FgHiWhite),
		"INSERT": color.New(color.BgBlue, color.FgHiWhite),
		"UPDATE": color.New(color.BgYellow, color.FgHiWhite),
		"DELETE": color.New(color.BgMagenta, color.FgHiWhite),
	}
	otherColor      = color.New(color.FgRed)
	otherBackground = color.New(color.BgRed, color.FgHiWhite)
	tagColor        = color.New(color.FgCyan)
	slowTagColor    = color.New(color.FgYellow)
	errorColor      = color.New(color.BgRed)
)

// QueryLogHook prints executed statements. Only failures are printed unless
// verbose; the env variable named envName overrides both switches ("0" off,
// "1" failures, "2" everything).
type QueryLogHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

var _ bun.QueryHook = (*QueryLogHook)(nil)

func NewQueryLogHook(envName string, enabled, verbose bool, w io.Writer) *QueryLogHook {
	if w == nil {
		w = os.Stdout
	}
	return &QueryLogHook{envName: envName, enabled: enabled, verbose: verbose, writer: w}
}

func (h *QueryLogHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if silenced() {
		return
	}
	enabled, verbose := h.enabled, h.verbose
	if env, ok := os.LookupEnv(h.envName); ok {
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	args := []interface{}{
		now.Format(hookTimeFormat),
		tagColor.Sprintf("%12s", "[SQL]"),
		fmt.Sprintf("%14s", now.Sub(event.StartTime).Round(time.Microsecond)),
		" ", colorize(operationColors, otherColor, event),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, "\t", errorColor.Sprintf(" %s: %s ", typ, event.Err.Error()))
	}
	_, _ = fmt.Fprintln(h.writer, args...)
}

// SlowQueryHook prints successful statements slower than threshold. The env
// variable named envName set to "1" enables it.
type SlowQueryHook struct {
	envName   string
	enabled   bool
	threshold time.Duration
	writer    io.Writer
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

func NewSlowQueryHook(envName string, enabled bool, threshold time.Duration, w io.Writer) *SlowQueryHook {
	if w == nil {
		w = os.Stdout
	}
	return &SlowQueryHook{envName: envName, enabled: enabled, threshold: threshold, writer: w}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	if silenced() || event.Err != nil {
		return
	}
	enabled := h.enabled
	if env, ok := os.LookupEnv(h.envName); ok {
		enabled = strings.TrimSpace(env) == "1"
	}
	if !enabled {
		return
	}
	duration := time.Since(event.StartTime)
	if duration <= h.threshold {
		return
	}
	_, _ = fmt.Fprintln(h.writer,
		time.Now().Format(hookTimeFormat),
		slowTagColor.Sprintf("%12s", "[SQL_SLOW]"),
		fmt.Sprintf("%14s", duration.Round(time.Microsecond)),
		" ", colorize(operationBackgrounds, otherBackground, event),
	)
}

func colorize(palette map[string]*color.Color, fallback *color.Color, event *bun.QueryEvent) string {
	c, ok := palette[event.Operation()]
	if !ok {
		c = fallback
	}
	return c.Sprint(event.Query)
}

// QueryCounter counts executed statements per operation. It backs the batch
// assertions in tests and the stats command.
type QueryCounter struct {
	mu      sync.Mutex
	total   int
	byOp    map[string]int
	queries []string
	keep    bool
}

var _ bun.QueryHook = (*QueryCounter)(nil)

// NewQueryCounter returns a counter. With keep set the statement texts are
// retained as well.
func NewQueryCounter(keep bool) *QueryCounter {
	return &QueryCounter{byOp: make(map[string]int), keep: keep}
}

func (c *QueryCounter) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (c *QueryCounter) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	c.byOp[event.Operation()]++
	if c.keep {
		c.queries = append(c.queries, event.Query)
	}
}

// Count returns the number of statements seen since the last Reset.
func (c *QueryCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// CountOf returns the number of statements of one operation, e.g. "SELECT".
func (c *QueryCounter) CountOf(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byOp[strings.ToUpper(op)]
}

// Queries returns the retained statements.
func (c *QueryCounter) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

func (c *QueryCounter) Reset() {
	c.mu.Lock()
	c.total = 0
	c.byOp = make(map[string]int)
	c.queries = nil
	c.mu.Unlock()
}
