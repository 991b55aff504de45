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
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/stash/utils"
)

// Logger receives integrity warnings. database.Logger satisfies it.
type Logger interface {
	Warn(msg string, fields ...interface{})
}

var (
	fallbackOnce   sync.Once
	fallbackLogger Logger
)

type logrusLogger struct {
	entry *logrus.Logger
}

func (l logrusLogger) Warn(msg string, fields ...interface{}) {
	f := logrus.Fields{}
	for i := 0; i+1 < len(fields); i += 2 {
		f[fmt.Sprint(fields[i])] = fields[i+1]
	}
	l.entry.WithFields(f).Warn(msg)
}

func defaultLogger() Logger {
	fallbackOnce.Do(func() {
		fallbackLogger = logrusLogger{entry: utils.NewLogger("DATALOADER")}
	})
	return fallbackLogger
}
