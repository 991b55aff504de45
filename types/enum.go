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

package types

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "UNKNOWN"
)

// BaseEnum is implemented by the status enums stored as text columns.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Name() string
}

// EnumOf returns the member of values whose Name matches name, or fallback.
func EnumOf[E BaseEnum](name string, values []E, fallback E) E {
	for _, v := range values {
		if v.Name() == name {
			return v
		}
	}
	return fallback
}
