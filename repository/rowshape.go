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
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// ColumnFor resolves an attribute of E to its column. The Go field name, its
// lowerCamel form and the column name itself are accepted.
func ColumnFor[E any](db *bun.DB, field string) (string, error) {
	return columnOf(tableOf[E](db), field)
}

func tableOf[E any](db *bun.DB) *schema.Table {
	return db.Table(reflect.TypeOf((*E)(nil)).Elem())
}

func columnOf(table *schema.Table, field string) (string, error) {
	if f, ok := table.FieldMap[field]; ok {
		return f.Name, nil
	}
	want := strings.ReplaceAll(field, "_", "")
	for _, f := range table.Fields {
		if strings.EqualFold(f.GoName, want) || strings.EqualFold(strings.ReplaceAll(f.Name, "_", ""), want) {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %s has no field %q", ErrUnknownField, table.Type.Name(), field)
}

func hasColumn(table *schema.Table, column string) bool {
	_, ok := table.FieldMap[column]
	return ok
}

type columnValue struct {
	column string
	value  interface{}
}

// updateColumns lists the set fields of an update payload. Nil pointers, maps
// and slices are unset; every other field is always written.
func updateColumns(payload interface{}) []columnValue {
	v := reflect.ValueOf(payload)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	var cols []columnValue
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		tag := sf.Tag.Get("bun")
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Ptr:
			if fv.IsNil() {
				continue
			}
			cols = append(cols, columnValue{name, fv.Elem().Interface()})
		case reflect.Map, reflect.Slice, reflect.Interface:
			if fv.IsNil() {
				continue
			}
			cols = append(cols, columnValue{name, fv.Interface()})
		default:
			cols = append(cols, columnValue{name, fv.Interface()})
		}
	}
	return cols
}
