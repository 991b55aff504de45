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
	"fmt"
	"os"
	"strings"

	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"
)

var validActions = []string{"CASCADE", "RESTRICT", "SET NULL", "NO ACTION"}

// ForeignKeyConstraint describes a foreign key between two tables.
type ForeignKeyConstraint struct {
	Table           string `yaml:"table"`
	Column          string `yaml:"column"`
	ReferenceTable  string `yaml:"reference_table"`
	ReferenceColumn string `yaml:"reference_column"`
	OnDelete        string `yaml:"on_delete,omitempty"` // CASCADE, RESTRICT, SET NULL, NO ACTION
	OnUpdate        string `yaml:"on_update,omitempty"`
	ConstraintName  string `yaml:"constraint_name,omitempty"`
}

// ForeignKeyConfig is the YAML file layout for constraint overrides.
type ForeignKeyConfig struct {
	ForeignKeys []ForeignKeyConstraint `yaml:"foreign_keys"`
}

// Name returns the explicit constraint name or fk_<table>_<column>.
func (fk *ForeignKeyConstraint) Name() string {
	if fk.ConstraintName != "" {
		return fk.ConstraintName
	}
	return fmt.Sprintf("fk_%s_%s", fk.Table, fk.Column)
}

// GenerateSQL returns the ALTER TABLE statement adding the constraint.
func (fk *ForeignKeyConstraint) GenerateSQL() string {
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		fk.Table, fk.Name(), fk.Column, fk.ReferenceTable, fk.ReferenceColumn)
	if fk.OnDelete != "" {
		sql += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" {
		sql += " ON UPDATE " + fk.OnUpdate
	}
	return sql
}

func fk(table, column, refTable, onDelete string) ForeignKeyConstraint {
	return ForeignKeyConstraint{
		Table:           table,
		Column:          column,
		ReferenceTable:  refTable,
		ReferenceColumn: "id",
		OnDelete:        onDelete,
	}
}

// DefaultForeignKeys returns the constraints of the stash schema.
func DefaultForeignKeys() []ForeignKeyConstraint {
	return []ForeignKeyConstraint{
		fk("user_profiles", "user_id", "users", "CASCADE"),
		fk("user_friends", "user_id", "users", "CASCADE"),
		fk("user_friends", "friend_user_id", "users", "CASCADE"),
		fk("upload_files", "user_id", "users", "CASCADE"),
		fk("articles", "upload_file_id", "upload_files", "SET NULL"),
		fk("user_articles", "user_id", "users", "CASCADE"),
		fk("user_articles", "article_id", "articles", "CASCADE"),
		fk("highlights", "user_id", "users", "CASCADE"),
		fk("highlights", "article_id", "articles", "CASCADE"),
		fk("reactions", "user_id", "users", "CASCADE"),
		fk("reactions", "user_article_id", "user_articles", "CASCADE"),
		fk("reactions", "highlight_id", "highlights", "CASCADE"),
		fk("article_saving_requests", "user_id", "users", "CASCADE"),
		fk("article_saving_requests", "article_id", "articles", "SET NULL"),
		fk("reminders", "user_id", "users", "CASCADE"),
		fk("reminders", "article_saving_request_id", "article_saving_requests", "CASCADE"),
		fk("reminders", "link_id", "user_articles", "CASCADE"),
	}
}

// ForeignKeyManager adds and validates foreign key constraints.
type ForeignKeyManager struct {
	constraints []ForeignKeyConstraint
	logger      Logger
}

// NewForeignKeyManager returns a manager for the default constraints, or for
// the constraints of configPath when that file exists.
func NewForeignKeyManager(logger Logger, configPath string) (*ForeignKeyManager, error) {
	if logger == nil {
		logger = GetLogger()
	}
	m := &ForeignKeyManager{constraints: DefaultForeignKeys(), logger: logger}
	if configPath == "" {
		return m, nil
	}
	constraints, err := LoadForeignKeys(configPath)
	if err != nil {
		return nil, err
	}
	m.constraints = constraints
	return m, nil
}

// LoadForeignKeys reads constraints from a YAML file.
func LoadForeignKeys(path string) ([]ForeignKeyConstraint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign key file: %w", err)
	}
	var config ForeignKeyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse foreign key file: %w", err)
	}
	return config.ForeignKeys, nil
}

// ExportForeignKeys writes constraints as YAML.
func ExportForeignKeys(path string, constraints []ForeignKeyConstraint) error {
	data, err := yaml.Marshal(&ForeignKeyConfig{ForeignKeys: constraints})
	if err != nil {
		return fmt.Errorf("failed to serialize foreign keys: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// AddAllForeignKeys adds every constraint. Constraints that already exist are
// logged and skipped.
func (fkm *ForeignKeyManager) AddAllForeignKeys(ctx context.Context, db bun.IDB) error {
	for _, constraint := range fkm.constraints {
		if _, err := db.ExecContext(ctx, constraint.GenerateSQL()); err != nil {
			fkm.logger.Debug("Failed to add foreign key constraint", "constraint", constraint.Name(), "error", err.Error())
			continue
		}
		fkm.logger.Debug("Added foreign key constraint", "constraint", constraint.Name())
	}
	return nil
}

// ConstraintsOf returns the constraints declared on table.
func (fkm *ForeignKeyManager) ConstraintsOf(table string) []ForeignKeyConstraint {
	var result []ForeignKeyConstraint
	for _, constraint := range fkm.constraints {
		if strings.EqualFold(constraint.Table, table) {
			result = append(result, constraint)
		}
	}
	return result
}

func (fkm *ForeignKeyManager) Constraints() []ForeignKeyConstraint {
	return fkm.constraints
}

// Validate checks every constraint for empty names and unknown actions.
func (fkm *ForeignKeyManager) Validate() []error {
	var errs []error
	for _, c := range fkm.constraints {
		if c.Table == "" || c.Column == "" || c.ReferenceTable == "" || c.ReferenceColumn == "" {
			errs = append(errs, fmt.Errorf("incomplete foreign key: %s.%s -> %s.%s", c.Table, c.Column, c.ReferenceTable, c.ReferenceColumn))
		}
		for _, action := range []string{c.OnDelete, c.OnUpdate} {
			if action != "" && !isValidAction(action) {
				errs = append(errs, fmt.Errorf("invalid referential action %q on %s", action, c.Name()))
			}
		}
	}
	return errs
}

func isValidAction(action string) bool {
	for _, a := range validActions {
		if strings.EqualFold(action, a) {
			return true
		}
	}
	return false
}
