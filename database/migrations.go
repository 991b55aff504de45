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
	"sort"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// EnvMigrationLog keeps the query log on while migrations run.
const EnvMigrationLog = "STASH_SQL_LOG_MIGRATION"

// Migration is an applied migration record.
type Migration struct {
	bun.BaseModel `bun:"table:stash_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes one migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// IndexSpec is a secondary index created by the index migration.
type IndexSpec struct {
	Table   string
	Name    string
	Columns []string
}

// DefaultIndexes returns the lookup indexes behind the loaders' batch
// queries. Unique keys are declared on the models.
func DefaultIndexes() []IndexSpec {
	return []IndexSpec{
		{"articles", "idx_articles_upload_file_id", []string{"upload_file_id"}},
		{"user_articles", "idx_user_articles_article_id", []string{"article_id"}},
		{"user_articles", "idx_user_articles_user_slug", []string{"user_id", "slug"}},
		{"highlights", "idx_highlights_article_id", []string{"article_id"}},
		{"highlights", "idx_highlights_user_article", []string{"user_id", "article_id"}},
		{"reactions", "idx_reactions_user_article_id", []string{"user_article_id"}},
		{"reactions", "idx_reactions_highlight_id", []string{"highlight_id"}},
		{"reminders", "idx_reminders_remind_at", []string{"remind_at"}},
		{"upload_files", "idx_upload_files_user_id", []string{"user_id"}},
		{"user_friends", "idx_user_friends_friend_user_id", []string{"friend_user_id"}},
		{"article_saving_requests", "idx_article_saving_requests_user_id", []string{"user_id"}},
	}
}

// MigrationManager creates the schema for the registered models.
type MigrationManager struct {
	db     *bun.DB
	logger Logger
	config MigrateConfig
}

func NewMigrationManager(db *bun.DB, logger Logger, config MigrateConfig) *MigrationManager {
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{db: db, logger: logger, config: config}
}

// RunMigrations applies every migration not yet recorded, in version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv(EnvMigrationLog); !ok {
		EnableSilentMode(true)
		defer EnableSilentMode(false)
	}

	if _, err := mm.db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := mm.migrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for _, migration := range migrations {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}
	mm.logger.Info("Database migrations completed!")
	return nil
}

func (mm *MigrationManager) migrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_tables",
			Description: "Create tables of the registered models",
			Up:          mm.createTables,
		},
		{
			Version:     "002",
			Name:        "create_indexes",
			Description: "Create lookup indexes",
			Up:          mm.createIndexes,
		},
	}
	// sqlite cannot add constraints to an existing table.
	if mm.config.EnableForeignKey && mm.db.Dialect().Name() != dialect.SQLite {
		migrations = append(migrations, MigrationItem{
			Version:     "003",
			Name:        "add_foreign_keys",
			Description: "Add foreign key constraints",
			Up:          mm.addForeignKeys,
		})
	}
	return migrations
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(&Migration{
			Version:     migration.Version,
			Name:        migration.Name,
			AppliedAt:   time.Now(),
			Description: migration.Description,
		}).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) createTables(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

func (mm *MigrationManager) createIndexes(ctx context.Context, db bun.IDB) error {
	ifNotExists := mm.db.Dialect().Name() != dialect.MySQL
	for _, idx := range DefaultIndexes() {
		q := db.NewCreateIndex().Table(idx.Table).Index(idx.Name).Column(idx.Columns...)
		if ifNotExists {
			q = q.IfNotExists()
		}
		if _, err := q.Exec(ctx); err != nil {
			if ok, kind := IsSqlError(err); ok && kind == ExistIndexErr {
				continue
			}
			return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
		}
	}
	return nil
}

func (mm *MigrationManager) addForeignKeys(ctx context.Context, db bun.IDB) error {
	fkm, err := NewForeignKeyManager(mm.logger, mm.config.ForeignKeyFile)
	if err != nil {
		return err
	}
	if errs := fkm.Validate(); len(errs) > 0 {
		for _, e := range errs {
			mm.logger.Warn("Foreign key constraint validation failed", "error", e.Error())
		}
		return fmt.Errorf("foreign key constraint validation failed, %d errors in total", len(errs))
	}
	return fkm.AddAllForeignKeys(ctx, db)
}

// AppliedMigrations returns the recorded migrations ordered by version.
func (mm *MigrationManager) AppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}
