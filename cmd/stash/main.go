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
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tomoncle/stash"
	"github.com/tomoncle/stash/database"
	"github.com/tomoncle/stash/repository"
)

var (
	configPath string
	envFile    string
	statsdAddr string
	cfg        *database.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stash",
		Short: "Inspect and maintain the stash read-it-later store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: built-in sqlite config)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before DB_* overrides")
	rootCmd.PersistentFlags().StringVar(&statsdAddr, "statsd", "", "DogStatsD address for loader metrics, e.g. 127.0.0.1:8125")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(healthCmd())
	rootCmd.AddCommand(foreignKeysCmd())
	rootCmd.AddCommand(articleCmd())
	rootCmd.AddCommand(statsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	if err := database.LoadDotEnv(envFile); err != nil {
		return err
	}
	c, err := database.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// openDB connects the global pool. Migrations only run from the migrate
// command.
func openDB(ctx context.Context) error {
	stash.RegisterModels()
	cfg.Migrate.EnableMigrateOnStartup = false
	_, err := database.InitDB(ctx, cfg)
	return err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd() *cobra.Command {
	var foreignKeys bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create tables, indexes and foreign keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := openDB(ctx); err != nil {
				return err
			}
			defer database.CloseDB()

			if cmd.Flags().Changed("foreign-keys") {
				cfg.Migrate.EnableForeignKey = foreignKeys
			}
			mm := database.NewMigrationManager(database.GetDB(), nil, cfg.Migrate)
			if err := mm.RunMigrations(ctx); err != nil {
				return err
			}
			applied, err := mm.AppliedMigrations(ctx)
			if err != nil {
				return err
			}
			return printJSON(applied)
		},
	}
	cmd.Flags().BoolVar(&foreignKeys, "foreign-keys", false, "add foreign key constraints (ignored on sqlite)")
	return cmd
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the database and print pool statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := openDB(ctx); err != nil {
				return err
			}
			defer database.CloseDB()

			return printJSON(map[string]interface{}{
				"health": database.GetHealthStatus(ctx),
				"stats":  database.GetDatabaseStats(),
			})
		},
	}
}

func foreignKeysCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "foreign-keys",
		Short: "Validate the foreign key set and optionally export it as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			fkm, err := database.NewForeignKeyManager(nil, cfg.Migrate.ForeignKeyFile)
			if err != nil {
				return err
			}
			if errs := fkm.Validate(); len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintln(os.Stderr, e)
				}
				return fmt.Errorf("%d invalid foreign keys", len(errs))
			}
			if out != "" {
				return database.ExportForeignKeys(out, fkm.Constraints())
			}
			return printJSON(fkm.Constraints())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "write the constraints to this YAML file")
	return cmd
}

func articleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article",
		Short: "Read articles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>...",
		Short: "Load articles by id in one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := openDB(ctx); err != nil {
				return err
			}
			defer database.CloseDB()

			rows, errs := stash.FromGlobal().Articles.GetMany(ctx, ids)
			out := make([]interface{}, len(ids))
			for i := range ids {
				if errs != nil && errs[i] != nil {
					out[i] = map[string]string{"error": errs[i].Error()}
					continue
				}
				out[i] = rows[i]
			}
			return printJSON(out)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "find <url>",
		Short: "List every stored version of a url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := openDB(ctx); err != nil {
				return err
			}
			defer database.CloseDB()

			rows, err := stash.FromGlobal().Articles.FindByURL(ctx, args[0], nil)
			if err != nil {
				return err
			}
			return printJSON(rows)
		},
	})
	return cmd
}

// statsCmd loads link stats and reports how many statements the batch took.
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <user-article-id>...",
		Short: "Print highlight and annotation counts of saved links",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := openDB(ctx); err != nil {
				return err
			}
			defer database.CloseDB()

			counter := database.NewQueryCounter(false)
			database.GetDB().AddQueryHook(counter)

			var metrics repository.Metrics
			memory := repository.NewMemoryMetrics()
			metrics = memory
			if statsdAddr != "" {
				sd, err := repository.NewStatsdMetrics(statsdAddr, "stash.")
				if err != nil {
					return err
				}
				defer sd.Close()
				metrics = repository.Tee{memory, sd}
			}

			start := time.Now()
			repos := stash.FromGlobal(stash.WithMetrics(metrics))
			stats, errs := repos.UserArticles.StatsMany(ctx, ids)
			if errs != nil {
				for _, e := range errs {
					if e != nil {
						return e
					}
				}
			}
			return printJSON(map[string]interface{}{
				"stats":      stats,
				"queries":    counter.Count(),
				"elapsed":    time.Since(start).String(),
				"batchCalls": memory.Counter("stash.article_stats.batch.calls"),
			})
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", a, err)
		}
		ids[i] = id
	}
	return ids, nil
}
