/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

package topology

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/carverauto/fabricsync/pkg/logger"
)

const migrationsTable = "topology_schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies every embedded .up.sql file that has not been
// recorded yet, in file name order.
func RunMigrations(ctx context.Context, db PgxDatabase, log logger.Logger) error {
	if _, err := db.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		version     TEXT PRIMARY KEY,
		applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, migrationsTable)); err != nil {
		return fmt.Errorf("topology migrations: create tracking table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	filenames, err := pendingMigrations(migrationsFS, applied)
	if err != nil {
		return err
	}

	for _, name := range filenames {
		log.Info().Str("migration", name).Msg("applying topology migration")

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("topology migrations: read %s: %w", name, err)
		}

		for idx, stmt := range splitSQLStatements(string(content)) {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("topology migrations: statement %d in %s failed: %w", idx+1, name, err)
			}
		}

		if _, err := db.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (version) VALUES ($1)`, migrationsTable), extractVersion(name)); err != nil {
			return fmt.Errorf("topology migrations: record %s: %w", name, err)
		}

		log.Info().Str("migration", name).Msg("topology migration complete")
	}

	return nil
}

func appliedVersions(ctx context.Context, db PgxDatabase) (map[string]struct{}, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`SELECT version FROM %s`, migrationsTable))
	if err != nil {
		return nil, fmt.Errorf("topology migrations: list applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("topology migrations: scan applied version: %w", err)
		}

		applied[version] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("topology migrations: iterate applied versions: %w", err)
	}

	return applied, nil
}

func pendingMigrations(fsys fs.FS, applied map[string]struct{}) ([]string, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("topology migrations: read embedded migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// .down.sql files are for manual rollbacks only
		if !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		if _, ok := applied[extractVersion(entry.Name())]; ok {
			continue
		}

		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)

	return filenames, nil
}

// splitSQLStatements splits on statement-terminating semicolons at line end,
// dropping blank and comment lines.
func splitSQLStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
	)

	flush := func() {
		stmt := strings.TrimSuffix(strings.TrimSpace(current.String()), ";")
		if stmt != "" {
			statements = append(statements, stmt)
		}

		current.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n")
		}

		current.WriteString(line)

		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	flush()

	return statements
}

func extractVersion(filename string) string {
	version, _, _ := strings.Cut(filename, "_")
	return version
}
