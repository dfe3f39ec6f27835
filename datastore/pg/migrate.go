/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pg

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/suparena/fpmstore/datastore"
)

const migrationTable = "migration_histories"

const createMigrationTable = `CREATE TABLE IF NOT EXISTS migration_histories (
	id bigserial PRIMARY KEY,
	version varchar(64) NOT NULL,
	description varchar(255) NOT NULL DEFAULT '',
	script varchar(255) NOT NULL,
	success boolean NOT NULL DEFAULT true,
	installed_at timestamptz NOT NULL DEFAULT now()
)`

var migrationName = regexp.MustCompile(`^V([0-9]+(?:[._][0-9]+)*)__(.+)\.sql$`)

// Migration is one versioned script, named V<version>__<description>.sql.
type Migration struct {
	Version     string
	Description string
	Script      string
}

// ParseMigrationName reads the version and description from a script file name.
func ParseMigrationName(name string) (Migration, bool) {
	m := migrationName.FindStringSubmatch(name)
	if m == nil {
		return Migration{}, false
	}
	return Migration{
		Version:     m[1],
		Description: strings.ReplaceAll(m[2], "_", " "),
		Script:      name,
	}, true
}

// CompareVersions compares dotted or underscored numeric versions segment by segment.
func CompareVersions(a, b string) int {
	split := func(v string) []string {
		return strings.FieldsFunc(v, func(r rune) bool { return r == '.' || r == '_' })
	}
	as, bs := split(a), split(b)
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			x, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			y, _ = strconv.Atoi(bs[i])
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// Pending lists the scripts in fsys newer than installed, ordered by version.
func Pending(fsys fs.FS, installed string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m, ok := ParseMigrationName(e.Name())
		if !ok {
			continue
		}
		if installed == "" || CompareVersions(m.Version, installed) > 0 {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return CompareVersions(out[i].Version, out[j].Version) < 0
	})
	return out, nil
}

// AutoMigrate applies the pending scripts of dir.
func (d *DataStore) AutoMigrate(ctx context.Context, dir string) error {
	return d.MigrateFS(ctx, os.DirFS(dir))
}

// MigrateFS applies each pending script of fsys in its own transaction together
// with its migration_histories row.
func (d *DataStore) MigrateFS(ctx context.Context, fsys fs.FS) error {
	if _, err := d.q.Exec(ctx, createMigrationTable); err != nil {
		return fmt.Errorf("failed to create %s: %w", migrationTable, err)
	}

	installed, err := d.installedVersion(ctx)
	if err != nil {
		return err
	}
	pending, err := Pending(fsys, installed)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		d.loggers.Debugf("migrations up to date at version %q", installed)
		return nil
	}

	for _, m := range pending {
		script, err := fs.ReadFile(fsys, m.Script)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", m.Script, err)
		}
		err = d.Transaction(ctx, func(tx datastore.DataStore) error {
			txStore := tx.(*DataStore)
			if _, err := txStore.q.Exec(ctx, string(script)); err != nil {
				return err
			}
			_, err := txStore.q.Exec(ctx,
				"INSERT INTO migration_histories (version, description, script) VALUES ($1, $2, $3)",
				m.Version, m.Description, m.Script)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Script, err)
		}
		d.loggers.Infof("applied migration %s", m.Script)
	}
	return nil
}

func (d *DataStore) installedVersion(ctx context.Context) (string, error) {
	rows, err := d.q.Query(ctx, "SELECT version FROM migration_histories WHERE success")
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", migrationTable, err)
	}
	defer rows.Close()

	var latest string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return "", err
		}
		if latest == "" || CompareVersions(v, latest) > 0 {
			latest = v
		}
	}
	return latest, rows.Err()
}

var _ datastore.Migrator = (*DataStore)(nil)
