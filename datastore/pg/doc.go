/*
Package pg provides a PostgreSQL implementation of the DataStore interface on jackc/pgx/v5.

Conditions are SQL fragments with "?" placeholders, rebound to $n before execution.
Every statement is restricted to live rows:

	SELECT "id", "name" FROM "fake" WHERE (name = $1) and "deleted_at" is null ORDER BY "id" DESC LIMIT 10

Remove is a soft delete that stamps deleted_at; Updates stamps updated_at.
The virtual fields createAt and updateAt select the managed timestamps as epoch milliseconds.

Usage:

	ds, err := pg.New(ctx, &pg.Config{
	    Host:     "localhost",
	    Port:     5432,
	    User:     "fpm",
	    Password: "secret",
	    Database: "fpm",
	}, loggers)

	if err := ds.AutoMigrate(ctx, "./migrations"); err != nil {
	    return err
	}

AutoMigrate applies scripts named V<version>__<description>.sql that are newer than the
last version recorded in migration_histories.
*/
package pg
