/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package pg

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

// Config holds PostgreSQL connection settings
type Config struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int           `yaml:"maxConns"`
	MaxConnLifetime time.Duration `yaml:"maxConnLifetime"`
	ShowSQL         bool          `yaml:"showSql"`
}

// DSN renders the connection URL
func (c *Config) DSN() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host + ":" + strconv.Itoa(port),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u.RawQuery = url.Values{"sslmode": []string{sslMode}}.Encode()
	return u.String()
}

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DataStore implements datastore.DataStore on a pgx pool, or on a transaction
// when handed to a Transaction body.
type DataStore struct {
	pool    *pgxpool.Pool
	q       querier
	tx      pgx.Tx
	showSQL bool
	loggers ldlog.Loggers
	now     func() time.Time
}

// New connects a pool and verifies it with a ping.
func New(ctx context.Context, cfg *Config, loggers ldlog.Loggers) (*DataStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	loggers.Infof("connected to postgres %s/%s", poolCfg.ConnConfig.Host, cfg.Database)

	ds := NewFromPool(pool, loggers)
	ds.showSQL = cfg.ShowSQL
	return ds, nil
}

// NewFromPool wraps an existing pool
func NewFromPool(pool *pgxpool.Pool, loggers ldlog.Loggers) *DataStore {
	return &DataStore{
		pool:    pool,
		q:       pool,
		loggers: loggers,
		now:     time.Now,
	}
}

// Close releases the pool. It is a no-op on a transaction-bound store.
func (d *DataStore) Close() error {
	if d.tx == nil && d.pool != nil {
		d.pool.Close()
	}
	return nil
}

func (d *DataStore) logSQL(stmt string, args []interface{}) {
	if d.showSQL {
		d.loggers.Debugf("sql: %s %v", stmt, args)
	}
}
