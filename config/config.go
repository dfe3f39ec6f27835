/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"gopkg.in/yaml.v3"

	"github.com/suparena/fpmstore/datastore/ddb"
	"github.com/suparena/fpmstore/datastore/pg"
	"github.com/suparena/fpmstore/events"
)

// Supported values for DBConfig.Engine
const (
	EnginePostgres = "postgres"
	EngineDynamoDB = "dynamodb"
	EngineMemory   = "memory"
)

const (
	defaultAddr          = ":9090"
	defaultPath          = "/api"
	defaultTimestampSkew = 5 * time.Minute
)

// Config is the server configuration file.
type Config struct {
	Server  ServerConfig `yaml:"server"`
	Log     LogConfig    `yaml:"log"`
	DB      DBConfig     `yaml:"db"`
	Apps    []AppConfig  `yaml:"apps"`
	Schemas string       `yaml:"schemas"`
	Events  EventsConfig `yaml:"events"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path"`
	// TimestampSkew bounds the distance between a request timestamp and the
	// server clock. Zero disables the check.
	TimestampSkew time.Duration `yaml:"timestampSkew"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type DBConfig struct {
	Engine     string     `yaml:"engine"`
	Migrations string     `yaml:"migrations"`
	Postgres   pg.Config  `yaml:"postgres"`
	DynamoDB   ddb.Config `yaml:"dynamodb"`
}

// AppConfig is one client application allowed to call the API.
type AppConfig struct {
	Name      string `yaml:"name"`
	AppKey    string `yaml:"appkey"`
	MasterKey string `yaml:"masterKey"`
}

// EventsConfig enables change events when Kafka is set.
type EventsConfig struct {
	Kafka *events.KafkaConfig `yaml:"kafka"`
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          defaultAddr,
			Path:          defaultPath,
			TimestampSkew: defaultTimestampSkew,
		},
		Log: LogConfig{Level: "info"},
		DB:  DBConfig{Engine: EngineMemory},
	}
}

// LoadEnv reads .env style files into the process environment. Missing files
// are ignored and variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the YAML file at path and applies FPM_* environment overrides.
// An empty path yields the defaults plus the environment.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		data = b
	}
	return parse(data, os.LookupEnv)
}

// Parse decodes YAML without looking at the environment.
func Parse(data []byte) (*Config, error) {
	return parse(data, func(string) (string, bool) { return "", false })
}

func parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("FPM_SERVER_ADDR", &cfg.Server.Addr)
	str("FPM_SERVER_PATH", &cfg.Server.Path)
	str("FPM_LOG_LEVEL", &cfg.Log.Level)
	str("FPM_DB_ENGINE", &cfg.DB.Engine)
	str("FPM_DB_MIGRATIONS", &cfg.DB.Migrations)
	str("FPM_SCHEMAS", &cfg.Schemas)

	str("FPM_PG_HOST", &cfg.DB.Postgres.Host)
	str("FPM_PG_USER", &cfg.DB.Postgres.User)
	str("FPM_PG_PASSWORD", &cfg.DB.Postgres.Password)
	str("FPM_PG_DATABASE", &cfg.DB.Postgres.Database)
	str("FPM_PG_SSLMODE", &cfg.DB.Postgres.SSLMode)
	if v, ok := lookup("FPM_PG_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FPM_PG_PORT %q: %w", v, err)
		}
		cfg.DB.Postgres.Port = port
	}

	str("FPM_DDB_REGION", &cfg.DB.DynamoDB.Region)
	str("FPM_DDB_ENDPOINT", &cfg.DB.DynamoDB.Endpoint)
	str("FPM_DDB_ACCESS_KEY", &cfg.DB.DynamoDB.AccessKey)
	str("FPM_DDB_SECRET_KEY", &cfg.DB.DynamoDB.SecretKey)
	str("FPM_DDB_TABLE_PREFIX", &cfg.DB.DynamoDB.TablePrefix)

	if v, ok := lookup("FPM_SERVER_TIMESTAMP_SKEW"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FPM_SERVER_TIMESTAMP_SKEW %q: %w", v, err)
		}
		cfg.Server.TimestampSkew = d
	}

	if v, ok := lookup("FPM_KAFKA_BROKERS"); ok && v != "" {
		if cfg.Events.Kafka == nil {
			cfg.Events.Kafka = &events.KafkaConfig{}
		}
		cfg.Events.Kafka.Brokers = splitList(v)
	}
	if v, ok := lookup("FPM_KAFKA_TOPIC"); ok && v != "" {
		if cfg.Events.Kafka == nil {
			cfg.Events.Kafka = &events.KafkaConfig{}
		}
		cfg.Events.Kafka.Topic = v
	}

	appKey, _ := lookup("FPM_APPKEY")
	masterKey, _ := lookup("FPM_MASTERKEY")
	if appKey != "" && masterKey != "" {
		cfg.Apps = append(cfg.Apps, AppConfig{Name: "env", AppKey: appKey, MasterKey: masterKey})
	}
	return nil
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the engine, log level and app keys.
func (c *Config) Validate() error {
	switch c.DB.Engine {
	case EnginePostgres, EngineDynamoDB, EngineMemory:
	case "pg":
		c.DB.Engine = EnginePostgres
	case "ddb":
		c.DB.Engine = EngineDynamoDB
	default:
		return fmt.Errorf("unknown db engine %q", c.DB.Engine)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Server.Path == "" || !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server path must start with '/', got %q", c.Server.Path)
	}
	if c.Server.TimestampSkew < 0 {
		return fmt.Errorf("server timestampSkew must not be negative")
	}
	seen := make(map[string]bool, len(c.Apps))
	for i, app := range c.Apps {
		if app.AppKey == "" || app.MasterKey == "" {
			return fmt.Errorf("apps[%d] requires appkey and masterKey", i)
		}
		if seen[app.AppKey] {
			return fmt.Errorf("duplicate appkey %q", app.AppKey)
		}
		seen[app.AppKey] = true
	}
	return nil
}

// Keys returns the master key of every app indexed by appkey.
func (c *Config) Keys() map[string]string {
	keys := make(map[string]string, len(c.Apps))
	for _, app := range c.Apps {
		keys[app.AppKey] = app.MasterKey
	}
	return keys
}

// ParseLevel maps a level name onto an ldlog level. An empty name is info.
func ParseLevel(name string) (ldlog.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return ldlog.Debug, nil
	case "", "info":
		return ldlog.Info, nil
	case "warn", "warning":
		return ldlog.Warn, nil
	case "error":
		return ldlog.Error, nil
	case "none", "off":
		return ldlog.None, nil
	}
	return ldlog.Info, fmt.Errorf("unknown log level %q", name)
}

// Loggers builds stderr loggers filtered at the configured level.
func (c *LogConfig) Loggers() ldlog.Loggers {
	level, err := ParseLevel(c.Level)
	loggers := ldlog.Loggers{}
	loggers.SetBaseLogger(log.New(os.Stderr, "[fpmstore] ", log.LstdFlags))
	loggers.SetMinLevel(level)
	if err != nil {
		loggers.Warnf("%v, using info", err)
	}
	return loggers
}
