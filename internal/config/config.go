/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend kinds.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendDynamoDB = "dynamodb"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PROXYSTORE_"

// Config holds the CLI settings.
type Config struct {
	Backend    string         `yaml:"backend"`
	LogLevel   string         `yaml:"log_level"`
	LogConsole bool           `yaml:"log_console"`
	SQLite     SQLiteConfig   `yaml:"sqlite"`
	MySQL      MySQLConfig    `yaml:"mysql"`
	DynamoDB   DynamoDBConfig `yaml:"dynamodb"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type MySQLConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Database string        `yaml:"database"`
	User     string        `yaml:"user"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
}

type DynamoDBConfig struct {
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Backend:    BackendSQLite,
		LogLevel:   "info",
		LogConsole: true,
		SQLite:     SQLiteConfig{Path: "proxystore.db"},
		MySQL:      MySQLConfig{Host: "localhost", Port: 3306, Timeout: 10 * time.Second},
		DynamoDB:   DynamoDBConfig{Region: "us-east-1"},
	}
}

// Load reads settings in increasing precedence: defaults, the YAML file at
// path (skipped when path is empty), then PROXYSTORE_* variables, with a
// .env file in the working directory loaded into the environment first.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config load failed (.env): %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"BACKEND":        &cfg.Backend,
		"LOG_LEVEL":      &cfg.LogLevel,
		"SQLITE_PATH":    &cfg.SQLite.Path,
		"MYSQL_HOST":     &cfg.MySQL.Host,
		"MYSQL_DATABASE": &cfg.MySQL.Database,
		"MYSQL_USER":     &cfg.MySQL.User,
		"MYSQL_PASSWORD": &cfg.MySQL.Password,
		"DDB_REGION":     &cfg.DynamoDB.Region,
		"DDB_TABLE":      &cfg.DynamoDB.Table,
		"DDB_ACCESS_KEY": &cfg.DynamoDB.AccessKey,
		"DDB_SECRET_KEY": &cfg.DynamoDB.SecretKey,
		"DDB_ENDPOINT":   &cfg.DynamoDB.Endpoint,
	}
	for name, dst := range strs {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	if v, ok := lookup(EnvPrefix + "LOG_CONSOLE"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sLOG_CONSOLE %q: %w", EnvPrefix, v, err)
		}
		cfg.LogConsole = b
	}
	if v, ok := lookup(EnvPrefix + "MYSQL_PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sMYSQL_PORT %q: %w", EnvPrefix, v, err)
		}
		cfg.MySQL.Port = port
	}
	if v, ok := lookup(EnvPrefix + "MYSQL_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sMYSQL_TIMEOUT %q: %w", EnvPrefix, v, err)
		}
		cfg.MySQL.Timeout = d
	}
	return nil
}

// Validate checks that the selected backend has what it needs.
func Validate(cfg Config) error {
	switch cfg.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(cfg.SQLite.Path) == "" {
			return fmt.Errorf("sqlite config missing path")
		}
	case BackendMySQL:
		if strings.TrimSpace(cfg.MySQL.Host) == "" {
			return fmt.Errorf("mysql config missing host")
		}
		if strings.TrimSpace(cfg.MySQL.Database) == "" {
			return fmt.Errorf("mysql config missing database")
		}
		if cfg.MySQL.Port <= 0 {
			return fmt.Errorf("mysql config port must be positive")
		}
	case BackendDynamoDB:
		if strings.TrimSpace(cfg.DynamoDB.Table) == "" {
			return fmt.Errorf("dynamodb config missing table")
		}
		if strings.TrimSpace(cfg.DynamoDB.Region) == "" {
			return fmt.Errorf("dynamodb config missing region")
		}
		if (cfg.DynamoDB.AccessKey == "") != (cfg.DynamoDB.SecretKey == "") {
			return fmt.Errorf("dynamodb config needs both access_key and secret_key")
		}
	default:
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return nil
}
