/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/suparena/proxystore"
	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/datastore/ddb"
	"github.com/suparena/proxystore/datastore/memory"
	"github.com/suparena/proxystore/datastore/sqlstore"
	"github.com/suparena/proxystore/internal/config"
	"github.com/suparena/proxystore/internal/logging"
	"github.com/suparena/proxystore/mediator"

	// registers Person, Dog and Tag
	_ "github.com/suparena/proxystore/internal/sample"
)

// app is the state shared by all commands.
type app struct {
	cfgFile  string
	backend  string
	logLevel string

	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "proxystore",
		Short: "Manage a proxy object store",
		Long: `proxystore creates and validates the tables of the bundled models,
imports JSON records into them and reports their sizes.

Settings come from a YAML file, a .env file and PROXYSTORE_* variables.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.backend, "backend", "", "backend to use (memory|sqlite|mysql|dynamodb)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(
		newModelsCmd(a),
		newOpenCmd(a),
		newImportCmd(a),
		newCountCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Backend = a.backend
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	a.cfg = cfg
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogConsole)
	return nil
}

// openBackend connects to the configured backend.
func (a *app) openBackend(ctx context.Context) (datastore.Backend, error) {
	switch a.cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendSQLite:
		return sqlstore.OpenSQLite(ctx, a.cfg.SQLite.Path, sqlstore.WithLogger(a.logger))
	case config.BackendMySQL:
		c := a.cfg.MySQL
		return sqlstore.OpenMySQL(ctx, sqlstore.MySQLConfig{
			Host:     c.Host,
			Port:     c.Port,
			Database: c.Database,
			User:     c.User,
			Password: c.Password,
			Timeout:  c.Timeout,
		}, sqlstore.WithLogger(a.logger))
	case config.BackendDynamoDB:
		c := a.cfg.DynamoDB
		return ddb.Open(ctx, ddb.Config{
			Region:    c.Region,
			AccessKey: c.AccessKey,
			SecretKey: c.SecretKey,
			Table:     c.Table,
			Endpoint:  c.Endpoint,
		}, ddb.WithLogger(a.logger))
	}
	return nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
}

func (a *app) mediator() (*mediator.Mediator, error) {
	return mediator.FromRegistry(mediator.WithLogger(a.logger))
}

// openDB opens the store, creating or validating every model table.
func (a *app) openDB(ctx context.Context) (*proxystore.DB, error) {
	m, err := a.mediator()
	if err != nil {
		return nil, err
	}
	backend, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	db, err := proxystore.Open(ctx, backend, m, proxystore.WithLogger(a.logger))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return db, nil
}
