//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxystore_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/proxystore"
	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/datastore/ddb"
	"github.com/suparena/proxystore/datastore/sqlstore"
	"github.com/suparena/proxystore/internal/sample"
	"github.com/suparena/proxystore/mediator"
)

func openIntegrationDB(t *testing.T, backend datastore.Backend) *proxystore.DB {
	t.Helper()
	m, err := mediator.FromRegistry()
	require.NoError(t, err)
	db, err := proxystore.Open(context.Background(), backend, m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func integrationBackends(t *testing.T) map[string]datastore.Backend {
	_ = godotenv.Load()
	ctx := context.Background()
	backends := make(map[string]datastore.Backend)

	lite, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "proxystore.db"))
	require.NoError(t, err)
	backends["sqlite"] = lite

	if table := os.Getenv("AWS_DDB_TABLE"); table != "" {
		b, err := ddb.Open(ctx, ddb.Config{
			Region:    os.Getenv("AWS_REGION"),
			AccessKey: os.Getenv("AWS_ACCESS_KEY"),
			SecretKey: os.Getenv("AWS_SECRET_KEY"),
			Table:     table,
			Endpoint:  os.Getenv("AWS_DDB_ENDPOINT"),
		})
		require.NoError(t, err)
		backends["dynamodb"] = b
	}

	if host := os.Getenv("MYSQL_HOST"); host != "" {
		b, err := sqlstore.OpenMySQL(ctx, sqlstore.MySQLConfig{
			Host:     host,
			Port:     3306,
			Database: os.Getenv("MYSQL_DATABASE"),
			User:     os.Getenv("MYSQL_USER"),
			Password: os.Getenv("MYSQL_PASSWORD"),
			Timeout:  5 * time.Second,
		})
		require.NoError(t, err)
		backends["mysql"] = b
	}
	return backends
}

func TestIntegrationCopyAndImport(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	for name, backend := range integrationBackends(t) {
		t.Run(name, func(t *testing.T) {
			db := openIntegrationDB(t, backend)
			id := time.Now().UnixNano()
			tag := fmt.Sprintf("tag-%d", id)

			ann := &sample.Person{ID: id, Name: "Ann", Tags: []*sample.Tag{{Name: tag}}}
			ann.Dog = &sample.Dog{Name: "Rex", Owner: ann}
			err := db.Update(ctx, func(tx *proxystore.Tx) error {
				if _, err := tx.CopyToStore(ctx, ann); err != nil {
					return err
				}
				doc := fmt.Sprintf(`{"id":%d,"name":"Bob","tags":[{"name":%q}]}`, id+1, tag+"-b")
				_, err := tx.CreateObjectFromJSONStream(ctx, sample.PersonType, strings.NewReader(doc))
				return err
			})
			require.NoError(t, err)

			tx, err := db.Begin(ctx)
			require.NoError(t, err)
			defer tx.Rollback(ctx)

			o, err := tx.FindByPrimaryKey(ctx, sample.PersonType, id)
			require.NoError(t, err)
			p := o.(*sample.PersonProxy)
			dog, err := p.Dog(ctx)
			require.NoError(t, err)
			owner, err := dog.Owner(ctx)
			require.NoError(t, err)
			assert.Equal(t, p.Row().Index(), owner.Row().Index())

			o, err = tx.FindByPrimaryKey(ctx, sample.PersonType, id+1)
			require.NoError(t, err)
			assert.Equal(t, "Bob", o.(*sample.PersonProxy).Name())
		})
	}
}
