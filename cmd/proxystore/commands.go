/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/suparena/proxystore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/proxy"
	"github.com/suparena/proxystore/storagemodels"
)

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the model types with their tables and fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.mediator()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "TYPE\tTABLE\tFIELDS")
			for _, t := range m.ModelTypes() {
				table, err := m.TableName(t)
				if err != nil {
					return err
				}
				fields, err := m.FieldNames(t)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", t, table, strings.Join(fields, ","))
			}
			return w.Flush()
		},
	}
}

func newOpenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Create missing tables and validate existing ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s store ready with %d models\n",
				a.cfg.Backend, len(db.Mediator().ModelTypes()))
			return nil
		},
	}
}

type importFlags struct {
	modelType   string
	file        string
	update      bool
	stream      bool
	skipInvalid bool
}

func newImportCmd(a *app) *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON array of records",
		Long: `Import every object of a JSON array as a record of the given type,
including the records its object and list fields describe.

The whole import runs in one transaction. With --skip-invalid, records
that fail to map or collide with an existing primary key are logged and
skipped; otherwise the first failure rolls everything back.`,
		Example: `  # Create Person records from a file
  proxystore import --type Person --file people.json

  # Stream a large file from stdin
  cat people.json | proxystore import --type Person --file - --stream`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runImport(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.modelType, "type", "", "model type of the records")
	cmd.Flags().StringVar(&f.file, "file", "", "JSON file to import, - for stdin")
	cmd.Flags().BoolVar(&f.update, "update", false, "update records whose primary key exists")
	cmd.Flags().BoolVar(&f.stream, "stream", false, "decode one record at a time")
	cmd.Flags().BoolVar(&f.skipInvalid, "skip-invalid", false, "skip records that cannot be imported")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, f importFlags) error {
	if f.stream && f.update {
		return fmt.Errorf("--stream imports only create records and cannot be combined with --update")
	}
	ctx := cmd.Context()
	mt := proxy.ModelType(f.modelType)

	in, err := openInput(cmd, f.file)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	opts := []storagemodels.ImportOption{
		storagemodels.WithProgressInterval(1000),
		storagemodels.WithProgressHandler(func(p storagemodels.ImportProgress) {
			a.logger.Info().
				Int64("read", p.RecordsRead).
				Int64("imported", p.RecordsImported).
				Float64("rate", p.CurrentRate).
				Msg("import progress")
		}),
	}
	if f.skipInvalid {
		opts = append(opts, storagemodels.WithErrorHandler(func(err error) bool {
			return !errors.IsStreamRead(err)
		}))
	}

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result *proxystore.ImportResult
	err = db.Update(ctx, func(tx *proxystore.Tx) error {
		var err error
		if f.stream {
			result, err = tx.CreateAllFromJSONStream(ctx, mt, in, opts...)
			return err
		}

		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f.file, err)
		}
		if f.update {
			result, err = tx.CreateOrUpdateAllFromJSON(ctx, mt, data, opts...)
		} else {
			result, err = tx.CreateAllFromJSON(ctx, mt, data, opts...)
		}
		return err
	})
	if err != nil {
		return err
	}

	for _, skipped := range result.Skipped {
		a.logger.Warn().Int64("record", skipped.Index).Err(skipped.Err).Msg("record skipped")
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s records, skipped %d\n",
		len(result.Objects), mt, len(result.Skipped))
	return nil
}

func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return file, nil
}

func newCountCmd(a *app) *cobra.Command {
	var modelType string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of records of a type",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			tx, err := db.Begin(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback(ctx) }()

			n, err := tx.Count(ctx, proxy.ModelType(modelType))
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().StringVar(&modelType, "type", "", "model type to count")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
