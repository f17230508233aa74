/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxystore

import (
	"context"
	"io"
	"time"

	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/jsonio"
	"github.com/suparena/proxystore/proxy"
	"github.com/suparena/proxystore/storagemodels"
)

// ImportResult summarizes a bulk JSON import.
type ImportResult = storagemodels.ImportResult[proxy.Object]

// CreateAllFromJSON creates a record of mt for every object of a JSON array.
func (t *Tx) CreateAllFromJSON(ctx context.Context, mt proxy.ModelType, data []byte, opts ...storagemodels.ImportOption) (*ImportResult, error) {
	return t.allFromJSON(ctx, mt, data, false, opts)
}

// CreateOrUpdateAllFromJSON creates or updates a record of mt for every
// object of a JSON array.
func (t *Tx) CreateOrUpdateAllFromJSON(ctx context.Context, mt proxy.ModelType, data []byte, opts ...storagemodels.ImportOption) (*ImportResult, error) {
	return t.allFromJSON(ctx, mt, data, true, opts)
}

func (t *Tx) allFromJSON(ctx context.Context, mt proxy.ModelType, data []byte, update bool, opts []storagemodels.ImportOption) (*ImportResult, error) {
	if _, err := t.db.mediator.TableName(mt); err != nil {
		return nil, err
	}
	docs, err := jsonio.ParseArray(data)
	if err != nil {
		return nil, errors.NewValidationError("json", err.Error())
	}

	imp := t.newImport(mt, opts)
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o, err := t.db.mediator.CreateOrUpdateUsingJSONObject(ctx, mt, t, doc, update)
		if stop := imp.record(int64(i), o, err); stop != nil {
			return nil, stop
		}
	}
	return imp.finish(), nil
}

// CreateAllFromJSONStream creates a record of mt for every object of the
// JSON array r holds, decoding one object at a time. A malformed or
// truncated stream always stops the import.
func (t *Tx) CreateAllFromJSONStream(ctx context.Context, mt proxy.ModelType, r io.Reader, opts ...storagemodels.ImportOption) (*ImportResult, error) {
	if _, err := t.db.mediator.TableName(mt); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.NewNullArgumentError("reader")
	}

	reader := jsonio.NewReader(r)
	if err := reader.BeginArray(); err != nil {
		return nil, err
	}

	imp := t.newImport(mt, opts)
	for i := int64(0); ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		more, err := reader.HasNext()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}

		mark := reader.Mark()
		o, err := t.db.mediator.CreateUsingJSONStream(ctx, mt, t, reader)
		if err != nil && errors.IsStreamRead(err) {
			return nil, err
		}
		if stop := imp.record(i, o, err); stop != nil {
			return nil, stop
		}
		if err != nil {
			if err := reader.SkipRest(mark); err != nil {
				return nil, err
			}
		}
	}

	if err := reader.EndArray(); err != nil {
		return nil, err
	}
	return imp.finish(), nil
}

type importRun struct {
	tx       *Tx
	mt       proxy.ModelType
	opts     storagemodels.ImportOptions
	result   *ImportResult
	progress storagemodels.ImportProgress
}

func (t *Tx) newImport(mt proxy.ModelType, opts []storagemodels.ImportOption) *importRun {
	return &importRun{
		tx:       t,
		mt:       mt,
		opts:     storagemodels.ApplyImportOptions(opts...),
		result:   &ImportResult{},
		progress: storagemodels.ImportProgress{StartTime: time.Now()},
	}
}

// record accounts for one input record and returns the error that must
// stop the import, if any.
func (r *importRun) record(index int64, o proxy.Object, err error) error {
	defer r.opts.Tick(&r.progress)

	if err == nil {
		r.result.Objects = append(r.result.Objects, o)
		r.progress.RecordsImported++
		return nil
	}

	recErr := &storagemodels.RecordError{Index: index, Err: err}
	if !r.opts.Continue(recErr) {
		return recErr
	}
	r.result.Skipped = append(r.result.Skipped, recErr)
	r.progress.RecordsSkipped++
	r.tx.db.logger.Warn().
		Err(err).
		Str("model", string(r.mt)).
		Int64("record", index).
		Msg("skipped record")
	return nil
}

func (r *importRun) finish() *ImportResult {
	r.opts.Finish(r.progress)
	r.result.Progress = r.progress
	r.tx.db.logger.Info().
		Str("model", string(r.mt)).
		Int64("imported", r.progress.RecordsImported).
		Int64("skipped", r.progress.RecordsSkipped).
		Msg("import finished")
	return r.result
}
