/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxystore_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/proxystore"
	"github.com/suparena/proxystore/datastore/memory"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/internal/sample"
	"github.com/suparena/proxystore/mediator"
	"github.com/suparena/proxystore/storagemodels"
)

const tagsWithBadRecords = `[
	{"name": "a", "color": "red"},
	{"name": "b", "color": true, "extra": [1, {"x": 2}]},
	7,
	{"name": "c", "color": null}
]`

func TestCreateAllFromJSON(t *testing.T) {
	ctx := context.Background()
	_, tx := openTx(t)

	res, err := tx.CreateAllFromJSON(ctx, sample.TagType, []byte(`[{"name": "a"}, {"name": "b", "color": "blue"}]`))
	require.NoError(t, err)
	require.Len(t, res.Objects, 2)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, int64(2), res.Progress.RecordsRead)
	assert.Equal(t, int64(2), res.Progress.RecordsImported)
	assert.Equal(t, "b", res.Objects[1].(*sample.TagProxy).Name())

	_, err = tx.CreateAllFromJSON(ctx, sample.TagType, []byte(`[{"name": "a"}]`))
	var recErr *storagemodels.RecordError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, int64(0), recErr.Index)
	assert.True(t, errors.IsAlreadyExists(err))

	res, err = tx.CreateOrUpdateAllFromJSON(ctx, sample.TagType, []byte(`[{"name": "a", "color": "green"}]`))
	require.NoError(t, err)
	color := res.Objects[0].(*sample.TagProxy).Color()
	require.NotNil(t, color)
	assert.Equal(t, "green", *color)

	count, err := tx.Count(ctx, sample.TagType)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCreateAllFromJSONRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	_, tx := openTx(t)

	_, err := tx.CreateAllFromJSON(ctx, sample.TagType, []byte(`{"name": "a"}`))
	assert.True(t, errors.IsValidationError(err))

	_, err = tx.CreateAllFromJSON(ctx, "Alien", []byte(`[]`))
	assert.True(t, errors.IsUnknownType(err))

	res, err := tx.CreateAllFromJSON(ctx, sample.TagType, []byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, res.Objects)
}

func TestCreateAllFromJSONSkipsRecords(t *testing.T) {
	ctx := context.Background()

	m, err := mediator.FromRegistry()
	require.NoError(t, err)
	m, err = m.Filter(sample.TagType)
	require.NoError(t, err)

	var buf bytes.Buffer
	db, err := proxystore.Open(ctx, memory.New(), m, proxystore.WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)
	tx, err := db.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	data := []byte(`[{"name": "a"}, {"name": 1.5}, {"color": "x"}, {"name": "b"}]`)
	res, err := tx.CreateAllFromJSON(ctx, sample.TagType, data,
		storagemodels.WithErrorHandler(func(error) bool { return true }))
	require.NoError(t, err)

	require.Len(t, res.Objects, 3)
	assert.Equal(t, "1.5", res.Objects[1].(*sample.TagProxy).Name())
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, int64(2), res.Skipped[0].Index)
	assert.True(t, errors.IsSchemaMapping(res.Skipped[0]))
	assert.Equal(t, int64(1), res.Progress.RecordsSkipped)

	assert.Contains(t, buf.String(), `"message":"skipped record"`)
	assert.Contains(t, buf.String(), `"message":"import finished"`)
}

func TestSkippedRecordLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	skip := storagemodels.WithErrorHandler(func(error) bool { return true })
	people := `[{"id":1,"name":"Ann","tags":[{"name":"a"}]},{"id":2,"name":"Bea","tags":[{"name":"b"},{"name":"b"}]}]`

	imports := map[string]func(tx *proxystore.Tx) (*proxystore.ImportResult, error){
		"document": func(tx *proxystore.Tx) (*proxystore.ImportResult, error) {
			return tx.CreateAllFromJSON(ctx, sample.PersonType, []byte(people), skip)
		},
		"stream": func(tx *proxystore.Tx) (*proxystore.ImportResult, error) {
			return tx.CreateAllFromJSONStream(ctx, sample.PersonType, strings.NewReader(people), skip)
		},
	}

	for name, run := range imports {
		t.Run(name, func(t *testing.T) {
			_, tx := openTx(t)
			_, err := tx.CreateAllFromJSON(ctx, sample.TagType, []byte(`[{"name":"a"}]`))
			require.NoError(t, err)

			res, err := run(tx)
			require.NoError(t, err)
			assert.Empty(t, res.Objects)
			require.Len(t, res.Skipped, 2)
			for _, skipped := range res.Skipped {
				assert.True(t, errors.IsAlreadyExists(skipped))
			}

			n, err := tx.Count(ctx, sample.PersonType)
			require.NoError(t, err)
			assert.Zero(t, n)
			n, err = tx.Count(ctx, sample.TagType)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		})
	}
}

func TestCreateAllFromJSONStreamRejectsMissingSeparators(t *testing.T) {
	ctx := context.Background()
	skip := storagemodels.WithErrorHandler(func(error) bool { return true })

	inputs := []string{
		`[{"id":1,"name":"Ann"} {"id":2,"name":"Bea"}]`,
		`[{"id":1 "name":"Ann"},{"id":2,"name":"Bea"}]`,
		`[{"id":1,"name":"Ann"},{"id":2,"name":"Bea"},]`,
		`[{"id":1,"name":"Ann"},,{"id":2,"name":"Bea"}]`,
	}
	for _, input := range inputs {
		_, tx := openTx(t)
		_, err := tx.CreateAllFromJSONStream(ctx, sample.PersonType, strings.NewReader(input), skip)
		assert.True(t, errors.IsStreamRead(err), "%s: %v", input, err)
	}
}

func TestCreateAllFromJSONStream(t *testing.T) {
	ctx := context.Background()
	backend, tx := openTx(t)

	var handled []error
	res, err := tx.CreateAllFromJSONStream(ctx, sample.TagType, strings.NewReader(tagsWithBadRecords),
		storagemodels.WithErrorHandler(func(err error) bool {
			handled = append(handled, err)
			return true
		}))
	require.NoError(t, err)

	require.Len(t, res.Objects, 2)
	assert.Equal(t, "a", res.Objects[0].(*sample.TagProxy).Name())
	assert.Equal(t, "c", res.Objects[1].(*sample.TagProxy).Name())
	assert.Nil(t, res.Objects[1].(*sample.TagProxy).Color())

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, int64(1), res.Skipped[0].Index)
	assert.Equal(t, int64(2), res.Skipped[1].Index)
	assert.Len(t, handled, 2)
	for _, skipped := range res.Skipped {
		assert.True(t, errors.IsSchemaMapping(skipped))
	}
	assert.Equal(t, int64(4), res.Progress.RecordsRead)

	require.NoError(t, tx.Commit(ctx))
	assert.Len(t, backend.Rows("class_Tag"), 2)
}

func TestCreateAllFromJSONStreamStops(t *testing.T) {
	ctx := context.Background()

	t.Run("first bad record without handler", func(t *testing.T) {
		_, tx := openTx(t)
		_, err := tx.CreateAllFromJSONStream(ctx, sample.TagType, strings.NewReader(tagsWithBadRecords))
		var recErr *storagemodels.RecordError
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, int64(1), recErr.Index)
	})

	t.Run("truncated input", func(t *testing.T) {
		_, tx := openTx(t)
		_, err := tx.CreateAllFromJSONStream(ctx, sample.TagType, strings.NewReader(`[{"name": "a"}, {"name": "b`),
			storagemodels.WithErrorHandler(func(error) bool { return true }))
		assert.True(t, errors.IsStreamRead(err))
	})

	t.Run("not an array", func(t *testing.T) {
		_, tx := openTx(t)
		_, err := tx.CreateAllFromJSONStream(ctx, sample.TagType, strings.NewReader(`{"name": "a"}`))
		assert.True(t, errors.IsStreamRead(err))
	})

	t.Run("nil reader", func(t *testing.T) {
		_, tx := openTx(t)
		_, err := tx.CreateAllFromJSONStream(ctx, sample.TagType, nil)
		assert.True(t, errors.IsNullArgument(err))
	})

	t.Run("canceled", func(t *testing.T) {
		_, tx := openTx(t)
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := tx.CreateAllFromJSONStream(canceled, sample.TagType, strings.NewReader(`[{"name": "a"}]`))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestImportProgress(t *testing.T) {
	ctx := context.Background()
	_, tx := openTx(t)

	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 25; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"name": "tag-%02d"}`, i)
	}
	b.WriteString("]")

	var reports []storagemodels.ImportProgress
	res, err := tx.CreateAllFromJSONStream(ctx, sample.TagType, strings.NewReader(b.String()),
		storagemodels.WithProgressInterval(10),
		storagemodels.WithProgressHandler(func(p storagemodels.ImportProgress) {
			reports = append(reports, p)
		}))
	require.NoError(t, err)
	assert.Len(t, res.Objects, 25)

	require.Len(t, reports, 3)
	assert.Equal(t, int64(10), reports[0].RecordsRead)
	assert.Equal(t, int64(20), reports[1].RecordsRead)
	assert.Equal(t, int64(25), reports[2].RecordsImported)
}
