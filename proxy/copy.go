/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package proxy

import (
	"context"

	"github.com/suparena/proxystore/datastore"
	"github.com/suparena/proxystore/errors"
	"github.com/suparena/proxystore/jsonio"
)

// CopyCache maps each source model visited during one copy to its managed
// counterpart. It is keyed by identity, so a model reachable along several
// paths, or along a cycle, is copied once. Managed sources are keyed by the
// row they are bound to, since each read of a link yields a new proxy.
type CopyCache map[Model]Object

type rowKey struct {
	store Store
	t     ModelType
	index int64
}

func (k rowKey) ModelType() ModelType {
	return k.t
}

func cacheKey(obj Model) Model {
	if o, ok := obj.(Object); ok && o.IsManaged() {
		return rowKey{store: o.Store(), t: o.ModelType(), index: o.Row().Index()}
	}
	return obj
}

// Lookup returns the managed counterpart of a visited model.
func (c CopyCache) Lookup(obj Model) (Object, bool) {
	o, ok := c[cacheKey(obj)]
	return o, ok
}

// Put records the managed counterpart of a model.
func (c CopyCache) Put(obj Model, o Object) {
	c[cacheKey(obj)] = o
}

// CopySpec describes one model being copied by generated code.
type CopySpec struct {
	Type ModelType

	// PrimaryKey is the source's key value; ignored for models without one.
	PrimaryKey any

	// Fill writes the source's fields to the managed object. Links are
	// copied through the store with the same update flag and cache.
	Fill func(o Object) error
}

// Copy implements the shared steps of copy-or-update for generated
// handlers: cache lookup, row acquisition and cache registration before Fill
// recurses into links.
func Copy(ctx context.Context, s Store, obj Model, spec CopySpec, update bool, cache CopyCache) (Object, error) {
	if obj == nil {
		return nil, errors.NewNullArgumentError("object")
	}
	if cache == nil {
		return nil, errors.NewNullArgumentError("cache")
	}
	if o, ok := obj.(Object); ok && o.IsManaged() && o.Store() == s {
		return o, nil
	}
	if cached, ok := cache.Lookup(obj); ok {
		return cached, nil
	}

	table, err := s.Table(ctx, spec.Type)
	if err != nil {
		return nil, err
	}
	row, err := AcquireRow(ctx, table, spec.PrimaryKey, update)
	if err != nil {
		return nil, err
	}
	o, err := s.Instance(ctx, spec.Type, row)
	if err != nil {
		return nil, err
	}

	cache.Put(obj, o)
	if err := spec.Fill(o); err != nil {
		return nil, err
	}
	return o, nil
}

// CopyLink copies the target of a link field, returning nil for a nil model.
func CopyLink(ctx context.Context, s Store, target Model, update bool, cache CopyCache) (Object, error) {
	if target == nil {
		return nil, nil
	}
	return s.CopyOrUpdate(ctx, target, update, cache)
}

// CopyLinks copies the elements of a list field.
func CopyLinks[M Model](ctx context.Context, s Store, targets []M, update bool, cache CopyCache) ([]Object, error) {
	objs := make([]Object, 0, len(targets))
	for _, target := range targets {
		o, err := s.CopyOrUpdate(ctx, target, update, cache)
		if err != nil {
			return nil, err
		}
		objs = append(objs, o)
	}
	return objs, nil
}

// AcquireRow returns the row a record is written to. With update set and a
// primary key declared, an existing row holding the key is reused; otherwise
// a new row is added, which fails with an AlreadyExistsError for a duplicate
// key.
func AcquireRow(ctx context.Context, table datastore.Table, primaryKey any, update bool) (datastore.Row, error) {
	if update && table.Schema().PrimaryKey != "" {
		row, err := table.FindByPrimaryKey(ctx, primaryKey)
		if err == nil {
			return row, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
	}
	return table.AddRow(ctx, primaryKey)
}

// ApplyRecord writes a decoded record, and the records it links to, to s.
// Fields absent from the record keep their stored values. Without update,
// every primary key in the record tree is checked first, so a key that is
// taken or repeated fails before anything is written.
func ApplyRecord(ctx context.Context, s Store, rec *jsonio.Record, update bool) (Object, error) {
	if !update {
		if err := checkKeys(ctx, s, rec, make(map[string]bool)); err != nil {
			return nil, err
		}
	}
	return applyRecord(ctx, s, rec, update)
}

func checkKeys(ctx context.Context, s Store, rec *jsonio.Record, seen map[string]bool) error {
	if pk, ok := rec.PrimaryKey(); ok {
		table, err := s.Table(ctx, ModelType(rec.Model()))
		if err != nil {
			return err
		}
		name, key := table.Schema().Name, datastore.KeyString(pk)
		if seen[name+"/"+key] {
			return errors.NewAlreadyExistsError(name, key)
		}
		seen[name+"/"+key] = true

		_, err = table.FindByPrimaryKey(ctx, pk)
		if err == nil {
			return errors.NewAlreadyExistsError(name, key)
		}
		if !errors.IsNotFound(err) {
			return err
		}
	}

	for _, f := range rec.Fields {
		if f.Link != nil {
			if err := checkKeys(ctx, s, f.Link, seen); err != nil {
				return err
			}
		}
		for _, item := range f.List {
			if err := checkKeys(ctx, s, item, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyRecord(ctx context.Context, s Store, rec *jsonio.Record, update bool) (Object, error) {
	t := ModelType(rec.Model())
	table, err := s.Table(ctx, t)
	if err != nil {
		return nil, err
	}

	pk, _ := rec.PrimaryKey()
	row, err := AcquireRow(ctx, table, pk, update)
	if err != nil {
		return nil, err
	}

	for _, f := range rec.Fields {
		switch {
		case f.Link != nil:
			child, err := applyRecord(ctx, s, f.Link, update)
			if err != nil {
				return nil, err
			}
			err = row.Set(f.Column, child.Row().Index())
			if err != nil {
				return nil, err
			}
		case f.Type.IsLink() && f.List != nil:
			indices := make([]int64, 0, len(f.List))
			for _, item := range f.List {
				child, err := applyRecord(ctx, s, item, update)
				if err != nil {
					return nil, err
				}
				indices = append(indices, child.Row().Index())
			}
			if err := row.Set(f.Column, indices); err != nil {
				return nil, err
			}
		case f.Name == rec.Schema.PrimaryKey:
			// set by AcquireRow
		default:
			if err := row.Set(f.Column, f.Value); err != nil {
				return nil, err
			}
		}
	}

	return s.Instance(ctx, t, row)
}
