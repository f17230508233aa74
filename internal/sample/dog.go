/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sample

import (
	"context"

	"github.com/suparena/proxystore/proxy"
	"github.com/suparena/proxystore/registry"
	"github.com/suparena/proxystore/schema"
)

const DogType proxy.ModelType = "Dog"

var dogSchema = &schema.TableSchema{
	Model: "Dog",
	Name:  schema.TableNameFor("Dog"),
	Columns: []schema.Column{
		{Name: "name", Type: schema.FieldTypeString},
		{Name: "weight", Type: schema.FieldTypeFloat},
		{Name: "photo", Type: schema.FieldTypeBinary, Nullable: true},
		{Name: "owner", Type: schema.FieldTypeObject, LinkTarget: "Person"},
	},
}

// Dog is the standalone form of a dog record.
type Dog struct {
	Name   string
	Weight float32
	Photo  []byte
	Owner  *Person
}

func (*Dog) ModelType() proxy.ModelType {
	return DogType
}

// DogProxy is a dog record bound to a store.
type DogProxy struct {
	proxy.Base
}

func (*DogProxy) ModelType() proxy.ModelType {
	return DogType
}

func (p *DogProxy) Name() string {
	v, _ := p.Value("name").(string)
	return v
}

func (p *DogProxy) SetName(v string) error {
	return p.SetValue("name", v)
}

func (p *DogProxy) Weight() float32 {
	v, _ := p.Value("weight").(float32)
	return v
}

func (p *DogProxy) SetWeight(v float32) error {
	return p.SetValue("weight", v)
}

// Photo returns nil for a null photo.
func (p *DogProxy) Photo() []byte {
	v, _ := p.Value("photo").([]byte)
	return v
}

func (p *DogProxy) SetPhoto(v []byte) error {
	if v == nil {
		return p.SetValue("photo", nil)
	}
	return p.SetValue("photo", v)
}

func (p *DogProxy) Owner(ctx context.Context) (*PersonProxy, error) {
	o, err := p.Link(ctx, "owner", PersonType)
	if err != nil || o == nil {
		return nil, err
	}
	return o.(*PersonProxy), nil
}

func (p *DogProxy) SetOwner(v *PersonProxy) error {
	if v == nil {
		return p.SetLink("owner", nil)
	}
	return p.SetLink("owner", v)
}

type dogFields struct {
	name   string
	weight float32
	photo  []byte
	owner  proxy.Model
}

func (d *Dog) fields() dogFields {
	f := dogFields{name: d.Name, weight: d.Weight, photo: d.Photo}
	if d.Owner != nil {
		f.owner = d.Owner
	}
	return f
}

func (p *DogProxy) fields(ctx context.Context) (dogFields, error) {
	f := dogFields{name: p.Name(), weight: p.Weight(), photo: p.Photo()}
	owner, err := p.Link(ctx, "owner", PersonType)
	if err != nil {
		return f, err
	}
	if owner != nil {
		f.owner = owner
	}
	return f, nil
}

func (p *DogProxy) fill(ctx context.Context, s proxy.Store, f dogFields, update bool, cache proxy.CopyCache) error {
	if err := p.SetName(f.name); err != nil {
		return err
	}
	if err := p.SetWeight(f.weight); err != nil {
		return err
	}
	if err := p.SetPhoto(f.photo); err != nil {
		return err
	}

	owner, err := proxy.CopyLink(ctx, s, f.owner, update, cache)
	if err != nil {
		return err
	}
	return p.SetLink("owner", owner)
}

type dogHandler struct {
	proxy.TypeInfo
}

func (dogHandler) NewInstance() proxy.Object {
	return &DogProxy{}
}

func (dogHandler) CopyOrUpdate(ctx context.Context, s proxy.Store, obj proxy.Model, update bool, cache proxy.CopyCache) (proxy.Object, error) {
	var f dogFields
	switch src := obj.(type) {
	case *Dog:
		f = src.fields()
	case *DogProxy:
		if src.IsManaged() && src.Store() == s {
			return src, nil
		}
		var err error
		if f, err = src.fields(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, unexpectedModel(DogType, obj)
	}

	return proxy.Copy(ctx, s, obj, proxy.CopySpec{
		Type: DogType,
		Fill: func(o proxy.Object) error {
			return o.(*DogProxy).fill(ctx, s, f, update, cache)
		},
	}, update, cache)
}

func init() {
	registry.Register(dogHandler{proxy.NewTypeInfo(DogType, dogSchema)})
}
