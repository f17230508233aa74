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

const TagType proxy.ModelType = "Tag"

var tagSchema = &schema.TableSchema{
	Model:      "Tag",
	Name:       schema.TableNameFor("Tag"),
	PrimaryKey: "name",
	Columns: []schema.Column{
		{Name: "name", Type: schema.FieldTypeString, Indexed: true},
		{Name: "color", Type: schema.FieldTypeString, Nullable: true},
	},
}

// Tag is the standalone form of a tag record.
type Tag struct {
	Name  string
	Color *string
}

func (*Tag) ModelType() proxy.ModelType {
	return TagType
}

// TagProxy is a tag record bound to a store.
type TagProxy struct {
	proxy.Base
}

func (*TagProxy) ModelType() proxy.ModelType {
	return TagType
}

func (p *TagProxy) Name() string {
	v, _ := p.Value("name").(string)
	return v
}

func (p *TagProxy) SetName(v string) error {
	return p.SetValue("name", v)
}

func (p *TagProxy) Color() *string {
	v, ok := p.Value("color").(string)
	if !ok {
		return nil
	}
	return &v
}

func (p *TagProxy) SetColor(v *string) error {
	if v == nil {
		return p.SetValue("color", nil)
	}
	return p.SetValue("color", *v)
}

type tagHandler struct {
	proxy.TypeInfo
}

func (tagHandler) NewInstance() proxy.Object {
	return &TagProxy{}
}

func (tagHandler) CopyOrUpdate(ctx context.Context, s proxy.Store, obj proxy.Model, update bool, cache proxy.CopyCache) (proxy.Object, error) {
	var name string
	var color *string
	switch src := obj.(type) {
	case *Tag:
		name, color = src.Name, src.Color
	case *TagProxy:
		if src.IsManaged() && src.Store() == s {
			return src, nil
		}
		name, color = src.Name(), src.Color()
	default:
		return nil, unexpectedModel(TagType, obj)
	}

	return proxy.Copy(ctx, s, obj, proxy.CopySpec{
		Type:       TagType,
		PrimaryKey: name,
		Fill: func(o proxy.Object) error {
			dst := o.(*TagProxy)
			if err := dst.SetName(name); err != nil {
				return err
			}
			return dst.SetColor(color)
		},
	}, update, cache)
}

func init() {
	registry.Register(tagHandler{proxy.NewTypeInfo(TagType, tagSchema)})
}
