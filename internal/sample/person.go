/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sample

import (
	"context"
	"time"

	"github.com/suparena/proxystore/proxy"
	"github.com/suparena/proxystore/registry"
	"github.com/suparena/proxystore/schema"
)

const PersonType proxy.ModelType = "Person"

var personSchema = &schema.TableSchema{
	Model:      "Person",
	Name:       schema.TableNameFor("Person"),
	PrimaryKey: "id",
	Columns: []schema.Column{
		{Name: "id", Type: schema.FieldTypeInteger, Indexed: true},
		{Name: "name", Type: schema.FieldTypeString},
		{Name: "age", Type: schema.FieldTypeInteger},
		{Name: "email", Type: schema.FieldTypeString, Nullable: true},
		{Name: "active", Type: schema.FieldTypeBoolean},
		{Name: "score", Type: schema.FieldTypeDouble},
		{Name: "birthday", Type: schema.FieldTypeDate},
		{Name: "dog", Type: schema.FieldTypeObject, LinkTarget: "Dog"},
		{Name: "tags", Type: schema.FieldTypeList, LinkTarget: "Tag"},
	},
}

// Person is the standalone form of a person record.
type Person struct {
	ID       int64
	Name     string
	Age      int
	Email    *string
	Active   bool
	Score    float64
	Birthday time.Time
	Dog      *Dog
	Tags     []*Tag
}

func (*Person) ModelType() proxy.ModelType {
	return PersonType
}

// PersonProxy is a person record bound to a store.
type PersonProxy struct {
	proxy.Base
}

func (*PersonProxy) ModelType() proxy.ModelType {
	return PersonType
}

func (p *PersonProxy) ID() int64 {
	v, _ := p.Value("id").(int64)
	return v
}

func (p *PersonProxy) SetID(v int64) error {
	return p.SetValue("id", v)
}

func (p *PersonProxy) Name() string {
	v, _ := p.Value("name").(string)
	return v
}

func (p *PersonProxy) SetName(v string) error {
	return p.SetValue("name", v)
}

func (p *PersonProxy) Age() int {
	v, _ := p.Value("age").(int64)
	return int(v)
}

func (p *PersonProxy) SetAge(v int) error {
	return p.SetValue("age", int64(v))
}

func (p *PersonProxy) Email() *string {
	v, ok := p.Value("email").(string)
	if !ok {
		return nil
	}
	return &v
}

func (p *PersonProxy) SetEmail(v *string) error {
	if v == nil {
		return p.SetValue("email", nil)
	}
	return p.SetValue("email", *v)
}

func (p *PersonProxy) Active() bool {
	v, _ := p.Value("active").(bool)
	return v
}

func (p *PersonProxy) SetActive(v bool) error {
	return p.SetValue("active", v)
}

func (p *PersonProxy) Score() float64 {
	v, _ := p.Value("score").(float64)
	return v
}

func (p *PersonProxy) SetScore(v float64) error {
	return p.SetValue("score", v)
}

func (p *PersonProxy) Birthday() time.Time {
	v, _ := p.Value("birthday").(time.Time)
	return v
}

func (p *PersonProxy) SetBirthday(v time.Time) error {
	return p.SetValue("birthday", v)
}

func (p *PersonProxy) Dog(ctx context.Context) (*DogProxy, error) {
	o, err := p.Link(ctx, "dog", DogType)
	if err != nil || o == nil {
		return nil, err
	}
	return o.(*DogProxy), nil
}

func (p *PersonProxy) SetDog(v *DogProxy) error {
	if v == nil {
		return p.SetLink("dog", nil)
	}
	return p.SetLink("dog", v)
}

func (p *PersonProxy) Tags(ctx context.Context) ([]*TagProxy, error) {
	objs, err := p.LinkList(ctx, "tags", TagType)
	if err != nil {
		return nil, err
	}
	tags := make([]*TagProxy, len(objs))
	for i, o := range objs {
		tags[i] = o.(*TagProxy)
	}
	return tags, nil
}

func (p *PersonProxy) SetTags(v []*TagProxy) error {
	objs := make([]proxy.Object, len(v))
	for i, t := range v {
		if t != nil {
			objs[i] = t
		}
	}
	return p.SetLinkList("tags", objs)
}

// personFields is the source side of a copy: scalar values plus the models
// the links point to.
type personFields struct {
	id       int64
	name     string
	age      int
	email    *string
	active   bool
	score    float64
	birthday time.Time
	dog      proxy.Model
	tags     []proxy.Model
}

func (p *Person) fields() personFields {
	f := personFields{
		id:       p.ID,
		name:     p.Name,
		age:      p.Age,
		email:    p.Email,
		active:   p.Active,
		score:    p.Score,
		birthday: p.Birthday,
	}
	if p.Dog != nil {
		f.dog = p.Dog
	}
	for _, t := range p.Tags {
		f.tags = append(f.tags, t)
	}
	return f
}

func (p *PersonProxy) fields(ctx context.Context) (personFields, error) {
	f := personFields{
		id:       p.ID(),
		name:     p.Name(),
		age:      p.Age(),
		email:    p.Email(),
		active:   p.Active(),
		score:    p.Score(),
		birthday: p.Birthday(),
	}
	dog, err := p.Link(ctx, "dog", DogType)
	if err != nil {
		return f, err
	}
	if dog != nil {
		f.dog = dog
	}
	tags, err := p.LinkList(ctx, "tags", TagType)
	if err != nil {
		return f, err
	}
	for _, t := range tags {
		f.tags = append(f.tags, t)
	}
	return f, nil
}

func (p *PersonProxy) fill(ctx context.Context, s proxy.Store, f personFields, update bool, cache proxy.CopyCache) error {
	if err := p.SetID(f.id); err != nil {
		return err
	}
	if err := p.SetName(f.name); err != nil {
		return err
	}
	if err := p.SetAge(f.age); err != nil {
		return err
	}
	if err := p.SetEmail(f.email); err != nil {
		return err
	}
	if err := p.SetActive(f.active); err != nil {
		return err
	}
	if err := p.SetScore(f.score); err != nil {
		return err
	}
	if err := p.SetBirthday(f.birthday); err != nil {
		return err
	}

	dog, err := proxy.CopyLink(ctx, s, f.dog, update, cache)
	if err != nil {
		return err
	}
	if err := p.SetLink("dog", dog); err != nil {
		return err
	}

	tags, err := proxy.CopyLinks(ctx, s, f.tags, update, cache)
	if err != nil {
		return err
	}
	return p.SetLinkList("tags", tags)
}

type personHandler struct {
	proxy.TypeInfo
}

func (personHandler) NewInstance() proxy.Object {
	return &PersonProxy{}
}

func (personHandler) CopyOrUpdate(ctx context.Context, s proxy.Store, obj proxy.Model, update bool, cache proxy.CopyCache) (proxy.Object, error) {
	var f personFields
	switch src := obj.(type) {
	case *Person:
		f = src.fields()
	case *PersonProxy:
		if src.IsManaged() && src.Store() == s {
			return src, nil
		}
		var err error
		if f, err = src.fields(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, unexpectedModel(PersonType, obj)
	}

	return proxy.Copy(ctx, s, obj, proxy.CopySpec{
		Type:       PersonType,
		PrimaryKey: f.id,
		Fill: func(o proxy.Object) error {
			return o.(*PersonProxy).fill(ctx, s, f, update, cache)
		},
	}, update, cache)
}

func init() {
	registry.Register(personHandler{proxy.NewTypeInfo(PersonType, personSchema)})
}
