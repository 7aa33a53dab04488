// Package reviews is the subgraph owning product reviews, and the reviews
// field of users and products.
package reviews

import (
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"

	gql "github.com/hanpama/lambdagraph/internal/gql"
)

const (
	Name        = "reviews"
	DefaultPort = 3085
)

//go:embed schema.graphql
var SDL string

type review struct {
	id      graphql.ID
	body    string
	author  graphql.ID
	product graphql.ID
}

func (r *review) ID() graphql.ID    { return r.id }
func (r *review) Body() string      { return r.body }
func (r *review) Author() *user     { return &user{id: r.author} }
func (r *review) Product() *product { return &product{id: r.product} }

var reviews = []*review{
	{id: "1", body: "Amazing avocado plushie!", author: "1", product: "1"},
	{id: "2", body: "Cool carrot stick", author: "1", product: "2"},
	{id: "3", body: "Never slept better than with the tomato pillow", author: "2", product: "3"},
	{id: "4", body: "The pumpkin is very snug!", author: "2", product: "4"},
	{id: "5", body: "Love the plushie!", author: "3", product: "1"},
}

func find(id graphql.ID) *review {
	for _, r := range reviews {
		if r.id == id {
			return r
		}
	}
	return nil
}

func filter(keep func(*review) bool) []*review {
	out := []*review{}
	for _, r := range reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

type user struct{ id graphql.ID }

func (u *user) ID() graphql.ID { return u.id }
func (u *user) Reviews() []*review {
	return filter(func(r *review) bool { return r.author == u.id })
}

type product struct{ id graphql.ID }

func (p *product) ID() graphql.ID { return p.id }
func (p *product) Reviews() []*review {
	return filter(func(r *review) bool { return r.product == p.id })
}

type entity struct {
	review  *review
	user    *user
	product *product
}

func (e *entity) ToReview() (*review, bool)   { return e.review, e.review != nil }
func (e *entity) ToUser() (*user, bool)       { return e.user, e.user != nil }
func (e *entity) ToProduct() (*product, bool) { return e.product, e.product != nil }

type resolver struct{}

func (r *resolver) Reviews() []*review { return reviews }

func (r *resolver) Review(args struct{ ID graphql.ID }) *review { return find(args.ID) }

func (r *resolver) Entities(args struct{ Representations []gql.Any }) ([]*entity, error) {
	out := make([]*entity, len(args.Representations))
	for i, rep := range args.Representations {
		id, _ := rep.Key("id")
		switch rep.TypeName {
		case "Review":
			if rv := find(graphql.ID(id)); rv != nil {
				out[i] = &entity{review: rv}
			}
		case "User":
			out[i] = &entity{user: &user{id: graphql.ID(id)}}
		case "Product":
			out[i] = &entity{product: &product{id: graphql.ID(id)}}
		default:
			return nil, fmt.Errorf("reviews: unknown entity type %q", rep.TypeName)
		}
	}
	return out, nil
}

// Schema builds the executable reviews subgraph.
func Schema() (gql.Schema, error) {
	return gql.NewFederatedSchema(SDL, &resolver{})
}
