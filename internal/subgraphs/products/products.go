// Package products is the subgraph owning the product catalogue and the
// purchases each user made.
package products

import (
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"

	gql "github.com/hanpama/lambdagraph/internal/gql"
)

const (
	Name        = "products"
	DefaultPort = 3075
)

//go:embed schema.graphql
var SDL string

type product struct {
	id    graphql.ID
	name  string
	price string
}

func (p *product) ID() graphql.ID { return p.id }
func (p *product) Name() string   { return p.name }
func (p *product) Price() string  { return p.price }

var products = []*product{
	{id: "1", name: "Avocado plushie", price: "$12"},
	{id: "2", name: "Carrot stick figure", price: "$14"},
	{id: "3", name: "Tomato pillow", price: "$22"},
	{id: "4", name: "Pumpkin snuggie", price: "$8"},
}

// purchases maps a user id to the products that user bought.
var purchases = map[graphql.ID][]*product{
	"1": {products[0], products[1]},
	"2": {products[2], products[3]},
	"3": {products[0], products[3]},
}

func find(id graphql.ID) *product {
	for _, p := range products {
		if p.id == id {
			return p
		}
	}
	return nil
}

type user struct{ id graphql.ID }

func (u *user) ID() graphql.ID { return u.id }

func (u *user) Purchases() []*product {
	if ps := purchases[u.id]; ps != nil {
		return ps
	}
	return []*product{}
}

type entity struct {
	product *product
	user    *user
}

func (e *entity) ToProduct() (*product, bool) { return e.product, e.product != nil }
func (e *entity) ToUser() (*user, bool)       { return e.user, e.user != nil }

type resolver struct{}

func (r *resolver) Products() []*product { return products }

func (r *resolver) Product(args struct{ ID graphql.ID }) *product { return find(args.ID) }

func (r *resolver) Entities(args struct{ Representations []gql.Any }) ([]*entity, error) {
	out := make([]*entity, len(args.Representations))
	for i, rep := range args.Representations {
		id, _ := rep.Key("id")
		switch rep.TypeName {
		case "Product":
			if p := find(graphql.ID(id)); p != nil {
				out[i] = &entity{product: p}
			}
		case "User":
			out[i] = &entity{user: &user{id: graphql.ID(id)}}
		default:
			return nil, fmt.Errorf("products: unknown entity type %q", rep.TypeName)
		}
	}
	return out, nil
}

// Schema builds the executable products subgraph.
func Schema() (gql.Schema, error) {
	return gql.NewFederatedSchema(SDL, &resolver{})
}
