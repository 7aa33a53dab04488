// Package users is the subgraph owning User accounts.
package users

import (
	_ "embed"
	"fmt"

	graphql "github.com/graph-gophers/graphql-go"

	gql "github.com/hanpama/lambdagraph/internal/gql"
)

const (
	Name        = "users"
	DefaultPort = 3065
)

//go:embed schema.graphql
var SDL string

type user struct {
	id   graphql.ID
	name string
}

func (u *user) ID() graphql.ID { return u.id }
func (u *user) Name() string   { return u.name }

var users = []*user{
	{id: "1", name: "John Deere"},
	{id: "2", name: "Abby Moore"},
	{id: "3", name: "Tom Hubble"},
	{id: "4", name: "Bob Thorn"},
	{id: "5", name: "Millie Wadler"},
}

func find(id graphql.ID) *user {
	for _, u := range users {
		if u.id == id {
			return u
		}
	}
	return nil
}

type entity struct{ user *user }

func (e *entity) ToUser() (*user, bool) { return e.user, e.user != nil }

type resolver struct{}

func (r *resolver) Me() *user      { return users[0] }
func (r *resolver) Users() []*user { return users }

func (r *resolver) User(args struct{ ID graphql.ID }) *user { return find(args.ID) }

func (r *resolver) Entities(args struct{ Representations []gql.Any }) ([]*entity, error) {
	out := make([]*entity, len(args.Representations))
	for i, rep := range args.Representations {
		if rep.TypeName != "User" {
			return nil, fmt.Errorf("users: unknown entity type %q", rep.TypeName)
		}
		id, _ := rep.Key("id")
		if u := find(graphql.ID(id)); u != nil {
			out[i] = &entity{user: u}
		}
	}
	return out, nil
}

// Schema builds the executable users subgraph.
func Schema() (gql.Schema, error) {
	return gql.NewFederatedSchema(SDL, &resolver{})
}
