// Package graphql provides the GraphQL transport for the salesdesk backend:
// quote and sale queries over the live mirrors, the write mutations, and the
// error presenter that maps domain errors to extension codes. The executable
// schema is generated by gqlgen from schema/*.graphqls.
package graphql

//go:generate go run github.com/99designs/gqlgen generate
