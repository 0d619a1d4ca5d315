// Package generated holds the gqlgen executable schema. generated.go is
// written by go generate ./internal/transport/graphql from gqlgen.yml.
package generated
