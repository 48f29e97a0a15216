package graphql

import (
	"context"

	"github.com/graphql-go/graphql"
)

// ExecuteQuery executes a GraphQL query against the cluster-status
// schema, stopping the resolver chain if ctx is cancelled (e.g. the
// client disconnected or the coordinator is shutting down).
func ExecuteQuery(ctx context.Context, query string, schema graphql.Schema) *graphql.Result {
	return graphql.Do(graphql.Params{
		Context:       ctx,
		Schema:        schema,
		RequestString: query,
	})
}

// ExecuteQueryWithVariables is ExecuteQuery for a query that takes
// variables (e.g. a worker rank to filter the status view on).
func ExecuteQueryWithVariables(ctx context.Context, query string, schema graphql.Schema, variables map[string]any) *graphql.Result {
	return graphql.Do(graphql.Params{
		Context:        ctx,
		Schema:         schema,
		RequestString:  query,
		VariableValues: variables,
	})
}
