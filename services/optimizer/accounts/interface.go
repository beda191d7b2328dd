package accounts

import (
	"context"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
	"github.com/tidwall/gjson"
)

// QueryExecutor executes a query against the host query API
type QueryExecutor interface {
	Execute(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error)
	IsInterfaceNil() bool
}
