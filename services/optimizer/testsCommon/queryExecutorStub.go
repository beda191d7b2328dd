package testsCommon

import (
	"context"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
	"github.com/tidwall/gjson"
)

// QueryExecutorStub -
type QueryExecutorStub struct {
	ExecuteHandler func(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error)
}

// Execute -
func (stub *QueryExecutorStub) Execute(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error) {
	if stub.ExecuteHandler != nil {
		return stub.ExecuteHandler(ctx, query)
	}

	return gjson.Parse(`{}`), nil
}

// IsInterfaceNil -
func (stub *QueryExecutorStub) IsInterfaceNil() bool {
	return stub == nil
}
