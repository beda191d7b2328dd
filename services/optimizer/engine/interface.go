package engine

import (
	"context"
	"time"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
	"github.com/tidwall/gjson"
)

// QueryExecutor defines the host query API used by the fetch cycle
type QueryExecutor interface {
	// Execute runs the GraphQL query and returns the "data" object of the response
	Execute(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error)

	IsInterfaceNil() bool
}

// CycleFetcher defines the component able to run one complete fetch cycle
type CycleFetcher interface {
	Fetch(ctx context.Context, accountID int64, window common.TimeWindow) ([]common.ApplicationRow, error)

	IsInterfaceNil() bool
}

// SnapshotSaver persists the published snapshots
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snapshot common.Snapshot) (int64, error)

	IsInterfaceNil() bool
}

// MetricsHandler records the fetch cycles outcome
type MetricsHandler interface {
	ObserveCycle(status string, duration time.Duration, numRows int)
	ObserveQuery(kind string, err error)

	IsInterfaceNil() bool
}
