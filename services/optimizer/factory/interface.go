package factory

import (
	"context"
	"time"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
)

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start() error
	Address() string
	Close() error
}

// Engine defines the fetch engine's operations
type Engine interface {
	SetAccount(accountID int64)
	SetTimeWindow(window common.TimeWindow)
	Refresh()
	Process(ctx context.Context)
	State() common.CycleState
	Close() error
	IsInterfaceNil() bool
}

// AccountSelector defines the account selector's operations
type AccountSelector interface {
	Load(ctx context.Context) error
	Select(accountID int64) error
	State() common.AccountsState
	IsInterfaceNil() bool
}

// MetricsHandler groups all the metrics recorded by the service
type MetricsHandler interface {
	ObserveCycle(status string, duration time.Duration, numRows int)
	ObserveQuery(kind string, err error)
	IsInterfaceNil() bool
}
