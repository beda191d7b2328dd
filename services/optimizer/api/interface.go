package api

import (
	"context"
	"net/http"
	"time"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
)

// FetchEngine drives the fetch cycles and exposes the last published snapshot
type FetchEngine interface {
	SetTimeWindow(window common.TimeWindow)
	Refresh()
	State() common.CycleState
	IsInterfaceNil() bool
}

// AccountSelector lists the accounts and keeps the selected one
type AccountSelector interface {
	Load(ctx context.Context) error
	Select(accountID int64) error
	State() common.AccountsState
	IsInterfaceNil() bool
}

// Storage defines the read side of the snapshot history
type Storage interface {
	// ListSnapshots returns the most recent snapshots, newest first. A zero account ID lists all accounts
	ListSnapshots(ctx context.Context, accountID int64, limit int) ([]common.SnapshotInfo, error)

	// GetSnapshot returns a stored snapshot with all its rows
	GetSnapshot(ctx context.Context, id int64) (*common.Snapshot, error)

	// Close shuts down the database connection
	Close() error

	IsInterfaceNil() bool
}

// MetricsHandler records the HTTP requests and exposes the collected metrics
type MetricsHandler interface {
	ObserveRequest(method string, route string, status int, duration time.Duration)
	HTTPHandler() http.Handler
	IsInterfaceNil() bool
}
