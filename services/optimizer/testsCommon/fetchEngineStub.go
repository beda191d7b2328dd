package testsCommon

import (
	"context"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
)

// FetchEngineStub -
type FetchEngineStub struct {
	SetAccountHandler    func(accountID int64)
	SetTimeWindowHandler func(window common.TimeWindow)
	RefreshHandler       func()
	ProcessHandler       func(ctx context.Context)
	StateHandler         func() common.CycleState
	CloseHandler         func() error
}

// SetAccount -
func (stub *FetchEngineStub) SetAccount(accountID int64) {
	if stub.SetAccountHandler != nil {
		stub.SetAccountHandler(accountID)
	}
}

// SetTimeWindow -
func (stub *FetchEngineStub) SetTimeWindow(window common.TimeWindow) {
	if stub.SetTimeWindowHandler != nil {
		stub.SetTimeWindowHandler(window)
	}
}

// Refresh -
func (stub *FetchEngineStub) Refresh() {
	if stub.RefreshHandler != nil {
		stub.RefreshHandler()
	}
}

// Process -
func (stub *FetchEngineStub) Process(ctx context.Context) {
	if stub.ProcessHandler != nil {
		stub.ProcessHandler(ctx)
	}
}

// State -
func (stub *FetchEngineStub) State() common.CycleState {
	if stub.StateHandler != nil {
		return stub.StateHandler()
	}

	return common.CycleState{}
}

// Close -
func (stub *FetchEngineStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *FetchEngineStub) IsInterfaceNil() bool {
	return stub == nil
}
