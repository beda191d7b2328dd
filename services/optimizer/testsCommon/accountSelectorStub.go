package testsCommon

import (
	"context"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
)

// AccountSelectorStub -
type AccountSelectorStub struct {
	LoadHandler   func(ctx context.Context) error
	SelectHandler func(accountID int64) error
	StateHandler  func() common.AccountsState
}

// Load -
func (stub *AccountSelectorStub) Load(ctx context.Context) error {
	if stub.LoadHandler != nil {
		return stub.LoadHandler(ctx)
	}

	return nil
}

// Select -
func (stub *AccountSelectorStub) Select(accountID int64) error {
	if stub.SelectHandler != nil {
		return stub.SelectHandler(accountID)
	}

	return nil
}

// State -
func (stub *AccountSelectorStub) State() common.AccountsState {
	if stub.StateHandler != nil {
		return stub.StateHandler()
	}

	return common.AccountsState{}
}

// IsInterfaceNil -
func (stub *AccountSelectorStub) IsInterfaceNil() bool {
	return stub == nil
}
