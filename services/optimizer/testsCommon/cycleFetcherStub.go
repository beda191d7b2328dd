package testsCommon

import (
	"context"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
)

// CycleFetcherStub -
type CycleFetcherStub struct {
	FetchHandler func(ctx context.Context, accountID int64, window common.TimeWindow) ([]common.ApplicationRow, error)
}

// Fetch -
func (stub *CycleFetcherStub) Fetch(ctx context.Context, accountID int64, window common.TimeWindow) ([]common.ApplicationRow, error) {
	if stub.FetchHandler != nil {
		return stub.FetchHandler(ctx, accountID, window)
	}

	return make([]common.ApplicationRow, 0), nil
}

// IsInterfaceNil -
func (stub *CycleFetcherStub) IsInterfaceNil() bool {
	return stub == nil
}
