package testsCommon

import (
	"context"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
)

// StorageStub -
type StorageStub struct {
	SaveSnapshotHandler  func(ctx context.Context, snapshot common.Snapshot) (int64, error)
	ListSnapshotsHandler func(ctx context.Context, accountID int64, limit int) ([]common.SnapshotInfo, error)
	GetSnapshotHandler   func(ctx context.Context, id int64) (*common.Snapshot, error)
	CloseHandler         func() error
}

// SaveSnapshot -
func (stub *StorageStub) SaveSnapshot(ctx context.Context, snapshot common.Snapshot) (int64, error) {
	if stub.SaveSnapshotHandler != nil {
		return stub.SaveSnapshotHandler(ctx, snapshot)
	}

	return 1, nil
}

// ListSnapshots -
func (stub *StorageStub) ListSnapshots(ctx context.Context, accountID int64, limit int) ([]common.SnapshotInfo, error) {
	if stub.ListSnapshotsHandler != nil {
		return stub.ListSnapshotsHandler(ctx, accountID, limit)
	}

	return make([]common.SnapshotInfo, 0), nil
}

// GetSnapshot -
func (stub *StorageStub) GetSnapshot(ctx context.Context, id int64) (*common.Snapshot, error) {
	if stub.GetSnapshotHandler != nil {
		return stub.GetSnapshotHandler(ctx, id)
	}

	return &common.Snapshot{}, nil
}

// Close -
func (stub *StorageStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *StorageStub) IsInterfaceNil() bool {
	return stub == nil
}
