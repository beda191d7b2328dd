package storage

import "errors"

// ErrSnapshotNotFound signals that the requested snapshot does not exist
var ErrSnapshotNotFound = errors.New("snapshot not found")
