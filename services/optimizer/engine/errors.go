package engine

import "errors"

// ErrNilQueryExecutor signals that a nil query executor was provided
var ErrNilQueryExecutor = errors.New("nil query executor")

// ErrNilCycleFetcher signals that a nil cycle fetcher was provided
var ErrNilCycleFetcher = errors.New("nil cycle fetcher")

// ErrNilSnapshotSaver signals that a nil snapshot saver was provided
var ErrNilSnapshotSaver = errors.New("nil snapshot saver")

// ErrNilMetricsHandler signals that a nil metrics handler was provided
var ErrNilMetricsHandler = errors.New("nil metrics handler")

// ErrTooManyPages signals that the entity search did not terminate within the configured number of pages
var ErrTooManyPages = errors.New("entity search exceeded the maximum number of pages")

// ErrEntitySearchNotFound signals that the entity search response did not carry a results object
var ErrEntitySearchNotFound = errors.New("entity search results not found in response")
