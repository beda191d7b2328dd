package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	cycleStatusOK         = "ok"
	cycleStatusFailed     = "failed"
	cycleStatusSuperseded = "superseded"

	saveTimeout = 10 * time.Second
)

var log = logger.GetOrCreate("engine")

// ArgsFetchEngine defines the arguments needed to create the fetch engine
type ArgsFetchEngine struct {
	Fetcher       CycleFetcher
	Saver         SnapshotSaver
	Metrics       MetricsHandler
	CycleTimeout  time.Duration
	DefaultWindow common.TimeWindow
}

// fetchEngine owns the current fetch cycle. Each new cycle gets a new generation and cancels the previous one;
// only the current generation can publish its snapshot.
type fetchEngine struct {
	fetcher       CycleFetcher
	saver         SnapshotSaver
	metrics       MetricsHandler
	cycleTimeout  time.Duration
	defaultWindow common.TimeWindow

	mut           sync.RWMutex
	generation    uint64
	cancelCurrent context.CancelFunc
	accountID     int64
	window        common.TimeWindow
	loading       bool
	lastErr       error
	snapshot      *common.Snapshot
	closed        bool
	wg            sync.WaitGroup
}

// NewFetchEngine creates a new engine instance
func NewFetchEngine(args ArgsFetchEngine) (*fetchEngine, error) {
	if check.IfNil(args.Fetcher) {
		return nil, ErrNilCycleFetcher
	}
	if check.IfNil(args.Saver) {
		return nil, ErrNilSnapshotSaver
	}
	if check.IfNil(args.Metrics) {
		return nil, ErrNilMetricsHandler
	}
	if args.CycleTimeout <= 0 {
		return nil, errors.New("invalid cycle timeout")
	}

	return &fetchEngine{
		fetcher:       args.Fetcher,
		saver:         args.Saver,
		metrics:       args.Metrics,
		cycleTimeout:  args.CycleTimeout,
		defaultWindow: args.DefaultWindow,
		window:        args.DefaultWindow,
	}, nil
}

// SetAccount selects the account and starts a new fetch cycle in the background
func (e *fetchEngine) SetAccount(accountID int64) {
	e.mut.Lock()
	e.accountID = accountID
	e.mut.Unlock()

	log.Debug("account selected", "account", accountID)
	e.startAsync()
}

// SetTimeWindow changes the time window and starts a new fetch cycle in the background.
// An unset window restores the default one.
func (e *fetchEngine) SetTimeWindow(window common.TimeWindow) {
	if !window.IsSet() {
		window = e.defaultWindow
	}

	e.mut.Lock()
	e.window = window
	e.mut.Unlock()

	log.Debug("time window changed", "duration ms", window.DurationMs, "begin ms", window.BeginMs, "end ms", window.EndMs)
	e.startAsync()
}

// Refresh starts a new fetch cycle in the background for the current account and time window
func (e *fetchEngine) Refresh() {
	e.startAsync()
}

// Process runs a complete fetch cycle synchronously. It is the periodic refresh handler.
func (e *fetchEngine) Process(ctx context.Context) {
	e.runCycle(ctx)
}

// State returns the current cycle state. The returned snapshot must not be modified.
func (e *fetchEngine) State() common.CycleState {
	e.mut.RLock()
	defer e.mut.RUnlock()

	return common.CycleState{
		Loading:   e.loading,
		Err:       e.lastErr,
		AccountID: e.accountID,
		Window:    e.window,
		Snapshot:  e.snapshot,
	}
}

func (e *fetchEngine) startAsync() {
	e.mut.Lock()
	if e.closed {
		e.mut.Unlock()
		return
	}
	e.wg.Add(1)
	e.mut.Unlock()

	go func() {
		defer e.wg.Done()
		e.runCycle(context.Background())
	}()
}

func (e *fetchEngine) runCycle(parent context.Context) {
	ctx, generation, accountID, window, ok := e.beginCycle(parent)
	if !ok {
		return
	}

	start := time.Now()
	fetchedRows, err := e.fetcher.Fetch(ctx, accountID, window)

	snapshot, published := e.endCycle(generation, accountID, window, fetchedRows, err, time.Since(start))
	if !published {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	id, errSave := e.saver.SaveSnapshot(saveCtx, *snapshot)
	if errSave != nil {
		log.Warn("failed to save snapshot", "account", accountID, "error", errSave)
		return
	}
	log.Debug("snapshot saved", "id", id, "generation", generation)
}

func (e *fetchEngine) beginCycle(parent context.Context) (context.Context, uint64, int64, common.TimeWindow, bool) {
	e.mut.Lock()
	defer e.mut.Unlock()

	if e.closed || e.accountID == 0 {
		return nil, 0, 0, common.TimeWindow{}, false
	}

	if e.cancelCurrent != nil {
		e.cancelCurrent()
	}

	e.generation++
	ctx, cancel := context.WithTimeout(parent, e.cycleTimeout)
	e.cancelCurrent = cancel
	e.loading = true
	e.lastErr = nil
	if e.snapshot != nil && (e.snapshot.AccountID != e.accountID || e.snapshot.Window != e.window) {
		e.snapshot = nil
	}

	log.Debug("fetch cycle started", "generation", e.generation, "account", e.accountID)

	return ctx, e.generation, e.accountID, e.window, true
}

func (e *fetchEngine) endCycle(
	generation uint64,
	accountID int64,
	window common.TimeWindow,
	fetchedRows []common.ApplicationRow,
	err error,
	duration time.Duration,
) (*common.Snapshot, bool) {
	e.mut.Lock()
	defer e.mut.Unlock()

	if generation != e.generation {
		log.Debug("dropping superseded fetch cycle", "generation", generation, "current", e.generation)
		e.metrics.ObserveCycle(cycleStatusSuperseded, duration, 0)
		return nil, false
	}

	if e.cancelCurrent != nil {
		e.cancelCurrent()
		e.cancelCurrent = nil
	}
	e.loading = false

	if err != nil {
		log.Warn("fetch cycle failed", "generation", generation, "account", accountID, "error", err)
		e.lastErr = err
		e.metrics.ObserveCycle(cycleStatusFailed, duration, 0)
		return nil, false
	}

	e.snapshot = &common.Snapshot{
		Generation:  generation,
		AccountID:   accountID,
		Window:      window,
		Rows:        fetchedRows,
		CompletedAt: time.Now().Unix(),
	}
	e.metrics.ObserveCycle(cycleStatusOK, duration, len(fetchedRows))
	log.Info("fetch cycle published", "generation", generation, "account", accountID, "rows", len(fetchedRows), "duration", duration)

	return e.snapshot, true
}

// Close cancels the running cycle and waits for the background cycles to finish
func (e *fetchEngine) Close() error {
	e.mut.Lock()
	e.closed = true
	if e.cancelCurrent != nil {
		e.cancelCurrent()
		e.cancelCurrent = nil
	}
	e.mut.Unlock()

	e.wg.Wait()

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *fetchEngine) IsInterfaceNil() bool {
	return e == nil
}
