package factory

import (
	"context"
	"sync"
	"time"

	"github.com/iulianpascalau/apdex-optimizer/commonGo"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/accounts"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/api"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/config"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/engine"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/metrics"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/nerdgraph"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/presentation"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/storage"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const msInMinute = 60 * 1000

var log = logger.GetOrCreate("factory")

type componentsHandler struct {
	executor         engine.QueryExecutor
	metrics          MetricsHandler
	store            api.Storage
	engine           Engine
	selector         AccountSelector
	server           Server
	defaultAccountID int64
	refreshInterval  time.Duration
	mutCancel        sync.Mutex
	cancel           func()
	accountsLoaded   bool
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	sqlitePath string,
	apiKey string,
	authUsername string,
	authPassword string,
	cfg config.Config,
) (*componentsHandler, error) {
	metricsHandler := metrics.NewMetricsHandler()

	client, err := nerdgraph.NewClient(cfg.NerdGraphURL, apiKey, time.Duration(cfg.QueryTimeoutInSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	fetcher, err := engine.NewCycleFetcher(engine.ArgsCycleFetcher{
		Executor:                   client,
		Metrics:                    metricsHandler,
		SettingsBaseURL:            cfg.SettingsBaseURL,
		SuggestedPercentile:        cfg.SuggestedPercentile,
		DefaultTimeWindowInMinutes: cfg.DefaultTimeWindowInMinutes,
		MaxEntityPages:             cfg.MaxEntityPages,
		MaxConcurrentQueries:       cfg.MaxConcurrentQueries,
	})
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(sqlitePath, cfg.SnapshotRetentionSeconds)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewFetchEngine(engine.ArgsFetchEngine{
		Fetcher:       fetcher,
		Saver:         store,
		Metrics:       metricsHandler,
		CycleTimeout:  time.Duration(cfg.CycleTimeoutInSeconds) * time.Second,
		DefaultWindow: common.TimeWindow{DurationMs: int64(cfg.DefaultTimeWindowInMinutes) * msInMinute},
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	selector, err := accounts.NewSelector(accounts.ArgsSelector{
		Executor: client,
		OnSelect: eng.SetAccount,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	renderer, err := presentation.NewHTMLRenderer()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	server, err := api.NewServer(api.ArgsWebServer{
		SecretKey:      apiKey,
		AuthUsername:   authUsername,
		AuthPassword:   authPassword,
		ListenAddress:  cfg.ListenAddress,
		StaticDir:      cfg.StaticDir,
		Engine:         eng,
		Selector:       selector,
		Storage:        store,
		Renderer:       renderer,
		Metrics:        metricsHandler,
		GeneralHandler: api.CORSMiddleware,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &componentsHandler{
		executor:         client,
		metrics:          metricsHandler,
		store:            store,
		engine:           eng,
		selector:         selector,
		server:           server,
		defaultAccountID: cfg.DefaultAccountID,
		refreshInterval:  time.Duration(cfg.RefreshIntervalInSeconds) * time.Second,
	}, nil
}

// GetExecutor returns the NerdGraph client
func (ch *componentsHandler) GetExecutor() engine.QueryExecutor {
	return ch.executor
}

// GetMetrics returns the metrics handler
func (ch *componentsHandler) GetMetrics() MetricsHandler {
	return ch.metrics
}

// GetStore returns the storage component
func (ch *componentsHandler) GetStore() api.Storage {
	return ch.store
}

// GetEngine returns the fetch engine
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// GetSelector returns the account selector
func (ch *componentsHandler) GetSelector() AccountSelector {
	return ch.selector
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the HTTP server, loads the accounts and then refreshes the selected account periodically.
// Nothing is scheduled if the server can not listen.
func (ch *componentsHandler) Start() error {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		return nil
	}

	err := ch.server.Start()
	if err != nil {
		return err
	}

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())
	commonGo.CronJobStarter(ctx, ch.process, ch.refreshInterval)

	return nil
}

// process loads the accounts on the first call and runs a fetch cycle on the next ones
func (ch *componentsHandler) process(ctx context.Context) {
	ch.mutCancel.Lock()
	firstCall := !ch.accountsLoaded
	ch.accountsLoaded = true
	ch.mutCancel.Unlock()

	if firstCall {
		ch.loadAccounts(ctx)
		return
	}

	ch.engine.Process(ctx)
}

func (ch *componentsHandler) loadAccounts(ctx context.Context) {
	err := ch.selector.Load(ctx)
	if err != nil {
		// no retry, the operator can reload the accounts through the API
		return
	}

	if ch.defaultAccountID == 0 || ch.selector.State().SelectedID == ch.defaultAccountID {
		return
	}

	err = ch.selector.Select(ch.defaultAccountID)
	if err != nil {
		log.Warn("can not select the configured default account", "account", ch.defaultAccountID, "error", err)
	}
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	if ch.cancel != nil {
		ch.cancel()
		ch.cancel = nil
	}
	ch.mutCancel.Unlock()

	_ = ch.engine.Close()
	err := ch.server.Close()
	if err != nil {
		log.Warn("error closing the server", "error", err)
	}
}
