package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const checkoutEntities = `[
	{"name": "checkout", "domain": "APM", "applicationId": 11, "accountId": 100, "settings": {"apdexTarget": 0.5}, "reporting": true},
	{"name": "checkout", "domain": "BROWSER", "applicationId": 12, "accountId": 100, "settings": {"apdexTarget": 7.0}, "reporting": true},
	{"name": "inventory", "domain": "APM", "applicationId": 21, "accountId": 100, "settings": {"apdexTarget": 0.3}}
]`

func nrqlResults(results string) gjson.Result {
	return gjson.Parse(`{"actor": {"account": {"nrql": {"results": ` + results + `}}}}`)
}

// checkoutResponder answers like the host API for the two "checkout" apps and the "inventory" app
func checkoutResponder(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error) {
	q := query.Query
	switch {
	case strings.Contains(q, "entitySearch"):
		return entityPage(checkoutEntities, ""), nil
	case strings.Contains(q, "apdex(duration, t: 0.5)"):
		return nrqlResults(`[{"appName": "checkout", "score": 0.93, "volume": 1200}, {"appName": "gone", "score": 0.1, "volume": 5}]`), nil
	case strings.Contains(q, "apdex(duration, t: 7.0)"):
		return nrqlResults(`[{"facet": "checkout", "score": 0.88, "volume": 500}]`), nil
	case strings.Contains(q, "FROM TransactionError"):
		return nrqlResults(`[{"appName": "checkout", "errors": 4}]`), nil
	case strings.Contains(q, "FROM JavaScriptError"):
		return nrqlResults(`[{"appName": "checkout", "errors": 1}]`), nil
	case strings.Contains(q, "percentile(duration, 90) FROM Transaction WHERE transactionType = 'Web'"):
		return nrqlResults(`[{"appName": "checkout", "percentile.duration": {"90": 0.42}}, {"appName": "inventory", "percentile.duration": {"90": 0.61}}]`), nil
	case strings.Contains(q, "percentile(duration, 90) FROM PageView"):
		return nrqlResults(`[{"appName": "checkout", "percentile.duration": {"90": 8.1}}]`), nil
	}

	return gjson.Result{}, errors.New("unexpected query: " + q)
}

func createFetcherArgs(executor QueryExecutor) ArgsCycleFetcher {
	return ArgsCycleFetcher{
		Executor:                   executor,
		Metrics:                    &testsCommon.MetricsHandlerStub{},
		SettingsBaseURL:            "https://rpm.newrelic.com",
		SuggestedPercentile:        90,
		DefaultTimeWindowInMinutes: 60,
		MaxEntityPages:             10,
		MaxConcurrentQueries:       4,
	}
}

func TestNewCycleFetcher(t *testing.T) {
	t.Parallel()

	t.Run("nil executor should error", func(t *testing.T) {
		args := createFetcherArgs(nil)
		fetcher, err := NewCycleFetcher(args)
		assert.Nil(t, fetcher)
		assert.True(t, fetcher.IsInterfaceNil())
		assert.Equal(t, ErrNilQueryExecutor, err)
	})
	t.Run("nil metrics should error", func(t *testing.T) {
		args := createFetcherArgs(&testsCommon.QueryExecutorStub{})
		args.Metrics = nil
		fetcher, err := NewCycleFetcher(args)
		assert.Nil(t, fetcher)
		assert.Equal(t, ErrNilMetricsHandler, err)
	})
	t.Run("invalid percentile should error", func(t *testing.T) {
		args := createFetcherArgs(&testsCommon.QueryExecutorStub{})
		args.SuggestedPercentile = 0
		fetcher, err := NewCycleFetcher(args)
		assert.Nil(t, fetcher)
		assert.Contains(t, err.Error(), "invalid suggested percentile")
	})
	t.Run("should work", func(t *testing.T) {
		fetcher, err := NewCycleFetcher(createFetcherArgs(&testsCommon.QueryExecutorStub{}))
		assert.Nil(t, err)
		assert.False(t, fetcher.IsInterfaceNil())
	})
}

func TestCycleFetcher_FetchCheckoutScenario(t *testing.T) {
	t.Parallel()

	var mut sync.Mutex
	queriedKinds := make(map[string]int)
	args := createFetcherArgs(&testsCommon.QueryExecutorStub{ExecuteHandler: checkoutResponder})
	args.Metrics = &testsCommon.MetricsHandlerStub{
		ObserveQueryHandler: func(kind string, err error) {
			mut.Lock()
			queriedKinds[kind]++
			mut.Unlock()
			assert.Nil(t, err)
		},
	}
	fetcher, _ := NewCycleFetcher(args)

	rows, err := fetcher.Fetch(context.Background(), 100, common.TimeWindow{DurationMs: 3600000})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, map[string]int{"entities": 1, "stats": 2, "errors": 2, "suggested": 2}, queriedKinds)

	checkout := rows[0]
	assert.Equal(t, "checkout", checkout.Name)
	assert.Equal(t, int64(100), checkout.AccountID)
	require.NotNil(t, checkout.Server)
	require.NotNil(t, checkout.Browser)
	assert.Equal(t, 0.5, *checkout.Server.ApdexT)
	assert.Equal(t, int64(1200), *checkout.Server.Count)
	assert.Equal(t, 0.93, *checkout.Server.Score)
	assert.Equal(t, int64(4), *checkout.Server.ErrorCount)
	assert.Equal(t, 0.42, *checkout.Server.SuggestedApdexT)
	assert.Equal(t, 7.0, *checkout.Browser.ApdexT)
	assert.Equal(t, int64(500), *checkout.Browser.Count)
	assert.Equal(t, 0.88, *checkout.Browser.Score)
	assert.Equal(t, int64(1), *checkout.Browser.ErrorCount)
	assert.Equal(t, 8.1, *checkout.Browser.SuggestedApdexT)
	assert.Equal(t, "https://rpm.newrelic.com/accounts/100/browser/12/edit", checkout.Browser.SettingsURL)

	inventory := rows[1]
	assert.Equal(t, "inventory", inventory.Name)
	assert.Nil(t, inventory.Browser)
	assert.Nil(t, inventory.Server.Score)
	assert.Nil(t, inventory.Server.ErrorCount)
	assert.Equal(t, 0.61, *inventory.Server.SuggestedApdexT)
}

func TestCycleFetcher_FetchUsesTheTimeWindow(t *testing.T) {
	t.Parallel()

	var mut sync.Mutex
	var nrqls []string
	fetcher, _ := NewCycleFetcher(createFetcherArgs(&testsCommon.QueryExecutorStub{
		ExecuteHandler: func(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error) {
			if strings.Contains(query.Query, "entitySearch") {
				return entityPage(checkoutEntities, ""), nil
			}
			mut.Lock()
			nrqls = append(nrqls, query.Query)
			mut.Unlock()

			return nrqlResults(`[]`), nil
		},
	}))

	_, err := fetcher.Fetch(context.Background(), 100, common.TimeWindow{BeginMs: 1000, EndMs: 5000})
	require.NoError(t, err)
	require.Len(t, nrqls, 6)
	for _, q := range nrqls {
		assert.Contains(t, q, "SINCE 1000 UNTIL 5000")
		assert.Contains(t, q, "account(id: 100)")
	}
}

func TestCycleFetcher_FetchErrors(t *testing.T) {
	t.Parallel()

	t.Run("entity search failure", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("entity error")
		fetcher, _ := NewCycleFetcher(createFetcherArgs(&testsCommon.QueryExecutorStub{
			ExecuteHandler: func(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error) {
				return gjson.Result{}, expectedErr
			},
		}))

		rows, err := fetcher.Fetch(context.Background(), 100, common.TimeWindow{})
		assert.Nil(t, rows)
		assert.ErrorIs(t, err, expectedErr)
	})
	t.Run("one analytics query failure aborts the cycle", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("nrql error")
		fetcher, _ := NewCycleFetcher(createFetcherArgs(&testsCommon.QueryExecutorStub{
			ExecuteHandler: func(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error) {
				if strings.Contains(query.Query, "JavaScriptError") {
					return gjson.Result{}, expectedErr
				}
				return checkoutResponder(ctx, query)
			},
		}))

		rows, err := fetcher.Fetch(context.Background(), 100, common.TimeWindow{})
		assert.Nil(t, rows)
		assert.ErrorIs(t, err, expectedErr)
		assert.Contains(t, err.Error(), "browser errors query failed")
	})
	t.Run("missing nrql object is tolerated", func(t *testing.T) {
		t.Parallel()

		fetcher, _ := NewCycleFetcher(createFetcherArgs(&testsCommon.QueryExecutorStub{
			ExecuteHandler: func(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error) {
				if strings.Contains(query.Query, "entitySearch") {
					return entityPage(checkoutEntities, ""), nil
				}
				return gjson.Parse(`{"actor": {"account": {"nrql": null}}}`), nil
			},
		}))

		rows, err := fetcher.Fetch(context.Background(), 100, common.TimeWindow{})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Nil(t, rows[0].Server.Score)
	})
	t.Run("malformed entity search aborts the cycle", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetcher, _ := NewCycleFetcher(createFetcherArgs(&testsCommon.QueryExecutorStub{
			ExecuteHandler: func(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error) {
				calls++
				return gjson.Parse(`{"actor": {"entitySearch": null}}`), nil
			},
		}))

		rows, err := fetcher.Fetch(context.Background(), 100, common.TimeWindow{})
		assert.Nil(t, rows)
		assert.ErrorIs(t, err, ErrEntitySearchNotFound)
		assert.Equal(t, 1, calls)
	})
	t.Run("no entities skips the analytics queries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetcher, _ := NewCycleFetcher(createFetcherArgs(&testsCommon.QueryExecutorStub{
			ExecuteHandler: func(ctx context.Context, query queries.GraphQLQuery) (gjson.Result, error) {
				calls++
				return entityPage(`[]`, ""), nil
			},
		}))

		rows, err := fetcher.Fetch(context.Background(), 100, common.TimeWindow{})
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.Equal(t, 1, calls)
	})
}
