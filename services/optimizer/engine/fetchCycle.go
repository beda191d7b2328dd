package engine

import (
	"context"
	"fmt"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/rows"
	"github.com/multiversx/mx-chain-core-go/core/check"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	nrqlResultsPath = "actor.account.nrql.results"
	appNameKey      = "appName"
	facetKey        = "facet"
	scoreKey        = "score"
	volumeKey       = "volume"
	errorsKey       = "errors"

	queryKindEntities  = "entities"
	queryKindStats     = "stats"
	queryKindErrors    = "errors"
	queryKindSuggested = "suggested"
)

// ArgsCycleFetcher defines the arguments needed to create a cycle fetcher
type ArgsCycleFetcher struct {
	Executor                   QueryExecutor
	Metrics                    MetricsHandler
	SettingsBaseURL            string
	SuggestedPercentile        uint32
	DefaultTimeWindowInMinutes uint32
	MaxEntityPages             int
	MaxConcurrentQueries       int
}

type cycleFetcher struct {
	executor             QueryExecutor
	metrics              MetricsHandler
	settingsBaseURL      string
	percentile           uint32
	defaultWindowMinutes uint32
	maxEntityPages       int
	maxConcurrent        int
}

type pass struct {
	kind   string
	side   common.Side
	nrql   string
	parse  func(item gjson.Result) common.FacetValue
	merge  func(rm *rows.RowsMap, side common.Side, results common.FacetResults) int
	result common.FacetResults
}

// NewCycleFetcher creates the component running the enumerate -> stats -> errors -> suggested thresholds pipeline
func NewCycleFetcher(args ArgsCycleFetcher) (*cycleFetcher, error) {
	if check.IfNil(args.Executor) {
		return nil, ErrNilQueryExecutor
	}
	if check.IfNil(args.Metrics) {
		return nil, ErrNilMetricsHandler
	}
	if args.SuggestedPercentile == 0 || args.SuggestedPercentile > 100 {
		return nil, fmt.Errorf("invalid suggested percentile %d", args.SuggestedPercentile)
	}

	maxConcurrent := args.MaxConcurrentQueries
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &cycleFetcher{
		executor:             args.Executor,
		metrics:              args.Metrics,
		settingsBaseURL:      args.SettingsBaseURL,
		percentile:           args.SuggestedPercentile,
		defaultWindowMinutes: args.DefaultTimeWindowInMinutes,
		maxEntityPages:       args.MaxEntityPages,
		maxConcurrent:        maxConcurrent,
	}, nil
}

// Fetch runs one complete fetch cycle for the account and returns the rows sorted by name.
// Any query failure aborts the whole cycle.
func (cf *cycleFetcher) Fetch(ctx context.Context, accountID int64, window common.TimeWindow) ([]common.ApplicationRow, error) {
	entities, err := FetchEntities(ctx, cf.executor, accountID, cf.maxEntityPages)
	cf.metrics.ObserveQuery(queryKindEntities, err)
	if err != nil {
		return nil, err
	}

	rowsMap := rows.NewRowsMap(accountID, cf.settingsBaseURL)
	for _, entity := range entities {
		rowsMap.AddEntity(entity)
	}
	log.Debug("entities aggregated", "account", accountID, "entities", len(entities), "rows", rowsMap.Len())

	if rowsMap.Len() == 0 {
		return rowsMap.Rows(), nil
	}

	passes := cf.createPasses(queries.TimeFilter(window, cf.defaultWindowMinutes))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(cf.maxConcurrent)
	for _, p := range passes {
		p := p
		group.Go(func() error {
			results, errFetch := cf.fetchFacets(groupCtx, accountID, p.nrql, p.parse)
			cf.metrics.ObserveQuery(p.kind, errFetch)
			if errFetch != nil {
				return fmt.Errorf("%s %s query failed: %w", p.side, p.kind, errFetch)
			}
			p.result = results

			return nil
		})
	}

	err = group.Wait()
	if err != nil {
		return nil, err
	}

	for _, p := range passes {
		merged := p.merge(rowsMap, p.side, p.result)
		log.Trace("pass merged", "kind", p.kind, "side", p.side, "results", len(p.result), "merged", merged)
	}

	return rowsMap.Rows(), nil
}

func (cf *cycleFetcher) createPasses(timeFilter string) []*pass {
	suggestedKey := queries.PercentileKey(cf.percentile)
	parseSuggested := func(item gjson.Result) common.FacetValue {
		return common.FacetValue{Value: floatValue(item.Get(suggestedKey))}
	}

	passes := make([]*pass, 0, 6)
	for _, side := range []common.Side{common.ServerSide, common.BrowserSide} {
		passes = append(passes,
			&pass{
				kind:  queryKindStats,
				side:  side,
				nrql:  queries.StatsNrql(side, timeFilter),
				parse: parseStats,
				merge: (*rows.RowsMap).MergeStats,
			},
			&pass{
				kind:  queryKindErrors,
				side:  side,
				nrql:  queries.ErrorsNrql(side, timeFilter),
				parse: parseErrors,
				merge: (*rows.RowsMap).MergeErrors,
			},
			&pass{
				kind:  queryKindSuggested,
				side:  side,
				nrql:  queries.SuggestedNrql(side, cf.percentile, timeFilter),
				parse: parseSuggested,
				merge: (*rows.RowsMap).MergeSuggested,
			},
		)
	}

	return passes
}

func (cf *cycleFetcher) fetchFacets(
	ctx context.Context,
	accountID int64,
	nrql string,
	parse func(item gjson.Result) common.FacetValue,
) (common.FacetResults, error) {
	data, err := cf.executor.Execute(ctx, queries.NrqlQuery(accountID, nrql))
	if err != nil {
		return nil, err
	}

	results := common.FacetResults{}
	resultsJSON := data.Get(nrqlResultsPath)
	if !resultsJSON.IsArray() {
		log.Warn("no NRQL results returned", "account", accountID, "query", nrql)
		return results, nil
	}

	for _, item := range resultsJSON.Array() {
		name := facetName(item)
		if name == "" {
			continue
		}
		results[name] = parse(item)
	}

	return results, nil
}

func facetName(item gjson.Result) string {
	name := item.Get(appNameKey)
	if name.Exists() {
		return name.String()
	}

	return item.Get(facetKey).String()
}

func parseStats(item gjson.Result) common.FacetValue {
	return common.FacetValue{
		Score: floatValue(item.Get(scoreKey)),
		Count: intValue(item.Get(volumeKey)),
	}
}

func parseErrors(item gjson.Result) common.FacetValue {
	return common.FacetValue{
		Count: intValue(item.Get(errorsKey)),
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (cf *cycleFetcher) IsInterfaceNil() bool {
	return cf == nil
}
