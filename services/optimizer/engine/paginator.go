package engine

import (
	"context"
	"fmt"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
	"github.com/tidwall/gjson"
)

const (
	entitySearchResultsPath = "actor.entitySearch.results"
	entitiesKey             = "entities"
	nextCursorKey           = "nextCursor"
)

// FetchEntities walks the entity search pages of the account until no next cursor is returned and returns
// the union of all pages. Pages with a null entity list do not stop the walk while a cursor is present.
func FetchEntities(ctx context.Context, executor QueryExecutor, accountID int64, maxPages int) ([]common.Entity, error) {
	entities := make([]common.Entity, 0)
	cursor := ""

	for page := 0; ; page++ {
		if maxPages > 0 && page >= maxPages {
			return nil, fmt.Errorf("%w: %d", ErrTooManyPages, maxPages)
		}

		data, err := executor.Execute(ctx, queries.EntitySearchQuery(accountID, cursor))
		if err != nil {
			return nil, fmt.Errorf("entity search page %d failed: %w", page, err)
		}

		results := data.Get(entitySearchResultsPath)
		if !results.Exists() || results.Type == gjson.Null {
			return nil, fmt.Errorf("%w: %s, page %d", ErrEntitySearchNotFound, entitySearchResultsPath, page)
		}

		for _, item := range results.Get(entitiesKey).Array() {
			entities = append(entities, parseEntity(item))
		}

		cursor = results.Get(nextCursorKey).String()
		log.Trace("entity search page fetched", "account", accountID, "page", page, "total", len(entities), "has next", cursor != "")
		if cursor == "" {
			return entities, nil
		}
	}
}

func parseEntity(item gjson.Result) common.Entity {
	entity := common.Entity{
		Name:          item.Get("name").String(),
		Domain:        item.Get("domain").String(),
		EntityType:    item.Get("entityType").String(),
		AccountID:     item.Get("accountId").Int(),
		ApplicationID: item.Get("applicationId").Int(),
		Reporting:     item.Get("reporting").Bool(),
		AlertSeverity: item.Get("alertSeverity").String(),
	}
	entity.ApdexTarget = floatValue(item.Get("settings.apdexTarget"))

	return entity
}

func floatValue(result gjson.Result) *float64 {
	if result.Type != gjson.Number {
		return nil
	}
	val := result.Float()

	return &val
}

func intValue(result gjson.Result) *int64 {
	if result.Type != gjson.Number {
		return nil
	}
	val := result.Int()

	return &val
}
