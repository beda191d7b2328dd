package queries

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
)

// Default Apdex thresholds of the two sides, in seconds
const (
	DefaultServerApdexT  = 0.5
	DefaultBrowserApdexT = 7.0
)

const msInMinute = 60 * 1000

// GraphQLQuery is the request body sent to the host query API
type GraphQLQuery struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// AccountsQuery lists the accounts accessible with the current credentials
func AccountsQuery() GraphQLQuery {
	return GraphQLQuery{
		Query: `{
  actor {
    accounts {
      id
      name
    }
  }
}`,
	}
}

// EntitySearchQuery returns one page of the APM and BROWSER applications of an account. An empty cursor
// requests the first page.
func EntitySearchQuery(accountID int64, cursor string) GraphQLQuery {
	q := GraphQLQuery{
		Query: fmt.Sprintf(`query($cursor: String) {
  actor {
    entitySearch(query: "accountId = '%d' AND domain IN ('APM', 'BROWSER')") {
      results(cursor: $cursor) {
        entities {
          name
          domain
          entityType
          ... on BrowserApplicationEntityOutline {
            accountId
            alertSeverity
            settings {
              apdexTarget
            }
            reporting
            applicationId
          }
          ... on ApmApplicationEntityOutline {
            accountId
            alertSeverity
            settings {
              apdexTarget
            }
            reporting
            applicationId
          }
        }
        nextCursor
      }
    }
  }
}`, accountID),
		Variables: map[string]interface{}{
			"cursor": nil,
		},
	}
	if cursor != "" {
		q.Variables["cursor"] = cursor
	}

	return q
}

// NrqlQuery wraps an NRQL statement into the account scoped GraphQL query
func NrqlQuery(accountID int64, nrql string) GraphQLQuery {
	escaped := strings.ReplaceAll(nrql, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)

	return GraphQLQuery{
		Query: fmt.Sprintf(`{
  actor {
    account(id: %d) {
      nrql(query: "%s") {
        results
      }
    }
  }
}`, accountID, escaped),
	}
}

// TimeFilter translates the time window into the NRQL time clause
func TimeFilter(window common.TimeWindow, defaultMinutes uint32) string {
	if window.DurationMs > 0 {
		minutes := (window.DurationMs + msInMinute - 1) / msInMinute
		return fmt.Sprintf("SINCE %d MINUTES AGO", minutes)
	}
	if window.BeginMs > 0 && window.EndMs > window.BeginMs {
		return fmt.Sprintf("SINCE %d UNTIL %d", window.BeginMs, window.EndMs)
	}
	if defaultMinutes == 0 {
		defaultMinutes = 60
	}

	return fmt.Sprintf("SINCE %d MINUTES AGO", defaultMinutes)
}

// EventType returns the event carrying the response times of the side
func EventType(side common.Side) string {
	if side == common.BrowserSide {
		return "PageView"
	}

	return "Transaction"
}

// ErrorEventType returns the event carrying the errors of the side
func ErrorEventType(side common.Side) string {
	if side == common.BrowserSide {
		return "JavaScriptError"
	}

	return "TransactionError"
}

// DefaultApdexT returns the default threshold of the side
func DefaultApdexT(side common.Side) float64 {
	if side == common.BrowserSide {
		return DefaultBrowserApdexT
	}

	return DefaultServerApdexT
}

// StatsNrql computes the Apdex score (at the side's default threshold) and the volume per application
func StatsNrql(side common.Side, timeFilter string) string {
	return fmt.Sprintf("SELECT apdex(duration, t: %s), count(*) AS 'volume' FROM %s %s FACET appName LIMIT MAX",
		formatThreshold(DefaultApdexT(side)), EventType(side), timeFilter)
}

// ErrorsNrql counts the error events per application
func ErrorsNrql(side common.Side, timeFilter string) string {
	return fmt.Sprintf("SELECT count(*) AS 'errors' FROM %s %s FACET appName LIMIT MAX",
		ErrorEventType(side), timeFilter)
}

// SuggestedNrql computes the response time percentile per application. Server-side queries are restricted
// to web transactions.
func SuggestedNrql(side common.Side, percentile uint32, timeFilter string) string {
	where := ""
	if side == common.ServerSide {
		where = "WHERE transactionType = 'Web' "
	}

	return fmt.Sprintf("SELECT percentile(duration, %d) FROM %s %s%s FACET appName LIMIT MAX",
		percentile, EventType(side), where, timeFilter)
}

// PercentileKey returns the gjson path of the percentile value inside a result item
func PercentileKey(percentile uint32) string {
	return `percentile\.duration.` + strconv.FormatUint(uint64(percentile), 10)
}

// ServerSettingsURL builds the deep link to the APM application settings page
func ServerSettingsURL(baseURL string, accountID int64, appID int64) string {
	return fmt.Sprintf("%s/accounts/%d/applications/%d/settings-application", strings.TrimRight(baseURL, "/"), accountID, appID)
}

// BrowserSettingsURL builds the deep link to the browser application settings page
func BrowserSettingsURL(baseURL string, accountID int64, appID int64) string {
	return fmt.Sprintf("%s/accounts/%d/browser/%d/edit", strings.TrimRight(baseURL, "/"), accountID, appID)
}

// SettingsURL builds the deep link of the side's settings page
func SettingsURL(side common.Side, baseURL string, accountID int64, appID int64) string {
	if side == common.BrowserSide {
		return BrowserSettingsURL(baseURL, accountID, appID)
	}

	return ServerSettingsURL(baseURL, accountID, appID)
}

func formatThreshold(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64)
}
