package presentation

import (
	"strconv"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
)

// Column keys, in display order
const (
	ColumnName                   = "name"
	ColumnApmCount               = "apmCount"
	ColumnApmErrorCount          = "apmErrorCount"
	ColumnApmApdexT              = "apmApdexT"
	ColumnApmApdexScore          = "apmApdexScore"
	ColumnApmSuggestedApdexT     = "apmSuggestedApdexT"
	ColumnBrowserCount           = "browserCount"
	ColumnBrowserErrorCount      = "browserErrorCount"
	ColumnBrowserApdexT          = "browserApdexT"
	ColumnBrowserApdexScore      = "browserApdexScore"
	ColumnBrowserSuggestedApdexT = "browserSuggestedApdexT"
)

const (
	scoreDecimals     = 2
	suggestedDecimals = 3
)

// Column describes one table column
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
	Link   bool   `json:"link"`
}

// Columns is the fixed column set of the apdex table
var Columns = []Column{
	{Key: ColumnName, Header: "Application Name"},
	{Key: ColumnApmCount, Header: "APM Transactions"},
	{Key: ColumnApmErrorCount, Header: "APM Transaction Errors"},
	{Key: ColumnApmApdexT, Header: "Configured APM ApdexT", Link: true},
	{Key: ColumnApmApdexScore, Header: "APM Apdex Score [t:0.5]"},
	{Key: ColumnApmSuggestedApdexT, Header: "Suggested APM ApdexT"},
	{Key: ColumnBrowserCount, Header: "Browser Page Views"},
	{Key: ColumnBrowserErrorCount, Header: "JavaScript Errors"},
	{Key: ColumnBrowserApdexT, Header: "Configured Browser ApdexT", Link: true},
	{Key: ColumnBrowserApdexScore, Header: "Browser Apdex Score [t:7.0]"},
	{Key: ColumnBrowserSuggestedApdexT, Header: "Suggested Browser ApdexT"},
}

// TableRow is the display form of an application row. Absent values are empty strings.
type TableRow struct {
	Name string `json:"name"`

	ApmCount               string         `json:"apmCount"`
	ApmErrorCount          string         `json:"apmErrorCount"`
	ApmApdexT              string         `json:"apmApdexT"`
	ApmApdexTHref          string         `json:"apmApdexTHref"`
	ApmApdexScore          string         `json:"apmApdexScore"`
	ApmSuggestedApdexT     string         `json:"apmSuggestedApdexT"`
	ApmSuggestedClass      Classification `json:"apmSuggestedClass"`
	BrowserCount           string         `json:"browserCount"`
	BrowserErrorCount      string         `json:"browserErrorCount"`
	BrowserApdexT          string         `json:"browserApdexT"`
	BrowserApdexTHref      string         `json:"browserApdexTHref"`
	BrowserApdexScore      string         `json:"browserApdexScore"`
	BrowserSuggestedApdexT string         `json:"browserSuggestedApdexT"`
	BrowserSuggestedClass  Classification `json:"browserSuggestedClass"`
}

// Present converts the aggregated rows into display rows, keeping the input order
func Present(rows []common.ApplicationRow) []TableRow {
	result := make([]TableRow, 0, len(rows))
	for i := range rows {
		result = append(result, presentRow(&rows[i]))
	}

	return result
}

func presentRow(row *common.ApplicationRow) TableRow {
	tr := TableRow{
		Name: row.Name,
	}

	server := presentSide(row.Server, common.ServerSide)
	tr.ApmCount = server.count
	tr.ApmErrorCount = server.errorCount
	tr.ApmApdexT = server.apdexT
	tr.ApmApdexTHref = server.href
	tr.ApmApdexScore = server.score
	tr.ApmSuggestedApdexT = server.suggested
	tr.ApmSuggestedClass = server.class

	browser := presentSide(row.Browser, common.BrowserSide)
	tr.BrowserCount = browser.count
	tr.BrowserErrorCount = browser.errorCount
	tr.BrowserApdexT = browser.apdexT
	tr.BrowserApdexTHref = browser.href
	tr.BrowserApdexScore = browser.score
	tr.BrowserSuggestedApdexT = browser.suggested
	tr.BrowserSuggestedClass = browser.class

	return tr
}

type sideCells struct {
	count      string
	errorCount string
	apdexT     string
	href       string
	score      string
	suggested  string
	class      Classification
}

func presentSide(side *common.AppSide, which common.Side) sideCells {
	if side == nil {
		return sideCells{}
	}

	cells := sideCells{
		count:      formatInt(side.Count),
		errorCount: ErrorCountCell(side),
		score:      formatFixed(side.Score, scoreDecimals),
		suggested:  formatFixed(side.SuggestedApdexT, suggestedDecimals),
		class:      Classify(side.SuggestedApdexT, queries.DefaultApdexT(which)),
	}
	if side.ApdexT != nil {
		cells.apdexT = strconv.FormatFloat(*side.ApdexT, 'f', -1, 64)
		cells.href = side.SettingsURL
	}

	return cells
}

// ErrorCountCell returns the displayed error count of a side: the counted value when known,
// 0 when the side has a configured threshold and blank otherwise
func ErrorCountCell(side *common.AppSide) string {
	if side == nil {
		return ""
	}
	if side.ErrorCount != nil {
		return strconv.FormatInt(*side.ErrorCount, 10)
	}
	if side.ApdexT != nil {
		return "0"
	}

	return ""
}

func formatInt(value *int64) string {
	if value == nil {
		return ""
	}

	return strconv.FormatInt(*value, 10)
}

func formatFixed(value *float64, decimals int) string {
	if value == nil {
		return ""
	}

	return strconv.FormatFloat(*value, 'f', decimals, 64)
}

// Cell returns the display value of the given column, empty for unknown columns
func (tr *TableRow) Cell(column string) string {
	switch column {
	case ColumnName:
		return tr.Name
	case ColumnApmCount:
		return tr.ApmCount
	case ColumnApmErrorCount:
		return tr.ApmErrorCount
	case ColumnApmApdexT:
		return tr.ApmApdexT
	case ColumnApmApdexScore:
		return tr.ApmApdexScore
	case ColumnApmSuggestedApdexT:
		return tr.ApmSuggestedApdexT
	case ColumnBrowserCount:
		return tr.BrowserCount
	case ColumnBrowserErrorCount:
		return tr.BrowserErrorCount
	case ColumnBrowserApdexT:
		return tr.BrowserApdexT
	case ColumnBrowserApdexScore:
		return tr.BrowserApdexScore
	case ColumnBrowserSuggestedApdexT:
		return tr.BrowserSuggestedApdexT
	default:
		return ""
	}
}

// Href returns the settings link of a link column, empty otherwise
func (tr *TableRow) Href(column string) string {
	switch column {
	case ColumnApmApdexT:
		return tr.ApmApdexTHref
	case ColumnBrowserApdexT:
		return tr.BrowserApdexTHref
	default:
		return ""
	}
}

// Class returns the classification of a color coded column
func (tr *TableRow) Class(column string) Classification {
	switch column {
	case ColumnApmSuggestedApdexT:
		return tr.ApmSuggestedClass
	case ColumnBrowserSuggestedApdexT:
		return tr.BrowserSuggestedClass
	default:
		return ClassNone
	}
}

// IsValidColumn returns true if the key names one of the table columns
func IsValidColumn(column string) bool {
	for _, c := range Columns {
		if c.Key == column {
			return true
		}
	}

	return false
}
