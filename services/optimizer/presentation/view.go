package presentation

import (
	"slices"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of rows shown when no valid page size is requested
const DefaultPageSize = 10

// PageSizes lists the accepted page sizes
var PageSizes = []int{10, 25, 50, 100}

// filterColumns are the columns searched by Filter
var filterColumns = []string{
	ColumnName,
	ColumnApmApdexT,
	ColumnBrowserApdexT,
	ColumnApmApdexScore,
	ColumnBrowserApdexScore,
}

// Page is one page of the presented table
type Page struct {
	Rows       []TableRow `json:"rows"`
	PageIndex  int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalRows  int        `json:"totalRows"`
	TotalPages int        `json:"totalPages"`
}

// Filter keeps the rows whose name, configured thresholds or scores contain the text.
// The match is a case-sensitive substring match; an empty text keeps all rows.
func Filter(rows []TableRow, text string) []TableRow {
	if text == "" {
		return rows
	}

	result := make([]TableRow, 0, len(rows))
	for i := range rows {
		if matches(&rows[i], text) {
			result = append(result, rows[i])
		}
	}

	return result
}

func matches(row *TableRow, text string) bool {
	for _, column := range filterColumns {
		if strings.Contains(row.Cell(column), text) {
			return true
		}
	}

	return false
}

// Sort returns a copy of the rows stably sorted by the column. Numeric cells compare as numbers,
// blank cells always go last. An unknown column leaves the order unchanged.
func Sort(rows []TableRow, column string, descending bool) []TableRow {
	result := slices.Clone(rows)
	if !IsValidColumn(column) {
		return result
	}

	slices.SortStableFunc(result, func(a, b TableRow) int {
		return compareCells(a.Cell(column), b.Cell(column), descending)
	})

	return result
}

func compareCells(a string, b string, descending bool) int {
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}

	result := 0
	numA, errA := strconv.ParseFloat(a, 64)
	numB, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case numA < numB:
			result = -1
		case numA > numB:
			result = 1
		}
	} else {
		result = strings.Compare(a, b)
	}

	if descending {
		return -result
	}

	return result
}

// NormalizePageSize returns the page size if accepted, DefaultPageSize otherwise
func NormalizePageSize(pageSize int) int {
	if slices.Contains(PageSizes, pageSize) {
		return pageSize
	}

	return DefaultPageSize
}

// Paginate returns the requested 1-based page. Out of range pages are clamped and there is always
// at least one (possibly empty) page.
func Paginate(rows []TableRow, pageIndex int, pageSize int) Page {
	pageSize = NormalizePageSize(pageSize)
	totalPages := (len(rows) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if pageIndex < 1 {
		pageIndex = 1
	}
	if pageIndex > totalPages {
		pageIndex = totalPages
	}

	start := (pageIndex - 1) * pageSize
	end := min(start+pageSize, len(rows))

	pageRows := make([]TableRow, 0, end-start)
	pageRows = append(pageRows, rows[start:end]...)

	return Page{
		Rows:       pageRows,
		PageIndex:  pageIndex,
		PageSize:   pageSize,
		TotalRows:  len(rows),
		TotalPages: totalPages,
	}
}

// Query holds the table view parameters
type Query struct {
	Search     string
	SortColumn string
	Descending bool
	PageIndex  int
	PageSize   int
}

// BuildPage applies, in order, the filter, the sort and the pagination on the presented rows
func BuildPage(rows []TableRow, query Query) Page {
	filtered := Filter(rows, query.Search)
	sorted := Sort(filtered, query.SortColumn, query.Descending)

	return Paginate(sorted, query.PageIndex, query.PageSize)
}
