package rows

import (
	"sort"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/queries"
)

// RowsMap is the per-cycle join table between the entity search and the NRQL passes, keyed by application name
type RowsMap struct {
	accountID       int64
	settingsBaseURL string
	rows            map[string]*common.ApplicationRow
}

// NewRowsMap creates an empty join table for the provided account
func NewRowsMap(accountID int64, settingsBaseURL string) *RowsMap {
	return &RowsMap{
		accountID:       accountID,
		settingsBaseURL: settingsBaseURL,
		rows:            make(map[string]*common.ApplicationRow),
	}
}

// AddEntity creates the row if absent and (re)writes the fields of the entity's side only. A threshold
// already known for the side is kept when the entity carries no settings.
// Entities outside the APM and BROWSER domains are ignored.
func (rm *RowsMap) AddEntity(entity common.Entity) bool {
	side, ok := common.SideFromDomain(entity.Domain)
	if !ok {
		return false
	}

	row, found := rm.rows[entity.Name]
	if !found {
		row = &common.ApplicationRow{
			Name:      entity.Name,
			AccountID: rm.accountID,
		}
		rm.rows[entity.Name] = row
	}

	appSide := &common.AppSide{
		AppID:       entity.ApplicationID,
		SettingsURL: queries.SettingsURL(side, rm.settingsBaseURL, rm.accountID, entity.ApplicationID),
	}
	existing := row.GetSide(side)
	switch {
	case entity.ApdexTarget != nil:
		appSide.ApdexT = copyFloat(entity.ApdexTarget)
	case existing != nil:
		appSide.ApdexT = copyFloat(existing.ApdexT)
	}

	if side == common.BrowserSide {
		row.Browser = appSide
	} else {
		row.Server = appSide
	}

	return true
}

// MergeStats writes the score and volume of the matching rows' side
func (rm *RowsMap) MergeStats(side common.Side, results common.FacetResults) int {
	return rm.merge(side, results, func(appSide *common.AppSide, value common.FacetValue) bool {
		if value.Score == nil && value.Count == nil {
			return false
		}
		if value.Score != nil {
			appSide.Score = copyFloat(value.Score)
		}
		if value.Count != nil {
			appSide.Count = copyInt(value.Count)
		}

		return true
	})
}

// MergeErrors writes the error count of the matching rows' side
func (rm *RowsMap) MergeErrors(side common.Side, results common.FacetResults) int {
	return rm.merge(side, results, func(appSide *common.AppSide, value common.FacetValue) bool {
		if value.Count == nil {
			return false
		}
		appSide.ErrorCount = copyInt(value.Count)

		return true
	})
}

// MergeSuggested writes the suggested Apdex threshold of the matching rows' side
func (rm *RowsMap) MergeSuggested(side common.Side, results common.FacetResults) int {
	return rm.merge(side, results, func(appSide *common.AppSide, value common.FacetValue) bool {
		if value.Value == nil {
			return false
		}
		appSide.SuggestedApdexT = copyFloat(value.Value)

		return true
	})
}

// merge applies the setter for each result whose name matches a row having the requested side.
// Names unknown to the entity search, or rows without that side, are skipped.
func (rm *RowsMap) merge(side common.Side, results common.FacetResults, setter func(appSide *common.AppSide, value common.FacetValue) bool) int {
	merged := 0
	for name, value := range results {
		row, found := rm.rows[name]
		if !found {
			continue
		}

		appSide := row.GetSide(side)
		if appSide == nil {
			continue
		}

		if setter(appSide, value) {
			merged++
		}
	}

	return merged
}

// Len returns the number of rows
func (rm *RowsMap) Len() int {
	return len(rm.rows)
}

// Get returns a copy of the named row
func (rm *RowsMap) Get(name string) (common.ApplicationRow, bool) {
	row, found := rm.rows[name]
	if !found {
		return common.ApplicationRow{}, false
	}

	return copyRow(row), true
}

// Rows returns deep copies of all rows, sorted by name
func (rm *RowsMap) Rows() []common.ApplicationRow {
	names := make([]string, 0, len(rm.rows))
	for name := range rm.rows {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]common.ApplicationRow, 0, len(names))
	for _, name := range names {
		out = append(out, copyRow(rm.rows[name]))
	}

	return out
}

func copyRow(row *common.ApplicationRow) common.ApplicationRow {
	return common.ApplicationRow{
		Name:      row.Name,
		AccountID: row.AccountID,
		Server:    copySide(row.Server),
		Browser:   copySide(row.Browser),
	}
}

func copySide(side *common.AppSide) *common.AppSide {
	if side == nil {
		return nil
	}

	return &common.AppSide{
		AppID:           side.AppID,
		ApdexT:          copyFloat(side.ApdexT),
		SettingsURL:     side.SettingsURL,
		Score:           copyFloat(side.Score),
		Count:           copyInt(side.Count),
		ErrorCount:      copyInt(side.ErrorCount),
		SuggestedApdexT: copyFloat(side.SuggestedApdexT),
	}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	val := *v

	return &val
}

func copyInt(v *int64) *int64 {
	if v == nil {
		return nil
	}
	val := *v

	return &val
}
