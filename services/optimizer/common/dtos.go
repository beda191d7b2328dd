package common

// Domain values reported by the entity search
const (
	DomainAPM     = "APM"
	DomainBrowser = "BROWSER"
)

// Side identifies which half of an application row a value belongs to
type Side int

const (
	// ServerSide is the APM (server-side) half of a row
	ServerSide Side = iota
	// BrowserSide is the BROWSER (real user monitoring) half of a row
	BrowserSide
)

// String returns the human readable side name
func (s Side) String() string {
	switch s {
	case ServerSide:
		return "server"
	case BrowserSide:
		return "browser"
	default:
		return "unknown"
	}
}

// SideFromDomain maps an entity domain to a row side
func SideFromDomain(domain string) (Side, bool) {
	switch domain {
	case DomainAPM:
		return ServerSide, true
	case DomainBrowser:
		return BrowserSide, true
	default:
		return 0, false
	}
}

// Account is a monitored account the API key has access to
type Account struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Entity is the host platform's outline of a monitored application
type Entity struct {
	Name          string   `json:"name"`
	Domain        string   `json:"domain"`
	EntityType    string   `json:"entityType"`
	AccountID     int64    `json:"accountId"`
	ApplicationID int64    `json:"applicationId"`
	ApdexTarget   *float64 `json:"apdexTarget,omitempty"`
	Reporting     bool     `json:"reporting"`
	AlertSeverity string   `json:"alertSeverity,omitempty"`
}

// AppSide holds the fields of one side (server or browser) of an application row
type AppSide struct {
	AppID           int64    `json:"appId"`
	ApdexT          *float64 `json:"apdexT,omitempty"`
	SettingsURL     string   `json:"settingsUrl"`
	Score           *float64 `json:"score,omitempty"`
	Count           *int64   `json:"count,omitempty"`
	ErrorCount      *int64   `json:"errorCount,omitempty"`
	SuggestedApdexT *float64 `json:"suggestedApdexT,omitempty"`
}

// ApplicationRow is one row of the comparison table, unique by name within a fetch cycle
type ApplicationRow struct {
	Name      string   `json:"name"`
	AccountID int64    `json:"accountId"`
	Server    *AppSide `json:"server,omitempty"`
	Browser   *AppSide `json:"browser,omitempty"`
}

// GetSide returns the requested side, nil if not populated
func (row *ApplicationRow) GetSide(side Side) *AppSide {
	if side == BrowserSide {
		return row.Browser
	}

	return row.Server
}

// TimeWindow is the host-style time range object. DurationMs wins over the explicit begin/end range.
type TimeWindow struct {
	DurationMs int64 `json:"durationMs"`
	BeginMs    int64 `json:"beginMs"`
	EndMs      int64 `json:"endMs"`
}

// IsSet returns true if either a duration or a valid explicit range is provided
func (tw TimeWindow) IsSet() bool {
	return tw.DurationMs > 0 || (tw.BeginMs > 0 && tw.EndMs > tw.BeginMs)
}

// FacetValue is one application's value from a faceted NRQL query
type FacetValue struct {
	Score *float64
	Count *int64
	Value *float64
}

// FacetResults maps application names to the values of a faceted query
type FacetResults map[string]FacetValue

// Snapshot is the immutable result of one complete fetch cycle
type Snapshot struct {
	ID          int64            `json:"id,omitempty"`
	Generation  uint64           `json:"generation"`
	AccountID   int64            `json:"accountId"`
	Window      TimeWindow       `json:"window"`
	Rows        []ApplicationRow `json:"rows"`
	CompletedAt int64            `json:"completedAt"`
}

// SnapshotInfo is the lightweight description of a stored snapshot
type SnapshotInfo struct {
	ID          int64      `json:"id"`
	AccountID   int64      `json:"accountId"`
	Window      TimeWindow `json:"window"`
	NumRows     int        `json:"numRows"`
	CompletedAt int64      `json:"completedAt"`
}

// CycleState is what the consumers see of the current fetch cycle
type CycleState struct {
	Loading   bool
	Err       error
	AccountID int64
	Window    TimeWindow
	Snapshot  *Snapshot
}

// AccountsState is the displayed state of the account selector
type AccountsState struct {
	Loading    bool      `json:"loading"`
	Failed     bool      `json:"failed"`
	Accounts   []Account `json:"accounts"`
	SelectedID int64     `json:"selectedId"`
	Label      string    `json:"label"`
}
