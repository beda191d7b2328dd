package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/accounts"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/presentation"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/storage"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/testsCommon"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int64) *int64 {
	return &v
}

func testRows() []common.ApplicationRow {
	return []common.ApplicationRow{
		{
			Name:      "alpha",
			AccountID: 100,
			Server: &common.AppSide{
				AppID:           1,
				ApdexT:          floatPtr(0.5),
				SettingsURL:     "https://rpm.newrelic.com/accounts/100/applications/1/settings-application",
				Score:           floatPtr(0.97),
				Count:           intPtr(300),
				SuggestedApdexT: floatPtr(0.31),
			},
		},
		{
			Name:      "beta",
			AccountID: 100,
			Browser:   &common.AppSide{AppID: 2},
		},
	}
}

func createTestArgs(t *testing.T) ArgsWebServer {
	renderer, err := presentation.NewHTMLRenderer()
	require.NoError(t, err)

	return ArgsWebServer{
		SecretKey:      "test-secret",
		AuthUsername:   "admin",
		AuthPassword:   "password",
		ListenAddress:  ":0",
		Engine:         &testsCommon.FetchEngineStub{},
		Selector:       &testsCommon.AccountSelectorStub{},
		Storage:        &testsCommon.StorageStub{},
		Renderer:       renderer,
		Metrics:        &testsCommon.MetricsHandlerStub{},
		GeneralHandler: func(h http.Handler) http.Handler { return h },
	}
}

func setupTestServer(t *testing.T, args ArgsWebServer) *server {
	serv, err := NewServer(args)
	require.NoError(t, err)

	return serv
}

func getValidToken(serv *server) string {
	loginBody := `{"username":"admin", "password":"password"}`
	req, _ := http.NewRequest("POST", "/api/auth/login", bytes.NewBuffer([]byte(loginBody)))
	w := httptest.NewRecorder()
	serv.router.ServeHTTP(w, req)

	var loginResp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &loginResp)
	return loginResp["token"]
}

func doRequest(serv *server, method string, url string, body string, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, url, nil)
	} else {
		req, _ = http.NewRequest(method, url, bytes.NewBufferString(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	serv.router.ServeHTTP(w, req)

	return w
}

func TestLoginAndGetRows(t *testing.T) {
	args := createTestArgs(t)
	args.Engine = &testsCommon.FetchEngineStub{
		StateHandler: func() common.CycleState {
			return common.CycleState{
				AccountID: 100,
				Window:    common.TimeWindow{DurationMs: 3600000},
				Snapshot: &common.Snapshot{
					Generation:  4,
					AccountID:   100,
					Rows:        testRows(),
					CompletedAt: 1700000000,
				},
			}
		},
	}
	serv := setupTestServer(t, args)

	// unauthenticated
	w := doRequest(serv, "GET", "/api/rows", "", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	token := getValidToken(serv)
	require.NotEmpty(t, token)

	w = doRequest(serv, "GET", "/api/rows", "", token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp RowsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.False(t, resp.Loading)
	require.Empty(t, resp.Error)
	require.Equal(t, uint64(4), resp.Generation)
	require.Equal(t, int64(100), resp.AccountID)
	require.Len(t, resp.Columns, len(presentation.Columns))
	require.Equal(t, 2, resp.Page.TotalRows)
	require.Equal(t, "alpha", resp.Page.Rows[0].Name)
	require.Equal(t, "0.97", resp.Page.Rows[0].ApmApdexScore)
	require.Equal(t, "0", resp.Page.Rows[0].ApmErrorCount)
	require.Equal(t, presentation.ClassNormal, resp.Page.Rows[0].ApmSuggestedClass)
	require.Equal(t, "", resp.Page.Rows[1].BrowserErrorCount)

	// filter, sort and paginate
	w = doRequest(serv, "GET", "/api/rows?search=0.5&pageSize=25", "", token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Page.TotalRows)
	require.Equal(t, 25, resp.Page.PageSize)
	require.Equal(t, "alpha", resp.Page.Rows[0].Name)

	w = doRequest(serv, "GET", "/api/rows?sort=name&desc=true&page=abc", "", token)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "beta", resp.Page.Rows[0].Name)
	require.Equal(t, 1, resp.Page.PageIndex)
}

func TestGetRows_LoadingAndError(t *testing.T) {
	state := common.CycleState{AccountID: 100, Loading: true}
	args := createTestArgs(t)
	args.Engine = &testsCommon.FetchEngineStub{
		StateHandler: func() common.CycleState {
			return state
		},
	}
	serv := setupTestServer(t, args)
	token := getValidToken(serv)

	w := doRequest(serv, "GET", "/api/rows", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"loading":true`)
	require.Contains(t, w.Body.String(), `"rows":[]`)

	state = common.CycleState{AccountID: 100, Err: context.DeadlineExceeded}
	w = doRequest(serv, "GET", "/api/rows", "", token)
	require.Contains(t, w.Body.String(), `"loading":false`)
	require.Contains(t, w.Body.String(), `"error":"context deadline exceeded"`)
}

func TestAccountsEndpoints(t *testing.T) {
	selected := int64(0)
	args := createTestArgs(t)
	args.Selector = &testsCommon.AccountSelectorStub{
		SelectHandler: func(accountID int64) error {
			if accountID != 100 {
				return accounts.ErrUnknownAccount
			}
			selected = accountID
			return nil
		},
		StateHandler: func() common.AccountsState {
			return common.AccountsState{
				Accounts:   []common.Account{{ID: 100, Name: "Main"}},
				SelectedID: selected,
				Label:      accounts.DefaultLabel,
			}
		},
	}
	serv := setupTestServer(t, args)
	token := getValidToken(serv)

	w := doRequest(serv, "GET", "/api/accounts", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"name":"Main"`)
	require.Contains(t, w.Body.String(), `"label":"Select account..."`)

	w = doRequest(serv, "POST", "/api/accounts/select", `{"id": 200}`, token)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(serv, "POST", "/api/accounts/select", `{"id": 100}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(100), selected)
	require.Contains(t, w.Body.String(), `"selectedId":100`)

	w = doRequest(serv, "POST", "/api/accounts/reload", "", token)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestTimeWindowAndRefresh(t *testing.T) {
	window := common.TimeWindow{DurationMs: 3600000}
	refreshes := 0
	args := createTestArgs(t)
	args.Engine = &testsCommon.FetchEngineStub{
		SetTimeWindowHandler: func(w common.TimeWindow) {
			if !w.IsSet() {
				w = common.TimeWindow{DurationMs: 3600000}
			}
			window = w
		},
		RefreshHandler: func() {
			refreshes++
		},
		StateHandler: func() common.CycleState {
			return common.CycleState{Window: window}
		},
	}
	selectedID := int64(0)
	args.Selector = &testsCommon.AccountSelectorStub{
		StateHandler: func() common.AccountsState {
			return common.AccountsState{SelectedID: selectedID}
		},
	}
	serv := setupTestServer(t, args)
	token := getValidToken(serv)

	w := doRequest(serv, "GET", "/api/timewindow", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"durationMs":3600000`)

	w = doRequest(serv, "PUT", "/api/timewindow", `{"durationMs": 604800000}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(604800000), window.DurationMs)

	w = doRequest(serv, "PUT", "/api/timewindow", `{"beginMs": 1000, "endMs": 5000}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, common.TimeWindow{BeginMs: 1000, EndMs: 5000}, window)

	w = doRequest(serv, "PUT", "/api/timewindow", `{}`, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(3600000), window.DurationMs)

	w = doRequest(serv, "PUT", "/api/timewindow", `{"beginMs": 5000, "endMs": 1000}`, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = doRequest(serv, "PUT", "/api/timewindow", `{"durationMs": -1}`, token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(serv, "POST", "/api/refresh", "", token)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Zero(t, refreshes)

	selectedID = 100
	w = doRequest(serv, "POST", "/api/refresh", "", token)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Equal(t, 1, refreshes)
}

func TestSnapshotsEndpoints(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:", 100)
	require.NoError(t, err)
	defer func() {
		_ = store.Close()
	}()

	id, err := store.SaveSnapshot(context.Background(), common.Snapshot{
		Generation:  1,
		AccountID:   100,
		Window:      common.TimeWindow{DurationMs: 3600000},
		Rows:        testRows(),
		CompletedAt: time.Now().Unix(),
	})
	require.NoError(t, err)

	args := createTestArgs(t)
	args.Storage = store
	serv := setupTestServer(t, args)
	token := getValidToken(serv)

	w := doRequest(serv, "GET", "/api/snapshots?limit=5", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"numRows":2`)

	w = doRequest(serv, "GET", "/api/snapshots/"+jsonNumber(id), "", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"name":"alpha"`)

	w = doRequest(serv, "GET", "/api/snapshots/9999", "", token)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(serv, "GET", "/api/snapshots/abc", "", token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(serv, "GET", "/api/snapshots?limit=-1", "", token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func jsonNumber(v int64) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func TestPanel(t *testing.T) {
	args := createTestArgs(t)
	args.Engine = &testsCommon.FetchEngineStub{
		StateHandler: func() common.CycleState {
			return common.CycleState{
				AccountID: 100,
				Snapshot:  &common.Snapshot{AccountID: 100, Rows: testRows()},
			}
		},
	}
	args.Selector = &testsCommon.AccountSelectorStub{
		StateHandler: func() common.AccountsState {
			return common.AccountsState{
				Accounts:   []common.Account{{ID: 100, Name: "Main"}},
				SelectedID: 100,
				Label:      "Main",
			}
		},
	}
	serv := setupTestServer(t, args)

	// unauthenticated requests are sent to the login page
	w := doRequest(serv, "GET", "/", "", "")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	w = doRequest(serv, "GET", "/login", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `action="/login"`)

	// wrong credentials
	req, _ := http.NewRequest("POST", "/login", strings.NewReader("username=admin&password=wrong"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	serv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Invalid credentials")

	// form login sets the session cookie
	req, _ = http.NewRequest("POST", "/login", strings.NewReader("username=admin&password=password"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	serv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, tokenCookieName, cookies[0].Name)

	req, _ = http.NewRequest("GET", "/?search=alpha", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	serv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	require.Contains(t, w.Body.String(), "<table>")
	require.Contains(t, w.Body.String(), ">alpha<")
	require.NotContains(t, w.Body.String(), ">beta<")
	require.Contains(t, w.Body.String(), "What should I set T to?")
}

func TestPanelSelect(t *testing.T) {
	var selected []int64
	args := createTestArgs(t)
	args.Selector = &testsCommon.AccountSelectorStub{
		SelectHandler: func(accountID int64) error {
			selected = append(selected, accountID)
			return nil
		},
	}
	serv := setupTestServer(t, args)
	token := getValidToken(serv)

	w := doRequest(serv, "POST", "/select?id=100", "", token)
	require.Equal(t, http.StatusFound, w.Code)

	w = doRequest(serv, "POST", "/select?id=abc", "", token)
	require.Equal(t, http.StatusFound, w.Code)

	require.Equal(t, []int64{100}, selected)
}
