package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/accounts"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/common"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/presentation"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/storage"
)

// RowsResponse is the JSON body returned on /api/rows
type RowsResponse struct {
	Loading     bool                  `json:"loading"`
	Error       string                `json:"error,omitempty"`
	AccountID   int64                 `json:"accountId"`
	Window      common.TimeWindow     `json:"window"`
	Generation  uint64                `json:"generation"`
	CompletedAt int64                 `json:"completedAt"`
	Columns     []presentation.Column `json:"columns"`
	Page        presentation.Page     `json:"page"`
}

func (s *server) handleGetAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, s.selector.State())
}

func (s *server) handleReloadAccounts(c *gin.Context) {
	err := s.selector.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "label": accounts.ErrorLabel})
		return
	}

	c.JSON(http.StatusOK, s.selector.State())
}

func (s *server) handleSelectAccount(c *gin.Context) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err := s.selector.Select(req.ID)
	if errors.Is(err, accounts.ErrUnknownAccount) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.selector.State())
}

func (s *server) handleGetTimeWindow(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.State().Window)
}

func (s *server) handleSetTimeWindow(c *gin.Context) {
	var window common.TimeWindow
	if err := c.ShouldBindJSON(&window); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if !isValidWindow(window) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time window"})
		return
	}

	s.engine.SetTimeWindow(window)
	c.JSON(http.StatusOK, s.engine.State().Window)
}

// isValidWindow accepts a positive duration, a valid explicit range or the zero value (restores the default)
func isValidWindow(window common.TimeWindow) bool {
	if window.DurationMs < 0 || window.BeginMs < 0 || window.EndMs < 0 {
		return false
	}
	if window == (common.TimeWindow{}) {
		return true
	}

	return window.IsSet()
}

func (s *server) handleRefresh(c *gin.Context) {
	if s.selector.State().SelectedID == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "no account selected"})
		return
	}

	s.engine.Refresh()
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

func (s *server) handleGetRows(c *gin.Context) {
	query := parseTableQuery(c)
	state := s.engine.State()

	resp := RowsResponse{
		Loading:   state.Loading,
		AccountID: state.AccountID,
		Window:    state.Window,
		Columns:   presentation.Columns,
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}

	var rows []common.ApplicationRow
	if state.Snapshot != nil {
		rows = state.Snapshot.Rows
		resp.Generation = state.Snapshot.Generation
		resp.CompletedAt = state.Snapshot.CompletedAt
	}
	resp.Page = presentation.BuildPage(presentation.Present(rows), query)

	c.JSON(http.StatusOK, resp)
}

func parseTableQuery(c *gin.Context) presentation.Query {
	desc, _ := strconv.ParseBool(c.Query("desc"))
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(presentation.DefaultPageSize)))
	if err != nil {
		pageSize = presentation.DefaultPageSize
	}

	return presentation.Query{
		Search:     c.Query("search"),
		SortColumn: c.Query("sort"),
		Descending: desc,
		PageIndex:  page,
		PageSize:   pageSize,
	}
}

func (s *server) handleListSnapshots(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	accountID, err := strconv.ParseInt(c.DefaultQuery("account", "0"), 10, 64)
	if err != nil || accountID < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account"})
		return
	}

	results, err := s.storage.ListSnapshots(c.Request.Context(), accountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots": results})
}

func (s *server) handleGetSnapshot(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot id"})
		return
	}

	snapshot, err := s.storage.GetSnapshot(c.Request.Context(), id)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// --- Server rendered panel ---

func (s *server) handleLoginPage(c *gin.Context) {
	s.renderLogin(c, http.StatusOK, false)
}

func (s *server) handleLoginForm(c *gin.Context) {
	username := c.PostForm("username")
	if !s.validCredentials(username, c.PostForm("password")) {
		s.renderLogin(c, http.StatusUnauthorized, true)
		return
	}

	token, err := s.issueToken(username)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(tokenCookieName, token, int(tokenLifeSpan.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (s *server) renderLogin(c *gin.Context, status int, failed bool) {
	c.Status(status)
	c.Header("Content-Type", s.renderer.ContentType())
	err := s.renderer.RenderLogin(c.Writer, failed)
	if err != nil {
		log.Warn("failed to render the login page", "error", err)
	}
}

func (s *server) handlePanel(c *gin.Context) {
	accountsState := s.selector.State()
	state := s.engine.State()
	query := parseTableQuery(c)

	view := presentation.PanelView{
		AccountLabel:      accountsState.Label,
		AccountsError:     accountsState.Failed,
		Accounts:          accountsState.Accounts,
		SelectedAccountID: accountsState.SelectedID,
		Loading:           state.Loading,
		Query:             query,
	}
	if state.Err != nil {
		view.Error = state.Err.Error()
	}

	var rows []common.ApplicationRow
	if state.Snapshot != nil {
		rows = state.Snapshot.Rows
	}
	view.Page = presentation.BuildPage(presentation.Present(rows), query)

	c.Status(http.StatusOK)
	c.Header("Content-Type", s.renderer.ContentType())
	err := s.renderer.Render(c.Writer, view)
	if err != nil {
		log.Warn("failed to render the panel", "error", err)
	}
}

func (s *server) handlePanelSelect(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	err = s.selector.Select(id)
	if err != nil {
		log.Debug("panel account selection rejected", "id", id, "error", err)
	}

	c.Redirect(http.StatusFound, "/")
}
