package api

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/apdex-optimizer/services/optimizer/presentation"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	tokenCookieName = "token"
	tokenLifeSpan   = 24 * time.Hour
)

var log = logger.GetOrCreate("api")

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	engine         FetchEngine
	selector       AccountSelector
	storage        Storage
	renderer       presentation.Renderer
	metrics        MetricsHandler
	username       string
	password       string
	listenAddr     string
	staticDir      string
	jwtSecret      []byte
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	SecretKey      string
	AuthUsername   string
	AuthPassword   string
	ListenAddress  string
	StaticDir      string
	Engine         FetchEngine
	Selector       AccountSelector
	Storage        Storage
	Renderer       presentation.Renderer
	Metrics        MetricsHandler
	GeneralHandler func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Engine) {
		return nil, errors.New("engine is required")
	}
	if check.IfNil(args.Selector) {
		return nil, errors.New("account selector is required")
	}
	if check.IfNil(args.Storage) {
		return nil, errors.New("storage is required")
	}
	if check.IfNil(args.Renderer) {
		return nil, errors.New("renderer is required")
	}
	if check.IfNil(args.Metrics) {
		return nil, errors.New("metrics handler is required")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	// Derive JWT secret from the secret key + random salt
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	h := hmac.New(sha256.New, []byte(args.SecretKey))
	h.Write(salt)
	jwtSecret := h.Sum(nil)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		engine:         args.Engine,
		selector:       args.Selector,
		storage:        args.Storage,
		renderer:       args.Renderer,
		metrics:        args.Metrics,
		username:       args.AuthUsername,
		password:       args.AuthPassword,
		listenAddr:     args.ListenAddress,
		staticDir:      args.StaticDir,
		generalHandler: args.GeneralHandler,
		jwtSecret:      jwtSecret,
	}

	router.Use(s.requestMetrics())
	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(s.metrics.HTTPHandler()))

	api := s.router.Group("/api")

	// Frontend authentication
	api.POST("/auth/login", s.handleLogin)

	// Protected API endpoints
	protected := api.Group("/")
	protected.Use(s.authJWT())
	{
		protected.GET("/accounts", s.handleGetAccounts)
		protected.POST("/accounts/reload", s.handleReloadAccounts)
		protected.POST("/accounts/select", s.handleSelectAccount)
		protected.GET("/timewindow", s.handleGetTimeWindow)
		protected.PUT("/timewindow", s.handleSetTimeWindow)
		protected.POST("/refresh", s.handleRefresh)
		protected.GET("/rows", s.handleGetRows)
		protected.GET("/snapshots", s.handleListSnapshots)
		protected.GET("/snapshots/:id", s.handleGetSnapshot)
	}

	// Server rendered panel
	s.router.GET("/login", s.handleLoginPage)
	s.router.POST("/login", s.handleLoginForm)
	panel := s.router.Group("/")
	panel.Use(s.authPage())
	{
		panel.GET("/", s.handlePanel)
		panel.POST("/select", s.handlePanelSelect)
	}

	if s.staticDir != "" {
		log.Info("serving static files", "dir", s.staticDir)
		s.router.Static("/static", path.Join(s.staticDir, "static"))
		s.router.StaticFile("/favicon.ico", path.Join(s.staticDir, "favicon.ico"))
	}

	s.router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "api route not found"})
			return
		}
		c.Redirect(http.StatusFound, "/")
	})
}

// Start listens and serves connections
func (s *server) Start() error {
	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}
	s.listenAddr = ln.Addr().String()

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: s.generalHandler(s.router),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()

	return nil
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return s.storage.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *server) IsInterfaceNil() bool {
	return s == nil
}

// --- Authentication ---

// VERY basic JWT implementation for frontend session based on HS256
func (s *server) authJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.checkToken(requestToken(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (s *server) authPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.checkToken(requestToken(c))
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.Next()
	}
}

func requestToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	token, err := c.Cookie(tokenCookieName)
	if err != nil {
		return ""
	}

	return token
}

func (s *server) checkToken(tokenStr string) error {
	if tokenStr == "" {
		return errors.New("missing token")
	}

	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return errors.New("invalid token")
	}

	// Verify signature
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return errors.New("invalid token sign")
	}
	if !hmac.Equal(sig, s.sign(parts[0]+"."+parts[1])) {
		return errors.New("unauthorized")
	}

	// Verify expiration
	var claims struct {
		Exp int64 `json:"exp"`
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err == nil {
		_ = json.Unmarshal(payloadBytes, &claims)
	}

	if time.Now().Unix() > claims.Exp {
		return errors.New("token expired")
	}

	return nil
}

func (s *server) sign(message string) []byte {
	macd := hmac.New(sha256.New, s.jwtSecret)
	macd.Write([]byte(message))

	return macd.Sum(nil)
}

func (s *server) issueToken(username string) (string, error) {
	claims, err := json.Marshal(struct {
		Sub string `json:"sub"`
		Exp int64  `json:"exp"`
	}{
		Sub: username,
		Exp: time.Now().Add(tokenLifeSpan).Unix(),
	})
	if err != nil {
		return "", err
	}

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString(claims)
	msg := header + "." + payload

	return msg + "." + base64.RawURLEncoding.EncodeToString(s.sign(msg)), nil
}

func (s *server) validCredentials(username string, password string) bool {
	userOk := hmac.Equal([]byte(username), []byte(s.username))
	passOk := hmac.Equal([]byte(password), []byte(s.password))

	return userOk && passOk
}

func (s *server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if !s.validCredentials(req.Username, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := s.issueToken(req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
