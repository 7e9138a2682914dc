package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"crypto-advisor/src/auth"
	"crypto-advisor/src/config"
	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/metrics"
	"crypto-advisor/src/models"
	"crypto-advisor/src/services"
	"crypto-advisor/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	apiVersion   = "1.0.0"
	maxBodyBytes = 10 << 10
)

// IDashboardBuilder composes the per-user dashboard.
type IDashboardBuilder interface {
	GetDashboard(ctx context.Context, userID string) (*models.MDashboardPayload, error)
}

// Dependencies are the collaborators the HTTP layer routes requests to.
type Dependencies struct {
	Dashboard IDashboardBuilder
	Auth      *services.AuthService
	Users     *services.UserService
	Feedback  *services.FeedbackService
	Tokens    *auth.TokenManager
	Caches    *utils.CacheRegistry
	Database  interfaces.IDatabase
	Prices    interfaces.IPriceProvider
}

// -----------------------------------------------------------------------------
// APIServer exposes the REST API and the live price stream.
// -----------------------------------------------------------------------------

type APIServer struct {
	Config *config.Config
	Logger *logger.Logger

	deps       Dependencies
	production bool
	startedAt  time.Time

	engine     *gin.Engine
	httpServer *http.Server
	upgrader   websocket.Upgrader
	hub        *Hub
	limiters   []*RateLimiter
}

// -----------------------------------------------------------------------------

func NewAPIServer(cfg *config.Config, deps Dependencies, log *logger.Logger) *APIServer {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:     cfg,
		Logger:     log,
		deps:       deps,
		production: cfg.IsProduction(),
		startedAt:  time.Now(),
		engine:     gin.New(),
	}

	// With no trusted proxies ClientIP is the socket address.
	if err := s.engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warning("invalid trusted_proxies %v, trusting none: %v", cfg.TrustedProxies, err)
		_ = s.engine.SetTrustedProxies(nil)
	}

	interval := time.Duration(cfg.Stream.IntervalSeconds) * time.Second
	s.hub = NewHub(deps.Prices, interval, log.Named("stream"))
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(cfg.CORS.Origins, origin)
		},
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	rl := s.Config.RateLimit
	global := s.newLimiter(rl.Global, "Too many requests, please try again later.")
	authLimit := s.newLimiter(rl.Auth, "Too many authentication attempts, please try again later.")
	dashLimit := s.newLimiter(rl.Dashboard, "Too many requests to dashboard, please try again later.")
	feedbackLimit := s.newLimiter(rl.Feedback, "Too many feedback submissions, please try again later.")

	r := s.engine
	r.Use(gin.Recovery())
	r.Use(s.securityHeaders())
	r.Use(s.cors())
	r.Use(s.accessLog())
	r.Use(limitBody(maxBodyBytes))

	r.GET("/", s.handleRoot)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.Use(global.Middleware())

	api.GET("/health", s.handleHealth)
	api.GET("/health/ready", s.handleReady)

	authGroup := api.Group("/auth", authLimit.Middleware())
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)

	user := api.Group("/user", s.requireAuth())
	user.POST("/onboarding", s.handleOnboarding)
	user.GET("/profile", s.handleProfile)

	api.GET("/dashboard", s.requireAuth(), dashLimit.Middleware(), s.handleDashboard)

	feedback := api.Group("/feedback", s.requireAuth())
	feedback.POST("", feedbackLimit.Middleware(), s.handleSubmitFeedback)
	feedback.GET("", s.handleListFeedback)

	cache := api.Group("/cache", s.requireAuth())
	cache.GET("/stats", s.handleCacheStats)
	cache.DELETE("", s.handleClearCaches)
	cache.DELETE("/:name", s.handleClearCache)

	api.GET("/ws/prices", s.handlePriceStream)

	r.NoRoute(func(c *gin.Context) {
		respondMessage(c, http.StatusNotFound, "Endpoint not found")
	})
}

// -----------------------------------------------------------------------------

// Handler exposes the router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// Hub exposes the price-stream hub.
func (s *APIServer) Hub() *Hub {
	return s.hub
}

// -----------------------------------------------------------------------------

// Start runs the hub and the limiter janitor, then blocks serving HTTP until
// Shutdown is called.
func (s *APIServer) Start() error {
	go s.hub.Run()
	for _, l := range s.limiters {
		go l.RunJanitor()
	}

	s.Logger.Info("API server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

// Shutdown drains in-flight requests, then stops the hub and limiters.
func (s *APIServer) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.hub.Stop()
	for _, l := range s.limiters {
		l.Stop()
	}
	return err
}
