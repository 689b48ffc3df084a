// Package handlers serves the pages, the login proxy and the dashboard's
// REST and WebSocket endpoints.
package handlers

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/atharvakonge/quantumpool-web/internal/api"
	"github.com/atharvakonge/quantumpool-web/internal/auth"
	"github.com/atharvakonge/quantumpool-web/internal/dashboard"
	"github.com/atharvakonge/quantumpool-web/internal/guard"
	"github.com/atharvakonge/quantumpool-web/internal/logger"
	"github.com/atharvakonge/quantumpool-web/internal/session"
	"github.com/atharvakonge/quantumpool-web/internal/state"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Config wires a Handler
type Config struct {
	Client         *api.Client
	Transfers      dashboard.Submitter
	Registry       *state.Registry
	Cookie         session.Options
	GoogleClientID string
	CoinLimit      int
	TrendDays      int
	Log            *zap.Logger
}

// Handler holds the dependencies shared by every route
type Handler struct {
	client         *api.Client
	transfers      dashboard.Submitter
	registry       *state.Registry
	cookie         session.Options
	googleClientID string
	coinLimit      int
	trendDays      int
	pages          *template.Template
	log            *zap.Logger
}

func New(cfg Config) (*Handler, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("handlers: api client is required")
	}
	if cfg.Registry == nil {
		cfg.Registry = state.NewRegistry()
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Handler{
		client:         cfg.Client,
		transfers:      cfg.Transfers,
		registry:       cfg.Registry,
		cookie:         cfg.Cookie,
		googleClientID: cfg.GoogleClientID,
		coinLimit:      cfg.CoinLimit,
		trendDays:      cfg.TrendDays,
		pages:          pages,
		log:            cfg.Log.With(zap.String("component", "handlers")),
	}, nil
}

// Router builds an engine with the full middleware chain: request id, access
// log, recovery, route guard, then the auth check.
func (h *Handler) Router(rules guard.Rules) *gin.Engine {
	r := gin.New()
	r.Use(
		logger.RequestID(),
		logger.Gin(h.log),
		gin.Recovery(),
		guard.Middleware(rules, h.log),
		auth.Middleware(auth.ClientVerifier{Client: h.client}, h.cookie, h.log),
	)
	h.Register(r)
	return r
}

// Register mounts every route on r. Guard and auth middleware are expected
// to be installed on r already.
func (h *Handler) Register(r gin.IRouter) {
	for _, p := range pageList {
		r.GET(p.path, h.Page(p))
	}

	r.POST("/api/auth/login", h.Login)
	r.GET("/logout", h.Logout)
	r.POST("/logout", h.Logout)

	dash := r.Group("/dashboard")
	{
		dash.GET("/api/state", h.DashboardState)
		dash.GET("/api/wallet", h.GetWallet)
		dash.POST("/api/wallet", h.UpdateWallet)
		dash.GET("/ws", h.DashboardSocket)
	}

	r.GET("/health", Health)
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
