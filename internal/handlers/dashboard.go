package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/atharvakonge/quantumpool-web/internal/api"
	"github.com/atharvakonge/quantumpool-web/internal/auth"
	"github.com/atharvakonge/quantumpool-web/internal/dashboard"
	"github.com/atharvakonge/quantumpool-web/internal/forms"
	"github.com/atharvakonge/quantumpool-web/internal/state"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// walletCoin is the only coin with a payout address
const walletCoin = "usdt"

// requireUser aborts with 401 unless the auth store is authenticated
func requireUser(c *gin.Context) (*auth.Store, bool) {
	store := auth.FromContext(c)
	if !store.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return nil, false
	}
	return store, true
}

// errorStatus maps a backend failure to the status we answer with
func errorStatus(err error) int {
	var reqErr *api.RequestError
	if errors.As(err, &reqErr) && reqErr.Status >= 400 && reqErr.Status < 500 {
		return reqErr.Status
	}
	return http.StatusBadGateway
}

// newSession builds a dashboard over its own UI store. A successful transfer
// is relayed to the user's other live connections.
func (h *Handler) newSession(store *auth.Store, publish func(dashboard.Update)) *dashboard.Session {
	user := store.User()
	var sess *dashboard.Session
	notify := func(slug string) { h.registry.Notify(user.ID, sess.ID(), slug) }
	sess = dashboard.New(h.client.WithToken(store.Token()), state.New(), dashboard.Options{
		UserID:     user.ID,
		CoinLimit:  h.coinLimit,
		TrendDays:  h.trendDays,
		Transfers:  h.transfers,
		Publish:    publish,
		OnTransfer: notify,
		Log:        h.log,
	})
	return sess
}

// DashboardState handles GET /dashboard/api/state
func (h *Handler) DashboardState(c *gin.Context) {
	store, ok := requireUser(c)
	if !ok {
		return
	}

	var (
		mu   sync.Mutex
		errs = []string{}
	)
	sess := h.newSession(store, func(u dashboard.Update) {
		if u.Error == "" {
			return
		}
		mu.Lock()
		errs = append(errs, string(u.Panel)+": "+u.Error)
		mu.Unlock()
	})
	defer sess.Close()

	if err := sess.Load(c.Request.Context()); err != nil {
		h.log.Warn("dashboard loaded with errors", zap.Error(err))
	}

	mu.Lock()
	defer mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"dashboard": sess.View(),
		"errors":    errs,
	})
}

// GetWallet handles GET /dashboard/api/wallet
func (h *Handler) GetWallet(c *gin.Context) {
	store, ok := requireUser(c)
	if !ok {
		return
	}

	addr, err := h.client.WithToken(store.Token()).Wallet(c.Request.Context(), walletCoin)
	if err != nil {
		h.log.Warn("error fetching wallet", zap.Error(err))
		c.JSON(errorStatus(err), gin.H{"detail": api.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": addr})
}

type walletRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// UpdateWallet handles POST /dashboard/api/wallet
func (h *Handler) UpdateWallet(c *gin.Context) {
	store, ok := requireUser(c)
	if !ok {
		return
	}

	var req walletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	addr, err := forms.ValidateAddress(req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	msg, err := h.client.WithToken(store.Token()).UpdateWallet(c.Request.Context(), walletCoin, addr)
	if err != nil {
		h.log.Warn("error updating wallet", zap.Error(err))
		c.JSON(errorStatus(err), gin.H{"detail": api.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "wallet": addr})
}
