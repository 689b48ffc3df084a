package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/atharvakonge/quantumpool-web/internal/api"
	"github.com/atharvakonge/quantumpool-web/internal/auth"
	"github.com/atharvakonge/quantumpool-web/internal/models"
	"github.com/atharvakonge/quantumpool-web/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	resp, raw, err := h.client.Login(c.Request.Context(), req.Token)
	if err != nil {
		h.log.Warn("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": api.Message(err)})
		return
	}

	// The cookie carries the backend payload verbatim, minus whitespace.
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Invalid response from server"})
		return
	}
	session.Write(c, compact.Bytes(), h.cookie)

	h.log.Info("user logged in", zap.String("user", resp.ID), zap.String("role", resp.Role))
	c.Data(http.StatusOK, "application/json; charset=utf-8", compact.Bytes())
}

// Logout handles GET and POST /logout
func (h *Handler) Logout(c *gin.Context) {
	auth.FromContext(c).Logout(session.NewJar(c, h.cookie))
	c.Redirect(http.StatusSeeOther, "/")
}
