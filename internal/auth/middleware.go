package auth

import (
	"github.com/atharvakonge/quantumpool-web/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const contextKey = "auth_store"

// Middleware checks the session once per request and exposes the store to
// handlers through FromContext.
func Middleware(verifier Verifier, opts session.Options, log *zap.Logger) gin.HandlerFunc {
	log = log.With(zap.String("component", "auth"))
	return func(c *gin.Context) {
		store := NewStore(verifier, log)
		store.CheckAuth(c.Request.Context(), session.NewJar(c, opts))
		c.Set(contextKey, store)
		c.Next()
	}
}

// FromContext returns the request's store. Without the middleware it returns
// an anonymous store rather than failing.
func FromContext(c *gin.Context) *Store {
	if v, ok := c.Get(contextKey); ok {
		if store, ok := v.(*Store); ok {
			return store
		}
	}
	return anonymousStore()
}
