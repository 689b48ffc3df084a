// Package guard redirects navigation to protected pages when the session
// cookie does not carry an allowed role.
//
// The check is a navigation convenience, not a security boundary. The cookie
// is not signed and its role is trusted as-is; every data call is authorized
// again by the backend using the bearer token.
package guard

import (
	"net/http"
	"slices"
	"strings"

	"github.com/atharvakonge/quantumpool-web/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Rules maps a protected path prefix to the roles allowed to open it
type Rules map[string][]string

// DefaultRules protects the dashboard for users and admins
var DefaultRules = Rules{
	"/dashboard": {"user", "admin"},
}

// RedirectTo is where rejected navigation lands
const RedirectTo = "/"

// Match returns the roles required for path, and false when the path is
// unprotected. Prefixes match on a segment boundary, so "/dashboard/ws" is
// protected and "/dashboards" is not.
func (r Rules) Match(path string) ([]string, bool) {
	var (
		best  string
		roles []string
	)
	for prefix, allowed := range r {
		if path != prefix && !strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/") {
			continue
		}
		if len(prefix) > len(best) {
			best, roles = prefix, allowed
		}
	}
	return roles, best != ""
}

// Middleware enforces rules on every request
func Middleware(rules Rules, log *zap.Logger) gin.HandlerFunc {
	log = log.With(zap.String("component", "guard"))
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		roles, protected := rules.Match(path)
		if !protected {
			c.Next()
			return
		}

		raw, ok := session.Read(c)
		if !ok {
			reject(c)
			return
		}

		payload, err := session.Parse(raw)
		if err != nil {
			log.Error("cookie parse error", zap.String("path", path), zap.Error(err))
			reject(c)
			return
		}

		if !slices.Contains(roles, payload.Role) {
			log.Info("role not allowed", zap.String("path", path), zap.String("role", payload.Role))
			reject(c)
			return
		}

		c.Next()
	}
}

func reject(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, RedirectTo)
	c.Abort()
}
