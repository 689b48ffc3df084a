package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atharvakonge/quantumpool-web/internal/models"
	"github.com/gin-gonic/gin"
)

// CookieName is the cookie holding the JSON login payload
const CookieName = "bot_user"

// DefaultTTL matches the backend token lifetime (720 minutes)
const DefaultTTL = 12 * time.Hour

var ErrMalformed = errors.New("malformed session cookie")

// Payload is the part of the cookie the server cares about. The rest of the
// profile travels along untouched.
type Payload struct {
	Token models.Token `json:"token"`
	Role  string       `json:"role"`
}

// Parse decodes a raw cookie value
func Parse(raw string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &p, nil
}

// BearerToken extracts the access token, or "" when the cookie is absent or
// cannot be parsed.
func BearerToken(raw string) string {
	if raw == "" {
		return ""
	}
	p, err := Parse(raw)
	if err != nil {
		return ""
	}
	return p.Token.AccessToken
}

// Options control how the cookie is written
type Options struct {
	TTL    time.Duration
	Secure bool
}

func (o Options) maxAge() int {
	if o.TTL <= 0 {
		return int(DefaultTTL.Seconds())
	}
	return int(o.TTL.Seconds())
}

// Read returns the raw cookie value from the request
func Read(c *gin.Context) (string, bool) {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return "", false
	}
	return raw, true
}

// Write stores the login payload as the session cookie
func Write(c *gin.Context, raw []byte, opts Options) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, string(raw), opts.maxAge(), "/", "", opts.Secure, true)
}

// Clear expires the session cookie
func Clear(c *gin.Context, opts Options) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, "", -1, "/", "", opts.Secure, true)
}

// Jar gives the auth store access to the session cookie without tying it
// to a transport.
type Jar interface {
	Get() (string, bool)
	Remove()
}

type ginJar struct {
	c       *gin.Context
	opts    Options
	removed bool
}

// NewJar returns a Jar backed by the request and response of c
func NewJar(c *gin.Context, opts Options) Jar {
	return &ginJar{c: c, opts: opts}
}

func (j *ginJar) Get() (string, bool) {
	if j.removed {
		return "", false
	}
	return Read(j.c)
}

func (j *ginJar) Remove() {
	j.removed = true
	Clear(j.c, j.opts)
}

// MemoryJar is a Jar over a plain string, used by the websocket session and
// tests.
type MemoryJar struct {
	Value   string
	Removed bool
}

func (m *MemoryJar) Get() (string, bool) {
	if m.Removed || m.Value == "" {
		return "", false
	}
	return m.Value, true
}

func (m *MemoryJar) Remove() {
	m.Removed = true
	m.Value = ""
}
