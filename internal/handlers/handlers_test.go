package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atharvakonge/quantumpool-web/internal/api"
	"github.com/atharvakonge/quantumpool-web/internal/dashboard"
	"github.com/atharvakonge/quantumpool-web/internal/guard"
	"github.com/atharvakonge/quantumpool-web/internal/session"
	"github.com/atharvakonge/quantumpool-web/internal/state"
	"github.com/atharvakonge/quantumpool-web/internal/transfer"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	userCookie  = `{"id":"u1","role":"user","token":{"access_token":"good","token_type":"bearer"}}`
	guestCookie = `{"id":"u2","role":"guest","token":{"access_token":"good"}}`
	staleCookie = `{"id":"u1","role":"user","token":{"access_token":"expired"}}`
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend mimics the REST API the web tier talks to
type fakeBackend struct {
	mu       sync.Mutex
	paths    []string
	deposits []map[string]any
	wallets  []map[string]any
}

func (f *fakeBackend) hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.paths {
		if p == path {
			n++
		}
	}
	return n
}

func (f *fakeBackend) recorded() (deposits, wallets []map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(deposits, f.deposits...), append(wallets, f.wallets...)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.URL.Path)
	f.mu.Unlock()

	reply := func(status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
	authorized := r.Header.Get("Authorization") == "Bearer good"

	switch {
	case r.URL.Path == "/auth/login":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["token"] != "valid" {
			reply(http.StatusBadRequest, `{"detail":"Invalid Google token"}`)
			return
		}
		reply(http.StatusOK, "{\n  \"id\": \"u1\",\n  \"role\": \"user\",\n  \"token\": {\"access_token\": \"good\"}\n}")

	case strings.HasPrefix(r.URL.Path, "/auth/") && !authorized:
		reply(http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`)

	case r.URL.Path == "/auth/users/me":
		reply(http.StatusOK, `{"id":"u1","email":"ada@example.com","name":"Ada","role":"user"}`)

	case r.URL.Path == "/coin/top_coins":
		reply(http.StatusOK, `{"status":"Success","data":[
			{"slug":"bitcoin","symbol":"BTC","name":"Bitcoin"},
			{"slug":"ethereum","symbol":"ETH","name":"Ethereum"}]}`)

	case r.URL.Path == "/coin/execution_log":
		reply(http.StatusOK, `{"status":"Success","data":{"trading_bot":{"job_name":"trading_bot"}}}`)

	case strings.HasPrefix(r.URL.Path, "/coin/report/"):
		slug := strings.TrimPrefix(r.URL.Path, "/coin/report/")
		reply(http.StatusOK, `{"status":"Success","data":{"coin":"`+slug+`","report":"report for `+slug+`"}}`)

	case strings.HasPrefix(r.URL.Path, "/auth/investment/"):
		slug := strings.TrimPrefix(r.URL.Path, "/auth/investment/")
		reply(http.StatusOK, `{"coin":"`+slug+`","user_investment":{"net_investment":250.5,"performance_percentage":3.1}}`)

	case strings.HasPrefix(r.URL.Path, "/auth/profit_trend/"):
		reply(http.StatusOK, `[]`)

	case r.URL.Path == "/auth/wallets/usdt":
		reply(http.StatusOK, `{"wallet":"TXYZ"}`)

	case r.URL.Path == "/auth/wallet/update":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.wallets = append(f.wallets, body)
		f.mu.Unlock()
		reply(http.StatusOK, `{"message":"Wallet updated"}`)

	case r.URL.Path == "/auth/balance/deposit":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.deposits = append(f.deposits, body)
		f.mu.Unlock()
		reply(http.StatusOK, `{"coin":"BTC","balance":300}`)

	default:
		reply(http.StatusNotFound, `{"detail":"Not Found"}`)
	}
}

type testEnv struct {
	backend  *fakeBackend
	registry *state.Registry
	router   *gin.Engine
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	processor := transfer.NewProcessor(1, zap.NewNop())
	processor.Start()
	t.Cleanup(processor.Stop)

	registry := state.NewRegistry()
	h, err := New(Config{
		Client:         api.New(srv.URL),
		Transfers:      processor,
		Registry:       registry,
		Cookie:         session.Options{TTL: session.DefaultTTL},
		GoogleClientID: "client-id.apps.googleusercontent.com",
		Log:            zap.NewNop(),
	})
	require.NoError(t, err)

	return &testEnv{backend: backend, registry: registry, router: h.Router(guard.DefaultRules)}
}

func (e *testEnv) do(method, path, cookie, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: url.QueryEscape(cookie)})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestPages_Anonymous(t *testing.T) {
	env := setup(t)

	for _, p := range []string{"/", "/about", "/features", "/roadmap", "/whitepaper"} {
		w := env.do(http.MethodGet, p, "", "")
		require.Equal(t, http.StatusOK, w.Code, p)
		assert.Contains(t, w.Body.String(), "google-signin", p)
		assert.Contains(t, w.Body.String(), `"client-id.apps.googleusercontent.com"`, p)
		assert.NotContains(t, w.Body.String(), "Logout", p)
	}
	assert.Equal(t, 0, env.backend.hits("/auth/users/me"), "no cookie, no profile lookup")
}

func TestPages_Authenticated(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodGet, "/about", userCookie, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ada")
	assert.Contains(t, w.Body.String(), "Logout")
	assert.NotContains(t, w.Body.String(), "google-signin")
}

func TestGuard_RedirectsDashboard(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name   string
		cookie string
	}{
		{"no cookie", ""},
		{"malformed cookie", "{not-json"},
		{"role not allowed", guestCookie},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/dashboard", "/dashboard/api/state", "/dashboard/ws"} {
				w := env.do(http.MethodGet, path, tt.cookie, "")
				assert.Equal(t, http.StatusTemporaryRedirect, w.Code, path)
				assert.Equal(t, "/", w.Header().Get("Location"), path)
			}
		})
	}
}

func TestDashboardPage(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodGet, "/dashboard", userCookie, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/dashboard/ws")
	assert.Contains(t, w.Body.String(), `id="wallet-form"`)
	assert.Contains(t, w.Body.String(), "/dashboard/api/wallet")
}

func TestLogin_SetsCookie(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodPost, "/api/auth/login", "", `{"token":"valid"}`)

	require.Equal(t, http.StatusOK, w.Code)
	want := `{"id":"u1","role":"user","token":{"access_token":"good"}}`
	assert.JSONEq(t, want, w.Body.String())

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	value, err := url.QueryUnescape(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, want, value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, int(session.DefaultTTL.Seconds()), cookie.MaxAge)
	assert.Equal(t, "/", cookie.Path)
}

func TestLogin_Failure(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodPost, "/api/auth/login", "", `{"token":"forged"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"Invalid Google token"}`, w.Body.String())
	assert.Nil(t, sessionCookie(w))
}

func TestLogout(t *testing.T) {
	env := setup(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := env.do(method, "/logout", userCookie, "")

		assert.Equal(t, http.StatusSeeOther, w.Code, method)
		assert.Equal(t, "/", w.Header().Get("Location"), method)
		cookie := sessionCookie(w)
		require.NotNil(t, cookie, method)
		assert.Less(t, cookie.MaxAge, 0, method)
	}
}

func TestDashboardState(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodGet, "/dashboard/api/state", userCookie, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Dashboard dashboard.View `json:"dashboard"`
		Errors    []string       `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	require.NotNil(t, body.Dashboard.State.Selected)
	assert.Equal(t, "bitcoin", body.Dashboard.State.Selected.Slug)
	assert.Len(t, body.Dashboard.State.Coins, 2)
	assert.Equal(t, "report for bitcoin", body.Dashboard.Panels.Report)
	assert.Equal(t, "250.50", body.Dashboard.QuickStats.Balance)
	assert.Empty(t, body.Errors)
	assert.Equal(t, 0, env.registry.Len(), "a snapshot never joins the live connections")
}

func TestDashboardState_RejectedToken(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodGet, "/dashboard/api/state", staleCookie, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie, "rejected session is cleared")
	assert.Less(t, cookie.MaxAge, 0)
}

func TestWallet(t *testing.T) {
	env := setup(t)

	w := env.do(http.MethodGet, "/dashboard/api/wallet", userCookie, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"wallet":"TXYZ"}`, w.Body.String())

	w = env.do(http.MethodPost, "/dashboard/api/wallet", userCookie, `{"wallet_address":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"Please enter a valid address."}`, w.Body.String())
	assert.Equal(t, 0, env.backend.hits("/auth/wallet/update"))

	w = env.do(http.MethodPost, "/dashboard/api/wallet", userCookie, `{"wallet_address":" TNEW "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Wallet updated","wallet":"TNEW"}`, w.Body.String())
	_, wallets := env.backend.recorded()
	require.Len(t, wallets, 1)
	assert.Equal(t, "usdt", wallets[0]["coin"])
	assert.Equal(t, "TNEW", wallets[0]["wallet_address"])
}

func dial(t *testing.T, env *testEnv, cookie string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Cookie", session.CookieName+"="+url.QueryEscape(cookie))
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/dashboard/ws", header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireUpdate struct {
	Panel string          `json:"panel"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Toast *dashboard.Toast
}

// readUntil reads updates until match returns true
func readUntil(t *testing.T, conn *websocket.Conn, match func(wireUpdate) bool) wireUpdate {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var u wireUpdate
		require.NoError(t, conn.ReadJSON(&u))
		if match(u) {
			return u
		}
	}
}

func panelData(panel, data string) func(wireUpdate) bool {
	return func(u wireUpdate) bool {
		return u.Panel == panel && string(u.Data) == data
	}
}

func TestDashboardSocket(t *testing.T) {
	env := setup(t)
	conn := dial(t, env, userCookie)

	readUntil(t, conn, panelData("report", `"report for bitcoin"`))
	assert.Equal(t, 1, env.registry.Len())

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "select", Slug: "ethereum"}))
	readUntil(t, conn, panelData("report", `"report for ethereum"`))

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "select", Slug: "dogecoin"}))
	u := readUntil(t, conn, func(u wireUpdate) bool { return u.Panel == "form" })
	assert.Contains(t, u.Error, "unknown coin")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "open_deposit"}))
	readUntil(t, conn, func(u wireUpdate) bool { return u.Panel == "modals" })

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "deposit", Amount: "abc"}))
	u = readUntil(t, conn, func(u wireUpdate) bool { return u.Panel == "form" })
	assert.Equal(t, "Please enter a valid positive amount.", u.Error)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "deposit", Amount: "5"}))
	u = readUntil(t, conn, func(u wireUpdate) bool { return u.Toast != nil })
	assert.Equal(t, "Successfully deposited 5 ETH!", u.Toast.Message)

	deposits, _ := env.backend.recorded()
	require.Len(t, deposits, 1)
	assert.Equal(t, "ethereum", deposits[0]["coin"])
	assert.Equal(t, 5.0, deposits[0]["amount"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "max"}))
	u = readUntil(t, conn, func(u wireUpdate) bool { return u.Panel == "max_withdraw" })
	assert.Equal(t, `"250.5"`, string(u.Data))

	conn.Close()
	assert.Eventually(t, func() bool { return env.registry.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

// awaitCoin reads until both the report and the investment of slug arrived
func awaitCoin(t *testing.T, conn *websocket.Conn, slug string) {
	t.Helper()
	var report, investment bool
	readUntil(t, conn, func(u wireUpdate) bool {
		switch u.Panel {
		case "report":
			report = report || string(u.Data) == `"report for `+slug+`"`
		case "investment":
			investment = investment || strings.Contains(string(u.Data), `"coin":"`+slug+`"`)
		}
		return report && investment
	})
}

func TestDashboardSocket_TabsOfOneUser(t *testing.T) {
	env := setup(t)
	a := dial(t, env, userCookie)
	b := dial(t, env, userCookie)
	awaitCoin(t, a, "bitcoin")
	awaitCoin(t, b, "bitcoin")
	assert.Equal(t, 1, env.registry.Len())

	require.NoError(t, b.WriteJSON(ClientMessage{Type: "select", Slug: "ethereum"}))
	awaitCoin(t, b, "ethereum")

	w := env.do(http.MethodGet, "/dashboard/api/state", userCookie, "")
	require.Equal(t, http.StatusOK, w.Code)

	// a keeps its own selection through b's select and the snapshot
	require.NoError(t, a.WriteJSON(ClientMessage{Type: "open_deposit"}))
	require.NoError(t, a.WriteJSON(ClientMessage{Type: "deposit", Amount: "1"}))
	u := readUntil(t, a, func(u wireUpdate) bool { return u.Toast != nil })
	assert.Equal(t, "Successfully deposited 1 BTC!", u.Toast.Message)

	deposits, _ := env.backend.recorded()
	require.Len(t, deposits, 1)
	assert.Equal(t, "bitcoin", deposits[0]["coin"])

	// a deposit refetches the investment in another tab showing that coin
	require.NoError(t, b.WriteJSON(ClientMessage{Type: "select", Slug: "bitcoin"}))
	awaitCoin(t, b, "bitcoin")
	before := env.backend.hits("/auth/investment/bitcoin")

	require.NoError(t, a.WriteJSON(ClientMessage{Type: "deposit", Amount: "2"}))
	readUntil(t, b, func(u wireUpdate) bool {
		return u.Panel == "investment" && strings.Contains(string(u.Data), `"coin":"bitcoin"`)
	})
	assert.GreaterOrEqual(t, env.backend.hits("/auth/investment/bitcoin"), before+2, "refetched in both tabs")

	a.Close()
	b.Close()
	assert.Eventually(t, func() bool { return env.registry.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestDashboardSocket_Unauthenticated(t *testing.T) {
	env := setup(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Cookie", session.CookieName+"="+url.QueryEscape(staleCookie))
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/dashboard/ws", header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
