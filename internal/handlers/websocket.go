package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/atharvakonge/quantumpool-web/internal/dashboard"
	"github.com/atharvakonge/quantumpool-web/internal/forms"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// notifyBuffer bounds pending holdings notices from the user's other tabs
	notifyBuffer = 8
)

// Panels only the socket produces
const (
	panelForm        dashboard.Panel = "form"
	panelMaxWithdraw dashboard.Panel = "max_withdraw"
)

// ClientMessage is what the dashboard page sends over the socket
type ClientMessage struct {
	Type   string `json:"type"`
	Slug   string `json:"slug,omitempty"`
	Amount string `json:"amount,omitempty"`
}

// WebSocket upgrader. A nil CheckOrigin rejects cross-origin upgrades.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// socketWriter serializes writes; gorilla allows one concurrent writer
type socketWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  *zap.Logger
}

func (w *socketWriter) send(u dashboard.Update) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_ = w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := w.conn.WriteJSON(u); err != nil {
		w.log.Debug("websocket write error", zap.Error(err))
	}
}

func (w *socketWriter) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// DashboardSocket handles GET /dashboard/ws. Each connection gets its own
// dashboard session and UI state; a transfer in one refetches the investment
// in the user's other connections showing that coin.
func (h *Handler) DashboardSocket(c *gin.Context) {
	store, ok := requireUser(c)
	if !ok {
		return
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade error", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.log.With(zap.String("user", store.User().ID))
	out := &socketWriter{conn: conn, log: log}

	sess := h.newSession(store, out.send)
	defer sess.Close()
	log = log.With(zap.String("session", sess.ID()))
	log.Info("dashboard connected")

	changed := make(chan string, notifyBuffer)
	h.registry.Join(store.User().ID, sess.ID(), changed)
	defer h.registry.Leave(store.User().ID, sess.ID())

	ctx, cancel := context.WithCancel(c.Request.Context())
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := sess.Load(ctx); err != nil {
			log.Warn("dashboard load failed", zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		h.keepAlive(ctx, out)
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case slug := <-changed:
				sess.InvestmentChanged(ctx, slug)
			}
		}
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error", zap.Error(err))
			}
			log.Info("dashboard disconnected")
			return
		}
		h.dispatch(ctx, &wg, sess, out, msg)
	}
}

func (h *Handler) keepAlive(ctx context.Context, out *socketWriter) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := out.ping(); err != nil {
				return
			}
		}
	}
}

// dispatch runs one client message. Anything that waits on the backend runs
// in the background so the read loop keeps going.
func (h *Handler) dispatch(ctx context.Context, wg *sync.WaitGroup, sess *dashboard.Session, out *socketWriter, msg ClientMessage) {
	background := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	switch msg.Type {
	case "select":
		background(func() {
			if err := sess.SelectSlug(ctx, msg.Slug); err != nil {
				out.send(formError(err))
			}
		})

	case "open_deposit":
		if err := sess.OpenDeposit(); err != nil {
			out.send(formError(err))
		}

	case "open_withdraw":
		if err := sess.OpenWithdraw(); err != nil {
			out.send(formError(err))
		}

	case "close":
		sess.CloseModals()

	case "max":
		out.send(dashboard.Update{Panel: panelMaxWithdraw, Data: sess.MaxWithdraw()})

	case "deposit", "withdraw":
		background(func() {
			var err error
			if msg.Type == "deposit" {
				_, err = sess.Deposit(ctx, msg.Amount)
			} else {
				_, err = sess.Withdraw(ctx, msg.Amount)
			}
			// Backend failures were already reported as a toast.
			if err != nil && isFormError(err) {
				out.send(formError(err))
			}
		})

	default:
		out.send(dashboard.Update{Panel: panelForm, Error: "unknown message type: " + msg.Type})
	}
}

func isFormError(err error) bool {
	return errors.Is(err, forms.ErrInvalidAmount) ||
		errors.Is(err, forms.ErrInsufficientBalance) ||
		errors.Is(err, dashboard.ErrNoCoinSelected) ||
		errors.Is(err, dashboard.ErrUnknownCoin)
}

func formError(err error) dashboard.Update {
	return dashboard.Update{Panel: panelForm, Error: err.Error()}
}
