// Package dashboard orchestrates the data behind one live dashboard: the
// coin list, the execution log and the three panels that follow the
// selected coin.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atharvakonge/quantumpool-web/internal/api"
	"github.com/atharvakonge/quantumpool-web/internal/models"
	"github.com/atharvakonge/quantumpool-web/internal/state"
	"github.com/atharvakonge/quantumpool-web/internal/transfer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Backend is the slice of the API client a dashboard needs, already scoped
// to the user's token.
type Backend interface {
	TopCoins(ctx context.Context, limit int) ([]models.Coin, error)
	ExecutionLog(ctx context.Context) (*models.ExecutionLogs, error)
	Report(ctx context.Context, slug string) (*models.Report, error)
	Investment(ctx context.Context, slug string) (*models.InvestmentData, error)
	ProfitTrend(ctx context.Context, slug string, days int) ([]models.PortfolioPoint, error)
	transfer.Balancer
}

// Submitter runs balance operations. *transfer.Processor satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req transfer.Request) transfer.Result
}

var (
	ErrNoCoinSelected = errors.New("no coin selected")
	ErrUnknownCoin    = errors.New("unknown coin")
)

const (
	DefaultCoinLimit = 3
	DefaultTrendDays = 30
)

// Options configure a Session
type Options struct {
	UserID    string
	CoinLimit int
	TrendDays int
	Transfers Submitter
	// Publish receives every panel change. It must be safe for concurrent use.
	Publish func(Update)
	// OnTransfer runs after a successful deposit or withdraw with the coin slug
	OnTransfer func(slug string)
	Log        *zap.Logger
}

// Panels is the data currently shown for the selected coin
type Panels struct {
	Report     string                  `json:"report"`
	Investment *models.InvestmentData  `json:"investment"`
	Trend      []models.PortfolioPoint `json:"trend"`
	LastTrade  *models.ExecutionLog    `json:"last_trade"`
	LastReport *models.ExecutionLog    `json:"last_report"`
}

// Session is one dashboard. Each selection gets a new generation; responses
// belonging to an older generation are dropped.
type Session struct {
	id        string
	userID    string
	backend   Backend
	ui        *state.Store
	transfers Submitter
	publish   func(Update)
	onTrans   func(string)
	log       *zap.Logger
	limit     int
	days      int

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	panels     Panels
}

// New creates a Session over backend. ui belongs to this session alone; nil
// gets a fresh store.
func New(backend Backend, ui *state.Store, opts Options) *Session {
	if ui == nil {
		ui = state.New()
	}
	if opts.CoinLimit <= 0 {
		opts.CoinLimit = DefaultCoinLimit
	}
	if opts.TrendDays <= 0 {
		opts.TrendDays = DefaultTrendDays
	}
	if opts.Publish == nil {
		opts.Publish = func(Update) {}
	}
	if opts.OnTransfer == nil {
		opts.OnTransfer = func(string) {}
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		userID:    opts.UserID,
		backend:   backend,
		ui:        ui,
		transfers: opts.Transfers,
		publish:   opts.Publish,
		onTrans:   opts.OnTransfer,
		log:       opts.Log.With(zap.String("component", "dashboard"), zap.String("session", id)),
		limit:     opts.CoinLimit,
		days:      opts.TrendDays,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) UI() *state.Store { return s.ui }

// Load fetches the coin list and the execution log concurrently. Once the
// coins arrive the first one is selected, which loads its panels.
func (s *Session) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.loadCoins(ctx) })
	g.Go(func() error { return s.loadExecutionLog(ctx) })
	return g.Wait()
}

func (s *Session) loadCoins(ctx context.Context) error {
	coins, err := s.backend.TopCoins(ctx, s.limit)
	if err != nil {
		s.log.Warn("error fetching coins", zap.Error(err))
		s.publish(errorUpdate(PanelCoins, err))
		return fmt.Errorf("load coins: %w", err)
	}
	if len(coins) == 0 {
		return nil
	}

	s.ui.SetCoins(coins)
	s.publish(Update{Panel: PanelCoins, Data: coins})

	s.Select(ctx, &s.ui.Coins()[0])
	return nil
}

func (s *Session) loadExecutionLog(ctx context.Context) error {
	logs, err := s.backend.ExecutionLog(ctx)
	if err != nil {
		s.log.Warn("error fetching execution log", zap.Error(err))
		s.publish(errorUpdate(PanelExecutionLog, err))
		return fmt.Errorf("load execution log: %w", err)
	}

	s.mu.Lock()
	s.panels.LastTrade = logs.TradingBot
	s.panels.LastReport = logs.NewsSentiment
	s.mu.Unlock()

	s.publish(Update{Panel: PanelExecutionLog, Data: logs})
	return nil
}

// Select makes coin the selection and loads its report, investment and
// trend concurrently. The selection changes even if every fetch fails, and
// each fetch fails on its own. In-flight fetches for the previous selection
// are cancelled and their late responses ignored. A nil coin clears the
// selection without fetching.
func (s *Session) Select(ctx context.Context, coin *models.Coin) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	var fetchCtx context.Context
	if coin != nil {
		fetchCtx, s.cancel = context.WithCancel(ctx)
	}
	s.mu.Unlock()

	s.ui.SetSelected(coin)
	s.publish(Update{Panel: PanelSelection, Data: coin})
	if coin == nil {
		return
	}

	slug := coin.Slug
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.fetchReport(fetchCtx, gen, slug)
	}()
	go func() {
		defer wg.Done()
		s.fetchInvestment(fetchCtx, gen, slug)
	}()
	go func() {
		defer wg.Done()
		s.fetchTrend(fetchCtx, gen, slug)
	}()
	wg.Wait()
}

// SelectSlug selects the coin with slug from the fetched list
func (s *Session) SelectSlug(ctx context.Context, slug string) error {
	coin := s.ui.Find(slug)
	if coin == nil {
		return fmt.Errorf("%w: %s", ErrUnknownCoin, slug)
	}
	s.Select(ctx, coin)
	return nil
}

func (s *Session) fetchReport(ctx context.Context, gen uint64, slug string) {
	report, err := s.backend.Report(ctx, slug)
	if err != nil {
		s.log.Warn("error fetching coin report", zap.String("coin", slug), zap.Error(err))
	}
	s.commit(gen, PanelReport, err, func(p *Panels) any {
		p.Report = ""
		if report != nil {
			p.Report = report.Report
		}
		return p.Report
	})
}

func (s *Session) fetchInvestment(ctx context.Context, gen uint64, slug string) {
	data, err := s.backend.Investment(ctx, slug)
	if err != nil {
		s.log.Warn("error fetching coin investment", zap.String("coin", slug), zap.Error(err))
	}
	s.commit(gen, PanelInvestment, err, func(p *Panels) any {
		p.Investment = data
		return data
	})
}

func (s *Session) fetchTrend(ctx context.Context, gen uint64, slug string) {
	points, err := s.backend.ProfitTrend(ctx, slug, s.days)
	if err != nil {
		s.log.Warn("error fetching coin profit trend", zap.String("coin", slug), zap.Error(err))
	}
	s.commit(gen, PanelTrend, err, func(p *Panels) any {
		p.Trend = points
		return points
	})
}

// commit applies a fetch result unless a newer selection has started
func (s *Session) commit(gen uint64, panel Panel, err error, apply func(*Panels) any) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.Debug("discarding stale response", zap.String("panel", string(panel)), zap.Uint64("generation", gen))
		return
	}
	data := apply(&s.panels)
	s.mu.Unlock()

	if err != nil {
		s.publish(errorUpdate(panel, err))
		return
	}
	s.publish(Update{Panel: panel, Data: data})
}

// refreshInvestment refetches only the investment snapshot of the selection
func (s *Session) refreshInvestment(ctx context.Context) {
	coin := s.ui.Selected()
	if coin == nil {
		return
	}
	s.mu.Lock()
	gen := s.generation
	s.mu.Unlock()
	s.fetchInvestment(ctx, gen, coin.Slug)
}

// InvestmentChanged refetches the investment when slug is the selection.
// Holdings of other coins are fetched on their next selection anyway.
func (s *Session) InvestmentChanged(ctx context.Context, slug string) bool {
	coin := s.ui.Selected()
	if coin == nil || coin.Slug != slug {
		return false
	}
	s.refreshInvestment(ctx)
	return true
}

// Panels returns a copy of the current panel data
func (s *Session) Panels() Panels {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panels
}

// CurrentBalance is the balance shown in the deposit and withdraw modals
func (s *Session) CurrentBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panels.Investment.CurrentBalance()
}

// Close cancels in-flight fetches
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func errorUpdate(panel Panel, err error) Update {
	msg := api.Message(err)
	return Update{
		Panel: panel,
		Error: msg,
		Toast: &Toast{Level: ToastError, Message: msg},
	}
}
