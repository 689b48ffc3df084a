package dashboard

import (
	"context"
	"fmt"

	"github.com/atharvakonge/quantumpool-web/internal/forms"
	"github.com/atharvakonge/quantumpool-web/internal/models"
	"github.com/atharvakonge/quantumpool-web/internal/state"
	"github.com/atharvakonge/quantumpool-web/internal/transfer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ModalState is the payload of a PanelModals update
type ModalState struct {
	DepositOpen  bool   `json:"deposit_open"`
	WithdrawOpen bool   `json:"withdraw_open"`
	Balance      string `json:"balance"`
}

func (s *Session) publishModals() {
	s.publish(Update{Panel: PanelModals, Data: ModalState{
		DepositOpen:  s.ui.DepositOpen(),
		WithdrawOpen: s.ui.WithdrawOpen(),
		Balance:      s.CurrentBalance().StringFixed(2),
	}})
}

// OpenDeposit opens the deposit modal. A coin must be selected.
func (s *Session) OpenDeposit() error {
	if s.ui.Selected() == nil {
		return ErrNoCoinSelected
	}
	s.ui.SetDepositOpen(true)
	s.publishModals()
	return nil
}

// OpenWithdraw opens the withdraw modal. A coin must be selected.
func (s *Session) OpenWithdraw() error {
	if s.ui.Selected() == nil {
		return ErrNoCoinSelected
	}
	s.ui.SetWithdrawOpen(true)
	s.publishModals()
	return nil
}

// CloseModals closes both modals
func (s *Session) CloseModals() {
	s.ui.SetDepositOpen(false)
	s.ui.SetWithdrawOpen(false)
	s.publishModals()
}

// MaxWithdraw is what the withdraw modal's MAX button fills in
func (s *Session) MaxWithdraw() string {
	return forms.Withdraw{Balance: s.CurrentBalance()}.Max()
}

// Deposit validates raw and deposits it into the selected coin's pool.
// Invalid input never reaches the backend.
func (s *Session) Deposit(ctx context.Context, raw string) (decimal.Decimal, error) {
	amount, err := forms.Deposit{}.Validate(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return amount, s.transfer(ctx, transfer.Deposit, amount)
}

// Withdraw validates raw against the current balance and withdraws it
func (s *Session) Withdraw(ctx context.Context, raw string) (decimal.Decimal, error) {
	amount, err := forms.Withdraw{Balance: s.CurrentBalance()}.Validate(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return amount, s.transfer(ctx, transfer.Withdraw, amount)
}

func (s *Session) transfer(ctx context.Context, kind transfer.Kind, amount decimal.Decimal) error {
	coin := s.ui.Selected()
	if coin == nil {
		return ErrNoCoinSelected
	}
	if s.transfers == nil {
		return fmt.Errorf("%s: transfers are not configured", kind)
	}

	result := s.transfers.Submit(ctx, transfer.Request{
		UserID:  s.userID,
		Kind:    kind,
		Coin:    coin.Slug,
		Amount:  amount,
		Backend: s.backend,
	})
	if !result.Success {
		s.publish(Update{Panel: PanelToast, Toast: &Toast{
			Level:   ToastError,
			Message: fmt.Sprintf("Failed to %s: %s", kind, result.Error),
		}})
		return fmt.Errorf("%s %s %s: %w", kind, amount, coin.Symbol, result.Err)
	}

	s.log.Info("transfer completed",
		zap.String("kind", string(kind)),
		zap.String("coin", coin.Symbol),
		zap.String("amount", amount.String()))

	s.CloseModals()
	verb := "deposited"
	if kind == transfer.Withdraw {
		verb = "withdrawn"
	}
	s.publish(Update{Panel: PanelToast, Toast: &Toast{
		Level:   ToastSuccess,
		Message: fmt.Sprintf("Successfully %s %s %s!", verb, amount, coin.Symbol),
	}})

	s.refreshInvestment(ctx)
	s.onTrans(coin.Slug)
	return nil
}

// QuickStats are the header figures derived from the investment snapshot
type QuickStats struct {
	Performance float64 `json:"performance"`
	Balance     string  `json:"balance"`
}

func (s *Session) QuickStats() QuickStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := QuickStats{Balance: s.panels.Investment.CurrentBalance().StringFixed(2)}
	if inv := s.panels.Investment; inv != nil && inv.UserInvestment != nil {
		stats.Performance = inv.UserInvestment.PerformancePercentage
	}
	return stats
}

// View is everything needed to render the dashboard
type View struct {
	State      state.Snapshot `json:"state"`
	Panels     Panels         `json:"panels"`
	QuickStats QuickStats     `json:"quick_stats"`
	Selected   *models.Coin   `json:"-"`
}

func (s *Session) View() View {
	snap := s.ui.Snapshot()
	return View{
		State:      snap,
		Panels:     s.Panels(),
		QuickStats: s.QuickStats(),
		Selected:   snap.Selected,
	}
}
