package models

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// FlexString accepts either a JSON string or a JSON number and keeps the
// textual form. The backend mixes both for market data.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// PortfolioBreakdown splits a user's share into cash and position
type PortfolioBreakdown struct {
	CashPortion     float64 `json:"cash_portion"`
	PositionPortion float64 `json:"position_portion"`
	TotalValue      float64 `json:"total_value"`
}

// UserInvestment is one user's position in a coin pool
type UserInvestment struct {
	OriginalInvestment    float64            `json:"original_investment"`
	TotalDeposits         float64            `json:"total_deposits"`
	TotalWithdrawals      float64            `json:"total_withdrawals"`
	NetInvestment         float64            `json:"net_investment"`
	OwnershipPercentage   float64            `json:"ownership_percentage"`
	CurrentShareValue     float64            `json:"current_share_value"`
	RealizedGains         float64            `json:"realized_gains"`
	UnrealizedGains       float64            `json:"unrealized_gains"`
	TotalGains            float64            `json:"total_gains"`
	OverallProfitLoss     float64            `json:"overall_profit_loss"`
	PerformancePercentage float64            `json:"performance_percentage"`
	PortfolioBreakdown    PortfolioBreakdown `json:"portfolio_breakdown"`
}

// CoinPerformance is the pool-wide view of a coin
type CoinPerformance struct {
	CurrentPrice   FlexString `json:"current_price"`
	PriceChange24h FlexString `json:"price_change_24h"`
	Volume24h      FlexString `json:"volume_24h"`
	MarketCap      FlexString `json:"market_cap"`

	TotalDeposits        float64 `json:"total_deposits"`
	TotalWithdrawals     float64 `json:"total_withdrawals"`
	NetDeposits          float64 `json:"net_deposits"`
	CurrentCapital       float64 `json:"current_capital"`
	PositionQuantity     float64 `json:"position_quantity"`
	PositionValue        float64 `json:"position_value"`
	TotalPortfolioValue  float64 `json:"total_portfolio_value"`
	TotalRealizedProfits float64 `json:"total_realized_profits"`
	TotalUnrealizedGains float64 `json:"total_unrealized_gains"`
	TotalGains           float64 `json:"total_gains"`
	OverallPerformance   float64 `json:"overall_performance"`
}

// InvestmentData is the payload of GET /auth/investment/{slug}
type InvestmentData struct {
	UserInvestment  *UserInvestment `json:"user_investment"`
	CoinPerformance CoinPerformance `json:"coin_performance"`
	Coin            string          `json:"coin"`
	Timestamp       string          `json:"timestamp"`
}

// CurrentBalance is the net investment rounded to cents, or zero when the
// snapshot has no user position.
func (d *InvestmentData) CurrentBalance() decimal.Decimal {
	if d == nil || d.UserInvestment == nil || d.UserInvestment.NetInvestment == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(d.UserInvestment.NetInvestment).Round(2)
}

// GlobalPerformance is the pool-wide block of a trend point
type GlobalPerformance struct {
	RealizedProfits       float64 `json:"realized_profits"`
	UnrealizedGains       float64 `json:"unrealized_gains"`
	TotalGains            float64 `json:"total_gains"`
	PerformancePercentage float64 `json:"performance_percentage"`
	TotalPortfolioValue   float64 `json:"total_portfolio_value"`
	CurrentCapital        float64 `json:"current_capital"`
	PositionValue         float64 `json:"position_value"`
	TotalNetInvestments   float64 `json:"total_net_investments"`
}

// PortfolioPoint is one sample of the profit trend series
type PortfolioPoint struct {
	Timestamp string            `json:"timestamp"`
	Price     float64           `json:"price"`
	Global    GlobalPerformance `json:"global"`
}
