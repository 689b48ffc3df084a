package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/atharvakonge/quantumpool-web/internal/models"
	"github.com/shopspring/decimal"
)

// TopCoins handles GET /coin/top_coins?limit=N
func (c *Client) TopCoins(ctx context.Context, limit int) ([]models.Coin, error) {
	var env models.Envelope[[]models.Coin]
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/coin/top_coins",
		query:      url.Values{"limit": {strconv.Itoa(limit)}},
		defaultMsg: "Failed to fetch coins",
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Report handles GET /coin/report/{slug}. A coin without a report yields an
// empty Report.
func (c *Client) Report(ctx context.Context, slug string) (*models.Report, error) {
	var env models.Envelope[models.Report]
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/coin/report/" + url.PathEscape(slug),
		auth:       true,
		defaultMsg: "Failed to fetch coin report",
	}, &env)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// ExecutionLog handles GET /coin/execution_log
func (c *Client) ExecutionLog(ctx context.Context) (*models.ExecutionLogs, error) {
	var env models.Envelope[models.ExecutionLogs]
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/coin/execution_log",
		auth:       true,
		defaultMsg: "Failed to fetch execution log",
	}, &env)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// Investment handles GET /auth/investment/{slug}
func (c *Client) Investment(ctx context.Context, slug string) (*models.InvestmentData, error) {
	var data models.InvestmentData
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/auth/investment/" + url.PathEscape(slug),
		auth:       true,
		defaultMsg: "Failed to fetch coin investment",
	}, &data)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// ProfitTrend handles GET /auth/profit_trend/{slug}?days=N
func (c *Client) ProfitTrend(ctx context.Context, slug string, days int) ([]models.PortfolioPoint, error) {
	var points []models.PortfolioPoint
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/auth/profit_trend/" + url.PathEscape(slug),
		query:      url.Values{"days": {strconv.Itoa(days)}},
		auth:       true,
		defaultMsg: "Failed to fetch profit trend data",
	}, &points)
	if err != nil {
		return nil, err
	}
	return points, nil
}

// Wallet handles GET /auth/wallets/{coin}
func (c *Client) Wallet(ctx context.Context, coin string) (string, error) {
	var w models.Wallet
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/auth/wallets/" + url.PathEscape(coin),
		auth:       true,
		defaultMsg: "Failed to fetch wallet addresses",
	}, &w)
	if err != nil {
		return "", err
	}
	return w.Wallet, nil
}

// UpdateWallet handles POST /auth/wallet/update
func (c *Client) UpdateWallet(ctx context.Context, coin, address string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, request{
		method:     http.MethodPost,
		path:       "/auth/wallet/update",
		body:       models.WalletOperation{Coin: coin, WalletAddress: address},
		auth:       true,
		defaultMsg: "Failed to update wallet address",
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Deposit handles POST /auth/balance/deposit
func (c *Client) Deposit(ctx context.Context, coin string, amount decimal.Decimal) (*models.BalanceResponse, error) {
	return c.balance(ctx, "/auth/balance/deposit", "Failed to deposit funds", coin, amount)
}

// Withdraw handles POST /auth/balance/withdraw
func (c *Client) Withdraw(ctx context.Context, coin string, amount decimal.Decimal) (*models.BalanceResponse, error) {
	return c.balance(ctx, "/auth/balance/withdraw", "Failed to withdraw funds", coin, amount)
}

func (c *Client) balance(ctx context.Context, path, defaultMsg, coin string, amount decimal.Decimal) (*models.BalanceResponse, error) {
	var resp models.BalanceResponse
	err := c.do(ctx, request{
		method:     http.MethodPost,
		path:       path,
		body:       models.BalanceOperation{Coin: coin, Amount: amount.InexactFloat64()},
		auth:       true,
		defaultMsg: defaultMsg,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me handles GET /auth/users/me
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	err := c.do(ctx, request{
		method:     http.MethodGet,
		path:       "/auth/users/me",
		auth:       true,
		defaultMsg: "Failed to retrieve user data",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges an identity-provider credential for a session. The raw
// body is returned as well since it becomes the session cookie verbatim.
func (c *Client) Login(ctx context.Context, credential string) (*models.LoginResponse, []byte, error) {
	raw, err := c.doRaw(ctx, request{
		method:     http.MethodPost,
		path:       "/auth/login",
		body:       models.LoginRequest{Token: credential},
		defaultMsg: "Login failed",
	})
	if err != nil {
		return nil, nil, err
	}
	var resp models.LoginResponse
	if err := decode("/auth/login", raw, &resp); err != nil {
		return nil, nil, err
	}
	return &resp, raw, nil
}
