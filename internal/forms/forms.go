// Package forms validates the deposit, withdraw and wallet modals before
// anything reaches the backend.
package forms

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("Please enter a valid positive amount.")
	ErrInsufficientBalance = errors.New("Insufficient balance.")
	ErrInvalidAddress      = errors.New("Please enter a valid address.")
)

// ParseAmount accepts a positive decimal number
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// Deposit validates the deposit modal. Deposits are not bounded by the
// current balance.
type Deposit struct{}

func (Deposit) Validate(raw string) (decimal.Decimal, error) {
	return ParseAmount(raw)
}

// Withdraw validates the withdraw modal against the available balance
type Withdraw struct {
	Balance decimal.Decimal
}

func (w Withdraw) Validate(raw string) (decimal.Decimal, error) {
	amount, err := ParseAmount(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.GreaterThan(w.Balance) {
		return decimal.Zero, ErrInsufficientBalance
	}
	return amount, nil
}

// Max is the value the MAX button puts into the input
func (w Withdraw) Max() string {
	return w.Balance.String()
}

// ValidateAddress accepts any non-blank wallet address
func ValidateAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return "", ErrInvalidAddress
	}
	return addr, nil
}
