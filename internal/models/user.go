package models

// User is the authenticated profile returned by GET /auth/users/me
type User struct {
	ID             string             `json:"id"`
	Email          string             `json:"email"`
	Name           string             `json:"name"`
	Role           string             `json:"role"`
	ProfilePicture string             `json:"profile_picture,omitempty"`
	Balances       map[string]float64 `json:"balances,omitempty"`
}

// Token is the bearer token issued by the backend
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// LoginRequest - what the browser posts after the identity provider callback
type LoginRequest struct {
	Token string `json:"token" binding:"required"`
}

// LoginResponse is the backend's answer to a credential exchange. The same
// JSON is stored in the session cookie.
type LoginResponse struct {
	User
	Token Token `json:"token"`
}

// BalanceOperation is the body of the deposit and withdraw endpoints
type BalanceOperation struct {
	Coin   string  `json:"coin" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// BalanceResponse - updated balance after a deposit or withdraw
type BalanceResponse struct {
	Coin    string  `json:"coin"`
	Balance float64 `json:"balance"`
}

// WalletOperation is the body of POST /auth/wallet/update
type WalletOperation struct {
	Coin          string `json:"coin" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
}

// Wallet is the payload of GET /auth/wallets/{coin}
type Wallet struct {
	Wallet string `json:"wallet"`
}
