package models

// Coin is a tradable asset tracked by the backend. All values arrive
// pre-formatted as strings.
type Coin struct {
	Rank              string `json:"rank"`
	Name              string `json:"name"`
	Slug              string `json:"slug"`
	Symbol            string `json:"symbol"`
	MarketCap         string `json:"market_cap"`
	Price             string `json:"price"`
	CirculatingSupply string `json:"circulating_supply"`
	Volume24h         string `json:"volume_24h"`
	Percent1h         string `json:"percent_1h"`
	Percent24h        string `json:"percent_24h"`
	Percent7d         string `json:"percent_7d"`
}

// ExecutionLog describes the last and next run of a backend job
type ExecutionLog struct {
	JobName       string `json:"job_name"`
	LastExecution string `json:"last_execution"`
	NextExecution string `json:"next_execution"`
}

// ExecutionLogs is the payload of GET /coin/execution_log
type ExecutionLogs struct {
	TradingBot    *ExecutionLog `json:"trading_bot,omitempty"`
	NewsSentiment *ExecutionLog `json:"news_sentiment,omitempty"`
}

// Report is the latest free-text trade report for a coin
type Report struct {
	Coin      string `json:"coin"`
	Timestamp string `json:"timestamp"`
	Report    string `json:"report"`
}

// Envelope wraps every /coin/* response
type Envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
