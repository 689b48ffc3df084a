package dashboard

// Panel names a part of the dashboard a push update refers to
type Panel string

const (
	PanelCoins        Panel = "coins"
	PanelExecutionLog Panel = "execution_log"
	PanelSelection    Panel = "selection"
	PanelReport       Panel = "report"
	PanelInvestment   Panel = "investment"
	PanelTrend        Panel = "trend"
	PanelModals       Panel = "modals"
	PanelToast        Panel = "toast"
)

const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// Toast is a transient notification
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Update is pushed to the browser whenever a panel changes
type Update struct {
	Panel Panel  `json:"panel"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Toast *Toast `json:"toast,omitempty"`
}
