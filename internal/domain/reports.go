package domain

// CustomerBalance is one dashboard row: a customer and their signed net
// balance (sum of debits minus sum of credits). Positive means the
// customer owes the business.
type CustomerBalance struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// DashboardReport is the top-level structure behind the dashboard screen
// and the JSON output of the dashboard command.
type DashboardReport struct {
	ToReceive    float64           `json:"to_receive"`
	ToPay        float64           `json:"to_pay"`
	EntryCount   int               `json:"entry_count"`
	Customers    []CustomerBalance `json:"customers"`
	LoadDegraded bool              `json:"load_degraded,omitempty"`
}

// StatementRow is one line of an exported statement: a transaction plus
// the running balance after it, oldest entry first.
type StatementRow struct {
	Transaction
	RunningBalance float64 `json:"running_balance"`
}
