package model

// Approval is a reconstructed approval enriched with resolved chain state.
// Amounts are decimal strings to preserve uint256 precision. Allowance and
// AllowanceError are mutually exclusive: a failed allowance lookup sets the
// flag and leaves the value empty.
type Approval struct {
	Contract       string   `json:"contract"`
	Spender        string   `json:"spender"`
	Amount         string   `json:"amount"`
	Allowance      string   `json:"allowance,omitempty"`
	AllowanceError bool     `json:"allowance_error,omitempty"`
	Balance        string   `json:"balance,omitempty"`
	Risk           *float64 `json:"risk,omitempty"`
}

// Report is the final output of one scan.
type Report struct {
	Owner       string     `json:"owner"`
	BlockNumber uint64     `json:"block_number"`
	ScannedAt   string     `json:"scanned_at"`
	Approvals   []Approval `json:"approvals"`
}
