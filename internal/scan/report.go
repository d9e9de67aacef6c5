package scan

import (
	"time"

	"github.com/kwikwag/eth-approvals/internal/model"
)

// BuildReport converts a scan result into the serializable report shape.
// Balance and risk fields appear only when the corresponding passes ran.
func BuildReport(result *Result, scannedAt time.Time) *model.Report {
	approvals := make([]model.Approval, 0, len(result.Items))
	for _, item := range result.Items {
		approval := model.Approval{
			Contract:       item.Contract.Hex(),
			Spender:        item.Spender.Hex(),
			Amount:         item.Amount.String(),
			AllowanceError: item.AllowanceError,
			Risk:           item.Risk,
		}
		if item.Allowance != nil {
			approval.Allowance = item.Allowance.String()
		}
		if item.Balance != nil {
			approval.Balance = item.Balance.String()
		}
		approvals = append(approvals, approval)
	}

	return &model.Report{
		Owner:       result.Owner.Hex(),
		BlockNumber: result.BlockNumber,
		ScannedAt:   scannedAt.UTC().Format(time.RFC3339Nano),
		Approvals:   approvals,
	}
}
