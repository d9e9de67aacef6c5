package storage

import "github.com/kwikwag/eth-approvals/internal/model"

// Sink defines a destination for scan reports.
type Sink interface {
	PutReport(report *model.Report) error
}
