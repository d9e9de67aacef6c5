package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kwikwag/eth-approvals/internal/model"
)

func TestJSONStoragePutReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.json")
	sink := NewJSONStorage(path)

	report := &model.Report{
		Owner:       "0x1111111111111111111111111111111111111111",
		BlockNumber: 42,
		ScannedAt:   "2026-01-02T03:04:05Z",
		Approvals: []model.Approval{
			{
				Contract: "0x2222222222222222222222222222222222222222",
				Spender:  "0x3333333333333333333333333333333333333333",
				Amount:   "50",
			},
		},
	}

	if err := sink.PutReport(report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var decoded model.Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("parse report: %v", err)
	}
	if decoded.Owner != report.Owner || decoded.BlockNumber != 42 {
		t.Fatalf("report mismatch: %+v", decoded)
	}
	if len(decoded.Approvals) != 1 || decoded.Approvals[0].Amount != "50" {
		t.Fatalf("approvals mismatch: %+v", decoded.Approvals)
	}
}
