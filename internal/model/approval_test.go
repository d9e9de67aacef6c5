package model

import (
	"testing"
)

func TestApprovalEventOrdering(t *testing.T) {
	base := ApprovalEvent{BlockNumber: 10, TxIndex: 2, LogIndex: 3}

	cases := []struct {
		name  string
		other ApprovalEvent
		want  bool
	}{
		{"later block", ApprovalEvent{BlockNumber: 11, TxIndex: 0, LogIndex: 0}, true},
		{"same block later tx", ApprovalEvent{BlockNumber: 10, TxIndex: 3, LogIndex: 0}, true},
		{"same tx later log", ApprovalEvent{BlockNumber: 10, TxIndex: 2, LogIndex: 4}, true},
		{"identical", ApprovalEvent{BlockNumber: 10, TxIndex: 2, LogIndex: 3}, false},
		{"earlier block", ApprovalEvent{BlockNumber: 9, TxIndex: 9, LogIndex: 9}, false},
	}

	for _, tc := range cases {
		if got := base.Before(tc.other); got != tc.want {
			t.Fatalf("%s: Before = %v, want %v", tc.name, got, tc.want)
		}
	}
}
