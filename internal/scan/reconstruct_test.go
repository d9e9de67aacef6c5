package scan

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testOwner    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testContract = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testSpender  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func approvalLog(t *testing.T, contract, owner, spender common.Address, amount int64, block uint64, txIdx, logIdx uint) types.Log {
	t.Helper()
	topic0, err := ApprovalTopic()
	if err != nil {
		t.Fatalf("approval topic: %v", err)
	}
	return types.Log{
		Address: contract,
		Topics: []common.Hash{
			topic0,
			common.BytesToHash(owner.Bytes()),
			common.BytesToHash(spender.Bytes()),
		},
		Data:        common.LeftPadBytes(big.NewInt(amount).Bytes(), 32),
		BlockNumber: block,
		TxIndex:     txIdx,
		Index:       logIdx,
	}
}

func TestReconstructLatestWins(t *testing.T) {
	logs := []types.Log{
		approvalLog(t, testContract, testOwner, testSpender, 100, 10, 0, 0),
		approvalLog(t, testContract, testOwner, testSpender, 50, 20, 0, 0),
	}

	items, err := reconstructApprovals(logs, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 approval, got %d", len(items))
	}
	if items[0].Amount.String() != "50" {
		t.Fatalf("expected latest amount 50, got %s", items[0].Amount)
	}
}

func TestReconstructOrderIndependence(t *testing.T) {
	ordered := []types.Log{
		approvalLog(t, testContract, testOwner, testSpender, 100, 10, 0, 0),
		approvalLog(t, testContract, testOwner, testSpender, 200, 10, 0, 3),
		approvalLog(t, testContract, testOwner, testSpender, 50, 20, 1, 0),
	}
	shuffled := []types.Log{ordered[2], ordered[0], ordered[1]}

	fromOrdered, err := reconstructApprovals(ordered, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromShuffled, err := reconstructApprovals(shuffled, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fromOrdered) != 1 || len(fromShuffled) != 1 {
		t.Fatalf("expected 1 approval from both orders, got %d and %d", len(fromOrdered), len(fromShuffled))
	}
	if fromOrdered[0].Amount.Cmp(fromShuffled[0].Amount) != 0 {
		t.Fatalf("order changed result: %s != %s", fromOrdered[0].Amount, fromShuffled[0].Amount)
	}
	if fromOrdered[0].Amount.String() != "50" {
		t.Fatalf("expected amount 50, got %s", fromOrdered[0].Amount)
	}
}

func TestReconstructSameBlockOrdering(t *testing.T) {
	logs := []types.Log{
		approvalLog(t, testContract, testOwner, testSpender, 7, 10, 2, 5),
		approvalLog(t, testContract, testOwner, testSpender, 9, 10, 2, 4),
	}

	items, err := reconstructApprovals(logs, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 approval, got %d", len(items))
	}
	if items[0].Amount.String() != "7" {
		t.Fatalf("expected log index 5 to win with amount 7, got %s", items[0].Amount)
	}
}

func TestReconstructDropsZeroSpender(t *testing.T) {
	logs := []types.Log{
		approvalLog(t, testContract, testOwner, common.Address{}, 100, 10, 0, 0),
		approvalLog(t, testContract, testOwner, testSpender, 25, 11, 0, 0),
	}

	items, err := reconstructApprovals(logs, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected zero spender to be dropped, got %d approvals", len(items))
	}
	if items[0].Spender != testSpender {
		t.Fatalf("unexpected spender: %s", items[0].Spender.Hex())
	}
}

func TestReconstructKeepsZeroAmount(t *testing.T) {
	logs := []types.Log{
		approvalLog(t, testContract, testOwner, testSpender, 0, 10, 0, 0),
	}

	items, err := reconstructApprovals(logs, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected zero-amount approval to be kept, got %d approvals", len(items))
	}
	if items[0].Amount.Sign() != 0 {
		t.Fatalf("expected amount 0, got %s", items[0].Amount)
	}
}

func TestReconstructOwnerMismatch(t *testing.T) {
	other := common.HexToAddress("0x4444444444444444444444444444444444444444")
	logs := []types.Log{
		approvalLog(t, testContract, other, testSpender, 100, 10, 0, 0),
	}

	if _, err := reconstructApprovals(logs, testOwner); err == nil {
		t.Fatalf("expected error for owner mismatch")
	}
}

func TestDecodeApprovalEventShape(t *testing.T) {
	valid := approvalLog(t, testContract, testOwner, testSpender, 1, 1, 0, 0)

	missingTopic := valid
	missingTopic.Topics = valid.Topics[:2]
	if _, err := decodeApprovalEvent(missingTopic); err == nil {
		t.Fatalf("expected error for missing topic")
	}

	shortData := valid
	shortData.Data = []byte{0x01}
	if _, err := decodeApprovalEvent(shortData); err == nil {
		t.Fatalf("expected error for short data")
	}
}

func TestAddressFromTopicPadding(t *testing.T) {
	var bad common.Hash
	bad[0] = 0xff
	if _, err := addressFromTopic(bad); err == nil {
		t.Fatalf("expected error for nonzero padding")
	}

	good := common.BytesToHash(testSpender.Bytes())
	addr, err := addressFromTopic(good)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != testSpender {
		t.Fatalf("address mismatch: %s", addr.Hex())
	}
}
