package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ApprovalKey identifies one approval slot for a fixed owner.
type ApprovalKey struct {
	Contract common.Address
	Spender  common.Address
}

// ApprovalEvent is one decoded on-chain Approval log. Events are ordered by
// (block number, transaction index, log index); the latest event for a key
// fully replaces any earlier approval amount.
type ApprovalEvent struct {
	Contract    common.Address
	Owner       common.Address
	Spender     common.Address
	Amount      *big.Int
	BlockNumber uint64
	TxIndex     uint
	LogIndex    uint
}

// Key returns the approval slot this event writes to.
func (e ApprovalEvent) Key() ApprovalKey {
	return ApprovalKey{Contract: e.Contract, Spender: e.Spender}
}

// Before reports whether e precedes other in chain order.
func (e ApprovalEvent) Before(other ApprovalEvent) bool {
	if e.BlockNumber != other.BlockNumber {
		return e.BlockNumber < other.BlockNumber
	}
	if e.TxIndex != other.TxIndex {
		return e.TxIndex < other.TxIndex
	}
	return e.LogIndex < other.LogIndex
}
