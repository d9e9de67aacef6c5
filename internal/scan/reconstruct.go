package scan

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/kwikwag/eth-approvals/internal/model"
)

// Item is one reconstructed approval with resolved chain state. Amount is
// the latest approved amount from the logs; the remaining fields are filled
// by the resolver passes. Risk is set by the scorer.
type Item struct {
	Contract       common.Address
	Spender        common.Address
	Amount         *big.Int
	BlockNumber    uint64
	TxIndex        uint
	LogIndex       uint
	Allowance      *big.Int
	AllowanceError bool
	Balance        *big.Int
	Decimals       uint8
	Rate           float64
	Risk           *float64
}

// Key returns the approval slot this item occupies.
func (it Item) Key() model.ApprovalKey {
	return model.ApprovalKey{Contract: it.Contract, Spender: it.Spender}
}

// decodeApprovalEvent decodes one Approval log. A log whose topics or data
// do not match the event shape is a protocol violation, never skipped.
func decodeApprovalEvent(log types.Log) (model.ApprovalEvent, error) {
	if len(log.Topics) != 3 {
		return model.ApprovalEvent{}, fmt.Errorf("approval log %d:%d has %d topics, want 3", log.BlockNumber, log.Index, len(log.Topics))
	}
	if len(log.Data) != 32 {
		return model.ApprovalEvent{}, fmt.Errorf("approval log %d:%d has %d data bytes, want 32", log.BlockNumber, log.Index, len(log.Data))
	}

	owner, err := addressFromTopic(log.Topics[1])
	if err != nil {
		return model.ApprovalEvent{}, fmt.Errorf("owner topic: %w", err)
	}
	spender, err := addressFromTopic(log.Topics[2])
	if err != nil {
		return model.ApprovalEvent{}, fmt.Errorf("spender topic: %w", err)
	}

	return model.ApprovalEvent{
		Contract:    log.Address,
		Owner:       owner,
		Spender:     spender,
		Amount:      new(big.Int).SetBytes(log.Data),
		BlockNumber: log.BlockNumber,
		TxIndex:     log.TxIndex,
		LogIndex:    log.Index,
	}, nil
}

var addressTopicPadding [12]byte

// addressFromTopic extracts the low 20 bytes of a 32-byte topic slot after
// validating the zero-padding prefix.
func addressFromTopic(topic common.Hash) (common.Address, error) {
	if !bytes.Equal(topic[:12], addressTopicPadding[:]) {
		return common.Address{}, fmt.Errorf("topic %s is not a padded address", topic.Hex())
	}
	return common.BytesToAddress(topic[12:]), nil
}

// reconstructApprovals turns raw Approval logs into the canonical current
// approval set for owner: sort by chain order, decode, keep the latest event
// per (contract, spender), then drop zero-address spenders. Zero-amount
// approvals are kept; a nonzero live allowance against a zero approval is a
// signal about the token contract worth surfacing.
func reconstructApprovals(logs []types.Log, owner common.Address) ([]Item, error) {
	sorted := make([]types.Log, len(logs))
	copy(sorted, logs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].BlockNumber != sorted[j].BlockNumber {
			return sorted[i].BlockNumber < sorted[j].BlockNumber
		}
		if sorted[i].TxIndex != sorted[j].TxIndex {
			return sorted[i].TxIndex < sorted[j].TxIndex
		}
		return sorted[i].Index < sorted[j].Index
	})

	latest := make(map[model.ApprovalKey]model.ApprovalEvent)
	for _, log := range sorted {
		event, err := decodeApprovalEvent(log)
		if err != nil {
			return nil, err
		}
		if event.Owner != owner {
			return nil, fmt.Errorf("log %d:%d owner %s does not match queried owner %s", event.BlockNumber, event.LogIndex, event.Owner.Hex(), owner.Hex())
		}
		key := event.Key()
		if prev, ok := latest[key]; ok && !prev.Before(event) {
			continue
		}
		latest[key] = event
	}

	items := make([]Item, 0, len(latest))
	for key, event := range latest {
		if key.Spender == (common.Address{}) {
			continue
		}
		items = append(items, Item{
			Contract:    event.Contract,
			Spender:     event.Spender,
			Amount:      event.Amount,
			BlockNumber: event.BlockNumber,
			TxIndex:     event.TxIndex,
			LogIndex:    event.LogIndex,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].BlockNumber != items[j].BlockNumber {
			return items[i].BlockNumber < items[j].BlockNumber
		}
		if items[i].TxIndex != items[j].TxIndex {
			return items[i].TxIndex < items[j].TxIndex
		}
		return items[i].LogIndex < items[j].LogIndex
	})

	return items, nil
}
