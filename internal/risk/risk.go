// Package risk scores reconstructed approvals. For each approval the loss
// bound is the lesser of the approved amount and the owner's token balance,
// priced into the native currency and weighted by the reputation of the
// token contract and the spender. Reputation here is a suspicion weight:
// the documented scale gives less trusted parties higher numbers, so the
// product grows with risk. Scores are a heuristic, not a guarantee.
package risk

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/kwikwag/eth-approvals/internal/scan"
)

// Reputation weights applied when an address has no explicit entry.
const (
	BaselineReputation = 1
	VerifiedReputation = 2
)

// Source provides reputation weights by address.
type Source interface {
	Reputation(addr common.Address) (float64, bool)
}

// Map is a plain reputation map. It resolves deterministically, which also
// makes it the test double for Source.
type Map map[common.Address]float64

// Reputation returns the explicit weight for addr, if present.
func (m Map) Reputation(addr common.Address) (float64, bool) {
	value, ok := m[addr]
	return value, ok
}

// Verifier reports whether a contract has externally verified source code.
type Verifier interface {
	Verified(ctx context.Context, addr common.Address) (bool, error)
}

// AugmentVerified returns a copy of src extended with the verified baseline
// for contracts that have no explicit entry but verify successfully. Lookup
// failures are non-fatal: the affected contract keeps the unverified
// baseline.
func AugmentVerified(ctx context.Context, src Map, contracts []common.Address, verifier Verifier, logger *zap.Logger) Map {
	if logger == nil {
		logger = zap.NewNop()
	}

	merged := make(Map, len(src)+len(contracts))
	for addr, value := range src {
		merged[addr] = value
	}
	if verifier == nil {
		return merged
	}

	for _, contract := range contracts {
		if _, ok := merged[contract]; ok {
			continue
		}
		verified, err := verifier.Verified(ctx, contract)
		if err != nil {
			logger.Warn("verification lookup failed, keeping baseline",
				zap.String("contract", contract.Hex()),
				zap.Error(err),
			)
			continue
		}
		if verified {
			merged[contract] = VerifiedReputation
		}
	}
	return merged
}

// Scorer computes risk values from enriched scan items. It is a pure
// function of its inputs and performs no network I/O.
type Scorer struct {
	reps Source
}

// NewScorer builds a Scorer over the given reputation source. A nil source
// scores every address at the baseline.
func NewScorer(reps Source) *Scorer {
	return &Scorer{reps: reps}
}

// Apply computes and stores a risk value on every item.
func (s *Scorer) Apply(items []scan.Item) {
	for i := range items {
		risk := s.score(items[i])
		items[i].Risk = &risk
	}
}

func (s *Scorer) score(item scan.Item) float64 {
	severity := item.Rate * bigToFloat(amountAtRisk(item.Amount, item.Balance))
	likelihood := s.reputation(item.Contract) * s.reputation(item.Spender)
	return severity * likelihood
}

func (s *Scorer) reputation(addr common.Address) float64 {
	if s.reps != nil {
		if value, ok := s.reps.Reputation(addr); ok {
			return value
		}
	}
	return BaselineReputation
}

// amountAtRisk is min(approved, balance): an approval can exceed the actual
// holdings, and the loss bound is the lesser of the two. Computed on
// big.Int so no precision is lost before the float heuristic.
func amountAtRisk(approved, balance *big.Int) *big.Int {
	if approved == nil || balance == nil {
		return new(big.Int)
	}
	if balance.Cmp(approved) < 0 {
		return new(big.Int).Set(balance)
	}
	return new(big.Int).Set(approved)
}

func bigToFloat(value *big.Int) float64 {
	f, _ := new(big.Float).SetInt(value).Float64()
	return f
}
