package scan

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/kwikwag/eth-approvals/internal/chain"
)

// Chain is the subset of chain client behavior the scanner needs. The
// concrete implementation is chain.Client; tests inject a fake.
type Chain interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topics [][]common.Hash) ([]types.Log, error)
	BatchCall(ctx context.Context, calls []chain.Call) ([]chain.CallResult, error)
}

// Config holds runtime settings for a scan.
type Config struct {
	Router       common.Address
	WETH         common.Address
	Risk         bool
	MaxRetries   int
	RetryBackoff time.Duration
}

// Result carries the reconstructed approval set and the pinned block height
// every lookup was executed against.
type Result struct {
	Owner       common.Address
	BlockNumber uint64
	Items       []Item
}

// Scanner reconstructs and resolves the outstanding approvals of an owner.
type Scanner struct {
	chain  Chain
	cfg    Config
	logger *zap.Logger
}

// New builds a Scanner with its dependencies.
func New(cfg Config, chainClient Chain, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Router == (common.Address{}) {
		cfg.Router = DefaultRouter
	}
	if cfg.WETH == (common.Address{}) {
		cfg.WETH = DefaultWETH
	}
	return &Scanner{cfg: cfg, chain: chainClient, logger: logger}
}

// Scan pins the current block height, rebuilds the approval set from the
// Approval logs up to that height, and resolves live state for each item.
// Every sub-query reads as-of the pinned height so the whole scan sees one
// consistent chain snapshot.
func (s *Scanner) Scan(ctx context.Context, owner common.Address) (*Result, error) {
	if s.chain == nil {
		return nil, fmt.Errorf("chain client is nil")
	}

	height, err := s.chain.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("get block height: %w", err)
	}

	s.logger.Info("scan start",
		zap.String("owner", owner.Hex()),
		zap.Uint64("block", height),
		zap.Bool("risk", s.cfg.Risk),
	)

	logs, err := s.fetchApprovalLogs(ctx, owner, height)
	if err != nil {
		return nil, fmt.Errorf("fetch approval logs: %w", err)
	}

	items, err := reconstructApprovals(logs, owner)
	if err != nil {
		return nil, fmt.Errorf("reconstruct approvals: %w", err)
	}

	s.logger.Info("approvals reconstructed",
		zap.Int("logs", len(logs)),
		zap.Int("approvals", len(items)),
	)

	block := new(big.Int).SetUint64(height)

	if err := s.resolveAllowances(ctx, owner, items, block); err != nil {
		return nil, err
	}

	if s.cfg.Risk {
		if err := s.resolveBalances(ctx, owner, items, block); err != nil {
			return nil, err
		}

		contracts := distinctContracts(items)
		decimals, err := s.resolveDecimals(ctx, contracts, block)
		if err != nil {
			return nil, err
		}
		rates, err := s.resolveRates(ctx, contracts, decimals, block)
		if err != nil {
			return nil, err
		}

		for i := range items {
			items[i].Decimals = decimals[items[i].Contract]
			items[i].Rate = rates[items[i].Contract]
		}
	}

	return &Result{Owner: owner, BlockNumber: height, Items: items}, nil
}

func (s *Scanner) fetchApprovalLogs(ctx context.Context, owner common.Address, height uint64) ([]types.Log, error) {
	topic0, err := ApprovalTopic()
	if err != nil {
		return nil, err
	}
	ownerTopic := common.BytesToHash(owner.Bytes())

	var logs []types.Log
	err = withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = s.chain.FilterLogs(ctx, 1, height, nil, [][]common.Hash{{topic0}, {ownerTopic}})
		if err != nil {
			s.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("to", height))
		}
		return err
	})
	return logs, err
}

func distinctContracts(items []Item) []common.Address {
	seen := make(map[common.Address]struct{}, len(items))
	contracts := make([]common.Address, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Contract]; ok {
			continue
		}
		seen[item.Contract] = struct{}{}
		contracts = append(contracts, item.Contract)
	}
	return contracts
}
