package scan

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/kwikwag/eth-approvals/internal/chain"
)

// resolveAllowances fetches allowance(owner, spender) for every item in one
// batch. An item failure sets AllowanceError and leaves Allowance unset; it
// never affects the other items.
func (s *Scanner) resolveAllowances(ctx context.Context, owner common.Address, items []Item, block *big.Int) error {
	parsed, err := ERC20ABI()
	if err != nil {
		return err
	}

	calls := make([]chain.Call, len(items))
	for i, item := range items {
		data, err := parsed.Pack("allowance", owner, item.Spender)
		if err != nil {
			return fmt.Errorf("pack allowance: %w", err)
		}
		calls[i] = chain.Call{To: item.Contract, Data: data, Block: block}
	}

	results, err := s.chain.BatchCall(ctx, calls)
	if err != nil {
		return err
	}

	for i, result := range results {
		value, err := unpackUint256(parsed, "allowance", result)
		if err != nil {
			s.logger.Warn("allowance lookup failed",
				zap.String("contract", items[i].Contract.Hex()),
				zap.String("spender", items[i].Spender.Hex()),
				zap.Error(err),
			)
			items[i].AllowanceError = true
			continue
		}
		items[i].Allowance = value
	}
	return nil
}

// resolveBalances fetches balanceOf(owner) for every item in one batch.
// An item failure treats the balance as zero. That is a conservative
// default: a transient call failure on a funded token masks exposure, so
// the resulting risk is a floor, not a ceiling.
func (s *Scanner) resolveBalances(ctx context.Context, owner common.Address, items []Item, block *big.Int) error {
	parsed, err := ERC20ABI()
	if err != nil {
		return err
	}

	calls := make([]chain.Call, len(items))
	for i, item := range items {
		data, err := parsed.Pack("balanceOf", owner)
		if err != nil {
			return fmt.Errorf("pack balanceOf: %w", err)
		}
		calls[i] = chain.Call{To: item.Contract, Data: data, Block: block}
	}

	results, err := s.chain.BatchCall(ctx, calls)
	if err != nil {
		return err
	}

	for i, result := range results {
		value, err := unpackUint256(parsed, "balanceOf", result)
		if err != nil {
			s.logger.Warn("balance lookup failed, assuming zero",
				zap.String("contract", items[i].Contract.Hex()),
				zap.Error(err),
			)
			items[i].Balance = new(big.Int)
			continue
		}
		items[i].Balance = value
	}
	return nil
}

// resolveDecimals fetches decimals() once per distinct contract. An item
// failure falls back to 18, the de facto ERC-20 default.
func (s *Scanner) resolveDecimals(ctx context.Context, contracts []common.Address, block *big.Int) (map[common.Address]uint8, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return nil, err
	}

	calls := make([]chain.Call, len(contracts))
	for i, contract := range contracts {
		data, err := parsed.Pack("decimals")
		if err != nil {
			return nil, fmt.Errorf("pack decimals: %w", err)
		}
		calls[i] = chain.Call{To: contract, Data: data, Block: block}
	}

	results, err := s.chain.BatchCall(ctx, calls)
	if err != nil {
		return nil, err
	}

	decimals := make(map[common.Address]uint8, len(contracts))
	for i, result := range results {
		value, err := unpackUint8(parsed, "decimals", result)
		if err != nil {
			s.logger.Warn("decimals lookup failed, assuming 18",
				zap.String("contract", contracts[i].Hex()),
				zap.Error(err),
			)
			decimals[contracts[i]] = 18
			continue
		}
		decimals[contracts[i]] = value
	}
	return decimals, nil
}

// resolveRates quotes one whole token unit (10^decimals) against the wrapped
// native currency via the router, once per distinct contract. An item
// failure treats the token as illiquid and defaults the rate to zero.
func (s *Scanner) resolveRates(ctx context.Context, contracts []common.Address, decimals map[common.Address]uint8, block *big.Int) (map[common.Address]float64, error) {
	parsed, err := RouterABI()
	if err != nil {
		return nil, err
	}

	rates := make(map[common.Address]float64, len(contracts))

	calls := make([]chain.Call, 0, len(contracts))
	quoted := make([]common.Address, 0, len(contracts))
	for _, contract := range contracts {
		if contract == s.cfg.WETH {
			// The router rejects an identical in/out path; one unit of the
			// wrapped native currency is worth itself.
			rates[contract] = rateFromQuote(unitAmount(decimals[contract]), decimals[contract])
			continue
		}
		data, err := parsed.Pack("getAmountsOut", unitAmount(decimals[contract]), []common.Address{contract, s.cfg.WETH})
		if err != nil {
			return nil, fmt.Errorf("pack getAmountsOut: %w", err)
		}
		calls = append(calls, chain.Call{To: s.cfg.Router, Data: data, Block: block})
		quoted = append(quoted, contract)
	}

	results, err := s.chain.BatchCall(ctx, calls)
	if err != nil {
		return nil, err
	}

	for i, result := range results {
		contract := quoted[i]
		amountOut, err := unpackAmountsOut(parsed, result)
		if err != nil {
			s.logger.Warn("exchange rate lookup failed, assuming zero",
				zap.String("contract", contract.Hex()),
				zap.Error(err),
			)
			rates[contract] = 0
			continue
		}
		rates[contract] = rateFromQuote(amountOut, decimals[contract])
	}
	return rates, nil
}

func unpackUint256(parsed abi.ABI, method string, result chain.CallResult) (*big.Int, error) {
	if result.Err != nil {
		return nil, result.Err
	}
	values, err := parsed.Unpack(method, result.Output)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack %s: got %d values, want 1", method, len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unpack %s: unsupported type %T", method, values[0])
	}
	return new(big.Int).Set(value), nil
}

func unpackUint8(parsed abi.ABI, method string, result chain.CallResult) (uint8, error) {
	if result.Err != nil {
		return 0, result.Err
	}
	values, err := parsed.Unpack(method, result.Output)
	if err != nil {
		return 0, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("unpack %s: got %d values, want 1", method, len(values))
	}
	switch v := values[0].(type) {
	case uint8:
		return v, nil
	case *big.Int:
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unpack %s: unsupported type %T", method, values[0])
	}
}

func unpackAmountsOut(parsed abi.ABI, result chain.CallResult) (*big.Int, error) {
	if result.Err != nil {
		return nil, result.Err
	}
	values, err := parsed.Unpack("getAmountsOut", result.Output)
	if err != nil {
		return nil, fmt.Errorf("unpack getAmountsOut: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unpack getAmountsOut: got %d values, want 1", len(values))
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok || len(amounts) == 0 {
		return nil, fmt.Errorf("unpack getAmountsOut: unsupported amounts %T", values[0])
	}
	return new(big.Int).Set(amounts[len(amounts)-1]), nil
}

// unitAmount returns 10^decimals, one whole token unit.
func unitAmount(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

// rateFromQuote converts a whole-unit quote in wei into the native-currency
// value of one token base unit. Float precision is acceptable here; the
// rate only feeds the risk heuristic.
func rateFromQuote(amountOut *big.Int, decimals uint8) float64 {
	out := new(big.Float).SetInt(amountOut)
	out.Quo(out, new(big.Float).SetInt(unitAmount(18)))
	out.Quo(out, new(big.Float).SetInt(unitAmount(decimals)))
	rate, _ := out.Float64()
	return rate
}
