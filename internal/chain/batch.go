package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// Call describes one read-only contract call within a batch.
type Call struct {
	To    common.Address
	Data  []byte
	Block *big.Int
}

// CallResult is the per-item outcome of a batch call. Exactly one of Output
// and Err is meaningful; callers decide how to handle item failures.
type CallResult struct {
	Output []byte
	Err    error
}

// BatchCall issues all calls as a single eth_call batch over one network
// round trip and returns one result per call, positionally. A failing item
// never fails the batch: its error is recorded in its own slot and every
// other item resolves normally. An empty call list returns immediately
// without touching the network. The returned error is reserved for
// transport-level failures where no item produced a result.
func (c *Client) BatchCall(ctx context.Context, calls []Call) ([]CallResult, error) {
	if len(calls) == 0 {
		return nil, nil
	}

	elems := make([]rpc.BatchElem, len(calls))
	outputs := make([]hexutil.Bytes, len(calls))
	for i, call := range calls {
		to := call.To
		arg := map[string]interface{}{
			"to":   &to,
			"data": hexutil.Bytes(call.Data),
		}
		elems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{arg, toBlockNumArg(call.Block)},
			Result: &outputs[i],
		}
	}

	if err := c.rpcClient.BatchCallContext(ctx, elems); err != nil {
		return nil, fmt.Errorf("batch call: %w", err)
	}

	results := make([]CallResult, len(calls))
	for i := range elems {
		if elems[i].Error != nil {
			results[i] = CallResult{Err: elems[i].Error}
			continue
		}
		results[i] = CallResult{Output: outputs[i]}
	}
	return results, nil
}

func toBlockNumArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	return hexutil.EncodeBig(number)
}
