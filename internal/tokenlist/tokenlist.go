// Package tokenlist supplies the external reputation and verification data
// the risk scorer consumes: a local token-list file with per-address
// reputation weights, and a best-effort contract verification lookup
// against an Etherscan-style API.
package tokenlist

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kwikwag/eth-approvals/internal/risk"
)

// listFile is the on-disk token list shape.
type listFile struct {
	Reputations map[string]float64 `json:"reputations"`
}

// Load reads a reputation token list from a JSON file of the form
// {"reputations": {"0x...": 1.5}}. Weights must be non-negative; zero means
// blacklisted for scoring purposes.
func Load(path string) (risk.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token list: %w", err)
	}

	var file listFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse token list: %w", err)
	}

	reputations := make(risk.Map, len(file.Reputations))
	for addr, value := range file.Reputations {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid address in token list: %s", addr)
		}
		if value < 0 {
			return nil, fmt.Errorf("negative reputation for %s: %v", addr, value)
		}
		reputations[common.HexToAddress(addr)] = value
	}
	return reputations, nil
}
