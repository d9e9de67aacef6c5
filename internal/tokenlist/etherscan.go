package tokenlist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const defaultEtherscanBaseURL = "https://api.etherscan.io/api"

// EtherscanClient checks contract verification through the getabi endpoint.
// An address whose ABI is published counts as verified.
type EtherscanClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewEtherscanClient builds a client keyed by the given API token.
func NewEtherscanClient(apiKey string) *EtherscanClient {
	return &EtherscanClient{
		baseURL:    defaultEtherscanBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the API endpoint.
func (c *EtherscanClient) WithBaseURL(baseURL string) *EtherscanClient {
	c.baseURL = baseURL
	return c
}

type etherscanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// Verified reports whether the contract's source code is verified. An
// unverified contract is a negative answer, not an error; errors are
// reserved for lookups that produced no answer at all.
func (c *EtherscanClient) Verified(ctx context.Context, addr common.Address) (bool, error) {
	query := url.Values{}
	query.Set("module", "contract")
	query.Set("action", "getabi")
	query.Set("address", addr.Hex())
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("build verification request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("verification request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verification request: unexpected status %d", resp.StatusCode)
	}

	var body etherscanResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("parse verification response: %w", err)
	}

	if body.Status == "1" {
		return true, nil
	}
	if strings.Contains(strings.ToLower(body.Result), "not verified") {
		return false, nil
	}
	return false, fmt.Errorf("verification lookup: %s", body.Result)
}
