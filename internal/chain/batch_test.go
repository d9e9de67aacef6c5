package chain

import (
	"context"
	"math/big"
	"testing"
)

func TestBatchCallEmptyResolvesWithoutNetwork(t *testing.T) {
	// The zero-value client has no RPC connection; an empty batch must
	// resolve before any network access is attempted.
	client := &Client{}
	results, err := client.BatchCall(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestToBlockNumArg(t *testing.T) {
	if got := toBlockNumArg(nil); got != "latest" {
		t.Fatalf("nil block: got %s", got)
	}
	if got := toBlockNumArg(big.NewInt(255)); got != "0xff" {
		t.Fatalf("block 255: got %s", got)
	}
}
