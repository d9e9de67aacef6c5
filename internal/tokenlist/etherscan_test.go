package tokenlist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestEtherscanVerified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("module") != "contract" || r.URL.Query().Get("action") != "getabi" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"status":"1","message":"OK","result":"[]"}`))
	}))
	defer server.Close()

	client := NewEtherscanClient("key").WithBaseURL(server.URL)
	verified, err := client.Verified(context.Background(), common.HexToAddress("0x1111111111111111111111111111111111111111"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verified {
		t.Fatalf("expected verified")
	}
}

func TestEtherscanNotVerified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Contract source code not verified"}`))
	}))
	defer server.Close()

	client := NewEtherscanClient("key").WithBaseURL(server.URL)
	verified, err := client.Verified(context.Background(), common.HexToAddress("0x1111111111111111111111111111111111111111"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verified {
		t.Fatalf("expected not verified")
	}
}

func TestEtherscanLookupError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	}))
	defer server.Close()

	client := NewEtherscanClient("key").WithBaseURL(server.URL)
	if _, err := client.Verified(context.Background(), common.HexToAddress("0x1111111111111111111111111111111111111111")); err == nil {
		t.Fatalf("expected error for rate limit response")
	}
}
