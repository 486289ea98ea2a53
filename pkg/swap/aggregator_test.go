package swap

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse13/agi-solver/pkg/circuitbreaker"
)

var (
	sellToken = common.HexToAddress("0x1111111111111111111111111111111111111111")
	buyToken  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// newAggregatorServer fakes the aggregator API. The quote handler returns
// quoteAmount and the swap handler returns swapAmount.
func newAggregatorServer(t *testing.T, quoteAmount, swapAmount string, captured *SwapRequest) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/quote", func(w http.ResponseWriter, r *http.Request) {
		resp := QuoteResponse{
			SellToken:  r.URL.Query().Get("sell_token"),
			BuyToken:   r.URL.Query().Get("buy_token"),
			SellAmount: r.URL.Query().Get("sell_amount"),
			BuyAmount:  quoteAmount,
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/v1/swap", func(w http.ResponseWriter, r *http.Request) {
		var req SwapRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if captured != nil {
			*captured = req
		}
		_ = json.NewEncoder(w).Encode(SwapResponse{
			RequestID: req.RequestID,
			BuyAmount: swapAmount,
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestQuote(t *testing.T) {
	server := newAggregatorServer(t, "995000", "995000", nil)
	client := NewAggregatorClient(server.URL, decimal.RequireFromString("0.05"), recipient, nil, nil)

	amount, err := client.Quote(context.Background(), sellToken, buyToken, big.NewInt(1000000))
	require.NoError(t, err)
	assert.Equal(t, "995000", amount.String())
}

func TestSwapAppliesSlippageToMinimum(t *testing.T) {
	var captured SwapRequest
	server := newAggregatorServer(t, "1000000", "960000", &captured)
	client := NewAggregatorClient(server.URL, decimal.RequireFromString("0.05"), recipient, nil, nil)

	amount, err := client.Swap(context.Background(), sellToken, buyToken, big.NewInt(1000000))
	require.NoError(t, err)

	assert.Equal(t, "960000", amount.String())
	assert.Equal(t, "950000", captured.MinBuyAmount, "minimum should be the quote reduced by 5%")
	assert.Equal(t, recipient.Hex(), captured.Recipient)
	assert.NotEmpty(t, captured.RequestID)
}

func TestSwapRejectsOutputBelowMinimum(t *testing.T) {
	server := newAggregatorServer(t, "1000000", "900000", nil)
	client := NewAggregatorClient(server.URL, decimal.RequireFromString("0.05"), recipient, nil, nil)

	_, err := client.Swap(context.Background(), sellToken, buyToken, big.NewInt(1000000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below minimum")
}

func TestSwapErrorsOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewAggregatorClient(server.URL, decimal.RequireFromString("0.05"), recipient, nil, nil)

	_, err := client.Swap(context.Background(), sellToken, buyToken, big.NewInt(1000000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")
}

func TestSwapRefusedWhileCircuitOpen(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)

	breaker := circuitbreaker.NewCircuitBreaker(true, 2, time.Minute, time.Hour, nil)
	client := NewAggregatorClient(failing.URL, decimal.RequireFromString("0.05"), recipient, breaker, nil)

	// Two failures trip the circuit
	_, err := client.Swap(context.Background(), sellToken, buyToken, big.NewInt(1000))
	require.Error(t, err)
	_, err = client.Swap(context.Background(), sellToken, buyToken, big.NewInt(1000))
	require.Error(t, err)
	require.True(t, breaker.IsOpen())

	_, err = client.Swap(context.Background(), sellToken, buyToken, big.NewInt(1000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
}
