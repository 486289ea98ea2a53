// Package swap executes asset swaps through a DEX aggregator and keeps the
// per-intent bookkeeping that makes swap execution idempotent.
package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warehouse13/agi-solver/pkg/circuitbreaker"
	"github.com/warehouse13/agi-solver/pkg/logger"
)

// QuoteResponse is the aggregator's answer to a quote request
type QuoteResponse struct {
	SellToken  string `json:"sell_token"`
	BuyToken   string `json:"buy_token"`
	SellAmount string `json:"sell_amount"`
	BuyAmount  string `json:"buy_amount"`
}

// SwapRequest is the body of a swap execution request
type SwapRequest struct {
	RequestID    string `json:"request_id"`
	SellToken    string `json:"sell_token"`
	BuyToken     string `json:"buy_token"`
	SellAmount   string `json:"sell_amount"`
	MinBuyAmount string `json:"min_buy_amount"`
	Recipient    string `json:"recipient"`
}

// SwapResponse is the aggregator's answer to a swap execution request
type SwapResponse struct {
	RequestID string `json:"request_id"`
	BuyAmount string `json:"buy_amount"`
	TxHash    string `json:"tx_hash,omitempty"`
}

// AggregatorClient talks to the DEX aggregator over HTTP. Swap calls are
// guarded by a circuit breaker so a struggling aggregator is not hammered.
type AggregatorClient struct {
	endpoint   string
	slippage   decimal.Decimal
	recipient  common.Address
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
	logger     logger.Logger
}

// NewAggregatorClient creates a new aggregator client
func NewAggregatorClient(endpoint string, slippage decimal.Decimal, recipient common.Address, breaker *circuitbreaker.CircuitBreaker, lg logger.Logger) *AggregatorClient {
	if lg == nil {
		lg = &logger.EmptyLogger{}
	}
	return &AggregatorClient{
		endpoint:   endpoint,
		slippage:   slippage,
		recipient:  recipient,
		httpClient: createHTTPClient(),
		breaker:    breaker,
		logger:     lg,
	}
}

// Quote asks the aggregator how much of buyToken the given sellAmount buys
func (c *AggregatorClient) Quote(ctx context.Context, sellToken, buyToken common.Address, sellAmount *big.Int) (*big.Int, error) {
	url := fmt.Sprintf("%s/api/v1/quote?sell_token=%s&buy_token=%s&sell_amount=%s",
		c.endpoint, sellToken.Hex(), buyToken.Hex(), sellAmount.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %v", err)
	}

	bodyBytes, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var quote QuoteResponse
	if err := json.Unmarshal(bodyBytes, &quote); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %v, body: %s", err, string(bodyBytes))
	}

	buyAmount, ok := new(big.Int).SetString(quote.BuyAmount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid buy amount in quote: %s", quote.BuyAmount)
	}
	return buyAmount, nil
}

// Swap quotes and executes a swap of sellAmount of sellToken into buyToken,
// returning the amount of buyToken received. The minimum acceptable output is
// the quote reduced by the configured slippage.
func (c *AggregatorClient) Swap(ctx context.Context, sellToken, buyToken common.Address, sellAmount *big.Int) (*big.Int, error) {
	if c.breaker != nil && c.breaker.IsOpen() {
		return nil, fmt.Errorf("aggregator circuit breaker is open")
	}

	quoted, err := c.Quote(ctx, sellToken, buyToken, sellAmount)
	if err != nil {
		c.recordFailure()
		return nil, err
	}

	minBuyAmount := c.applySlippage(quoted)

	swapReq := SwapRequest{
		RequestID:    uuid.NewString(),
		SellToken:    sellToken.Hex(),
		BuyToken:     buyToken.Hex(),
		SellAmount:   sellAmount.String(),
		MinBuyAmount: minBuyAmount.String(),
		Recipient:    c.recipient.Hex(),
	}

	reqBody, err := json.Marshal(swapReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode swap request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/v1/swap", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build swap request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.DebugWith(logger.Swap, "executing swap %s: %s %s -> %s (min out: %s)",
		swapReq.RequestID, sellAmount.String(), sellToken.Hex(), buyToken.Hex(), minBuyAmount.String())

	bodyBytes, err := c.do(req)
	if err != nil {
		c.recordFailure()
		return nil, err
	}

	var swapResp SwapResponse
	if err := json.Unmarshal(bodyBytes, &swapResp); err != nil {
		c.recordFailure()
		return nil, fmt.Errorf("failed to decode swap response: %v, body: %s", err, string(bodyBytes))
	}

	buyAmount, ok := new(big.Int).SetString(swapResp.BuyAmount, 10)
	if !ok {
		c.recordFailure()
		return nil, fmt.Errorf("invalid buy amount in swap response: %s", swapResp.BuyAmount)
	}

	if buyAmount.Cmp(minBuyAmount) < 0 {
		c.recordFailure()
		return nil, fmt.Errorf("swap output %s below minimum %s", buyAmount.String(), minBuyAmount.String())
	}

	return buyAmount, nil
}

// applySlippage reduces a quoted amount by the configured slippage tolerance
func (c *AggregatorClient) applySlippage(quoted *big.Int) *big.Int {
	quotedDec := decimal.NewFromBigInt(quoted, 0)
	minOut := quotedDec.Mul(decimal.NewFromInt(1).Sub(c.slippage))
	return minOut.BigInt()
}

func (c *AggregatorClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aggregator request failed: %v", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Error("Failed to close response body: %v", err)
		}
	}(resp.Body)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	return bodyBytes, nil
}

func (c *AggregatorClient) recordFailure() {
	if c.breaker != nil {
		c.breaker.RecordFailure()
	}
}

// Helper function to create an HTTP client with timeouts
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
