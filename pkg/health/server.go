// Package health exposes the operational HTTP surface of the solver: health
// and readiness probes, a status report, circuit breaker admin control and
// the Prometheus metrics endpoint.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warehouse13/agi-solver/pkg/blockchain"
	"github.com/warehouse13/agi-solver/pkg/circuitbreaker"
	"github.com/warehouse13/agi-solver/pkg/contracts"
	"github.com/warehouse13/agi-solver/pkg/logger"
	"github.com/warehouse13/agi-solver/pkg/metrics"
	"github.com/warehouse13/agi-solver/pkg/models"
)

// QueueStats is the queue state surfaced on the status endpoint.
type QueueStats interface {
	Len() int
	Queued() []uint64
	FailedSwapReport() ([]models.FailedSwap, error)
}

// Server represents the health check HTTP server
type Server struct {
	port          string
	chain         *blockchain.ChainConfig
	breaker       *circuitbreaker.CircuitBreaker
	queue         QueueStats
	logger        logger.Logger
	metricsAPIKey string
}

// NewServer creates a new health check server
func NewServer(port string, chain *blockchain.ChainConfig, breaker *circuitbreaker.CircuitBreaker, queue QueueStats, lg logger.Logger) *Server {
	if lg == nil {
		lg = &logger.EmptyLogger{}
	}
	return &Server{
		port:          port,
		chain:         chain,
		breaker:       breaker,
		queue:         queue,
		logger:        lg,
		metricsAPIKey: os.Getenv("METRICS_API_KEY"),
	}
}

// metricsAuthMiddleware is a middleware that checks for a valid API key
func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.metricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		if parts[1] != s.metricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start starts the health check server
func (s *Server) Start() {
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if s.chain.Client == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Chain client not connected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	})

	http.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		circuitStatus := "closed"
		if s.breaker != nil && s.breaker.IsOpen() {
			circuitStatus = "open"
		}

		status := map[string]interface{}{
			"rpc_url":        s.chain.RPCURL,
			"escrow_address": s.chain.EscrowAddress,
			"connected":      s.chain.Client != nil,
			"circuit":        circuitStatus,
			"queue_depth":    s.queue.Len(),
			"queued_agis":    s.queue.Queued(),
		}

		if s.chain.Client != nil {
			blockNumber, err := s.chain.GetLatestBlockNumber(r.Context())
			if err == nil {
				status["latest_block"] = blockNumber
			}

			// Report solver balances for the tokens named in the environment
			tokenBalances := make(map[string]interface{})
			for _, addr := range strings.Split(os.Getenv("TRACKED_TOKEN_ADDRESSES"), ",") {
				addr = strings.TrimSpace(addr)
				if !common.IsHexAddress(addr) {
					continue
				}
				symbol, balance, err := s.getTokenBalance(r.Context(), s.chain.Client, common.HexToAddress(addr), s.chain.SolverAddress)
				if err != nil {
					continue
				}
				tokenBalances[symbol] = balance.String()
			}
			if len(tokenBalances) > 0 {
				status["token_balances"] = tokenBalances
			}
		}

		if report, err := s.queue.FailedSwapReport(); err == nil {
			status["failed_swaps"] = report
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			s.logger.ErrorWith(logger.Health, "error encoding status JSON: %v", err)
		}
	})

	// Circuit breaker admin control endpoint
	http.HandleFunc("/circuit/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if s.breaker == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("No circuit breaker configured"))
			return
		}

		s.breaker.Reset()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Circuit breaker reset"))
	})

	// Expose Prometheus metrics with API key authentication
	http.Handle("/metrics", s.metricsAuthMiddleware(promhttp.Handler()))

	s.logger.InfoWith(logger.Health, "starting health and metrics server on port %s", s.port)
	if err := http.ListenAndServe(":"+s.port, nil); err != nil {
		s.logger.ErrorWith(logger.Health, "health server error: %v", err)
	}
}

// getTokenBalance reads the solver's balance of a token and updates the
// balance gauge. The symbol lookup failing is not an error; the address is
// used as the label instead. When the decimals lookup fails the balance is
// still returned but the gauge is left unchanged.
func (s *Server) getTokenBalance(ctx context.Context, client *ethclient.Client, tokenAddress, ownerAddress common.Address) (string, *big.Int, error) {
	token, err := contracts.NewERC20(tokenAddress, client)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create token contract: %v", err)
	}

	balance, err := token.BalanceOf(&bind.CallOpts{Context: ctx}, ownerAddress)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get token balance: %v", err)
	}

	symbol, err := token.Symbol(&bind.CallOpts{Context: ctx})
	if err != nil {
		symbol = tokenAddress.Hex()
	}

	decimals, err := token.Decimals(&bind.CallOpts{Context: ctx})
	if err != nil {
		return symbol, balance, nil
	}

	balanceFloat := new(big.Float).SetInt(balance)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	balanceFloat.Quo(balanceFloat, divisor)
	balanceFloat64, _ := balanceFloat.Float64()

	metrics.TokenBalance.WithLabelValues(symbol).Set(balanceFloat64)

	return symbol, balance, nil
}
