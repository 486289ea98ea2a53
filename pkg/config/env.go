package config

import (
	"fmt"
	"math/big"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/warehouse13/agi-solver/pkg/logger"
)

const (
	// DefaultCheckInterval defines the default queue tick interval in milliseconds
	DefaultCheckInterval = 2000

	// DefaultRetryDelay defines the default delay in milliseconds before an intent is reconsidered
	DefaultRetryDelay = 1000

	// DefaultSwapRetryDelay defines the default delay in milliseconds after a failed swap attempt
	DefaultSwapRetryDelay = 30000

	// DefaultMaxRetries defines the maximum number of swap attempts before an intent is evicted
	DefaultMaxRetries = 2

	// DefaultSlippage defines the default slippage tolerance for swap quotes
	DefaultSlippage = "0.05"

	// DefaultFailedSwapsDB defines the default path of the failed swaps database
	DefaultFailedSwapsDB = "failed_swaps.db"

	// DefaultMetricsPort defines the default port for the metrics server
	DefaultMetricsPort = "8080"

	// DefaultReceiptPollInterval defines the default receipt polling interval in milliseconds
	DefaultReceiptPollInterval = 3000

	// DefaultReceiptMaxAttempts defines the maximum number of receipt polls before giving up
	DefaultReceiptMaxAttempts = 1000

	// DefaultAggregatorURL defines the default DEX aggregator endpoint
	DefaultAggregatorURL = "https://aggregator.warehouse13.exchange"

	// DefaultCircuitBreakerEnabled defines whether the circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the time window for the circuit breaker
	DefaultCircuitBreakerWindow = 5

	// DefaultCircuitBreakerReset defines the reset timeout for the circuit breaker
	DefaultCircuitBreakerReset = 15

	// DefaultMaxGasPrice defines the maximum gas price for transactions
	DefaultMaxGasPrice = "1000000000" // 1 Gwei
)

// getEnvMillis reads a millisecond duration option with a default.
func getEnvMillis(name string, defaultMillis int) (time.Duration, error) {
	value := os.Getenv(name)
	if value == "" {
		return time.Duration(defaultMillis) * time.Millisecond, nil
	}

	millis, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %s, must be an integer number of milliseconds", name, value)
	}
	if millis <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", name)
	}
	return time.Duration(millis) * time.Millisecond, nil
}

// GetEnvRPCURL returns the chain RPC endpoint from environment variables
func GetEnvRPCURL() (string, error) {
	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		return "", fmt.Errorf("RPC_URL environment variable is required")
	}

	if _, err := url.ParseRequestURI(rpcURL); err != nil {
		return "", fmt.Errorf("invalid RPC_URL value: %s, must be a valid URL", rpcURL)
	}
	return rpcURL, nil
}

// GetEnvWSURL returns the optional websocket endpoint from environment variables.
// An empty value means event subscriptions fall back to log polling.
func GetEnvWSURL() (string, error) {
	wsURL := os.Getenv("WS_URL")
	if wsURL == "" {
		return "", nil
	}

	if _, err := url.ParseRequestURI(wsURL); err != nil {
		return "", fmt.Errorf("invalid WS_URL value: %s, must be a valid URL", wsURL)
	}
	return wsURL, nil
}

// GetEnvEscrowAddress returns the escrow contract address from environment variables
func GetEnvEscrowAddress() (string, error) {
	escrowAddress := os.Getenv("ESCROW_ADDRESS")
	if escrowAddress == "" {
		return "", fmt.Errorf("ESCROW_ADDRESS environment variable is required")
	}

	if !common.IsHexAddress(escrowAddress) {
		return "", fmt.Errorf("invalid ESCROW_ADDRESS value: %s, must be a valid Ethereum address", escrowAddress)
	}
	return escrowAddress, nil
}

// GetEnvAggregatorURL returns the DEX aggregator endpoint from environment variables
func GetEnvAggregatorURL() (string, error) {
	aggregatorURL := os.Getenv("AGGREGATOR_URL")
	if aggregatorURL == "" {
		return DefaultAggregatorURL, nil
	}

	if _, err := url.ParseRequestURI(aggregatorURL); err != nil {
		return "", fmt.Errorf("invalid AGGREGATOR_URL value: %s, must be a valid URL", aggregatorURL)
	}
	return aggregatorURL, nil
}

// GetEnvCheckInterval returns the queue tick interval from environment variables
func GetEnvCheckInterval() (time.Duration, error) {
	return getEnvMillis("CHECK_INTERVAL", DefaultCheckInterval)
}

// GetEnvRetryDelay returns the generic retry delay from environment variables
func GetEnvRetryDelay() (time.Duration, error) {
	return getEnvMillis("RETRY_DELAY", DefaultRetryDelay)
}

// GetEnvSwapRetryDelay returns the swap retry delay from environment variables
func GetEnvSwapRetryDelay() (time.Duration, error) {
	return getEnvMillis("SWAP_RETRY_DELAY", DefaultSwapRetryDelay)
}

// GetEnvReceiptPollInterval returns the receipt polling interval from environment variables
func GetEnvReceiptPollInterval() (time.Duration, error) {
	return getEnvMillis("RECEIPT_POLL_INTERVAL", DefaultReceiptPollInterval)
}

// GetEnvReceiptMaxAttempts returns the receipt polling attempt cap from environment variables
func GetEnvReceiptMaxAttempts() (int, error) {
	maxAttempts := os.Getenv("RECEIPT_MAX_ATTEMPTS")
	if maxAttempts == "" {
		return DefaultReceiptMaxAttempts, nil
	}

	maxAttemptsInt, err := strconv.Atoi(maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("invalid RECEIPT_MAX_ATTEMPTS value: %s, must be an integer", maxAttempts)
	}
	if maxAttemptsInt <= 0 {
		return 0, fmt.Errorf("RECEIPT_MAX_ATTEMPTS must be greater than 0")
	}
	return maxAttemptsInt, nil
}

// GetEnvMaxRetries returns the maximum number of swap attempts from environment variables
func GetEnvMaxRetries() (int, error) {
	maxRetries := os.Getenv("MAX_RETRIES")
	if maxRetries == "" {
		return DefaultMaxRetries, nil
	}

	maxRetriesInt, err := strconv.Atoi(maxRetries)
	if err != nil {
		return 0, fmt.Errorf("invalid MAX_RETRIES value: %s, must be an integer", maxRetries)
	}
	if maxRetriesInt <= 0 {
		return 0, fmt.Errorf("MAX_RETRIES must be greater than 0")
	}
	return maxRetriesInt, nil
}

// GetEnvDefaultSlippage returns the slippage tolerance from environment variables
func GetEnvDefaultSlippage() (decimal.Decimal, error) {
	slippage := os.Getenv("DEFAULT_SLIPPAGE")
	if slippage == "" {
		slippage = DefaultSlippage
	}

	slippageDec, err := decimal.NewFromString(slippage)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid DEFAULT_SLIPPAGE value: %s, must be a decimal number", slippage)
	}
	if slippageDec.IsNegative() || slippageDec.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("DEFAULT_SLIPPAGE must be in the range [0, 1)")
	}
	return slippageDec, nil
}

// GetEnvFailedSwapsDB returns the failed swaps database path from environment variables
func GetEnvFailedSwapsDB() (string, error) {
	dbPath := os.Getenv("FAILED_SWAPS_DB")
	if dbPath == "" {
		return DefaultFailedSwapsDB, nil
	}
	return dbPath, nil
}

// GetEnvMetricsPort returns the metrics server port from environment variables
func GetEnvMetricsPort() (string, error) {
	metricsPort := os.Getenv("METRICS_PORT")
	if metricsPort == "" {
		return DefaultMetricsPort, nil
	}

	// Validate port format
	if _, err := strconv.Atoi(metricsPort); err != nil {
		return "", fmt.Errorf("invalid METRICS_PORT value: %s, must be a valid integer", metricsPort)
	}
	return metricsPort, nil
}

// GetEnvMaxGasPrice returns the maximum gas price from environment variables
func GetEnvMaxGasPrice() (*big.Int, error) {
	maxGasPrice := os.Getenv("MAX_GAS_PRICE")
	if maxGasPrice == "" {
		maxGasPrice = DefaultMaxGasPrice
	}

	maxGasPriceBig := new(big.Int)
	if _, ok := maxGasPriceBig.SetString(maxGasPrice, 10); !ok {
		return nil, fmt.Errorf("invalid MAX_GAS_PRICE value: %s, must be a valid integer string", maxGasPrice)
	}

	if maxGasPriceBig.Cmp(big.NewInt(0)) < 0 {
		return nil, fmt.Errorf("MAX_GAS_PRICE must be greater than or equal to 0")
	}
	return maxGasPriceBig, nil
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled from environment variables
func GetEnvCircuitBreakerEnabled() (bool, error) {
	enabled := os.Getenv("CIRCUIT_BREAKER_ENABLED")
	if enabled == "" {
		return DefaultCircuitBreakerEnabled, nil
	}

	if enabled == "true" {
		return true, nil
	} else if enabled == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid CIRCUIT_BREAKER_ENABLED value: %s, must be 'true' or 'false'", enabled)
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker threshold from environment variables
func GetEnvCircuitBreakerThreshold() (int, error) {
	threshold := os.Getenv("CIRCUIT_BREAKER_THRESHOLD")
	if threshold == "" {
		return DefaultCircuitBreakerThreshold, nil
	}

	thresholdInt, err := strconv.Atoi(threshold)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD value: %s, must be an integer", threshold)
	}
	if thresholdInt <= 0 {
		return 0, fmt.Errorf("CIRCUIT_BREAKER_THRESHOLD must be greater than 0")
	}
	return thresholdInt, nil
}

// GetEnvCircuitBreakerWindow returns the circuit breaker window duration from environment variables
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	window := os.Getenv("CIRCUIT_BREAKER_WINDOW")
	if window == "" {
		return DefaultCircuitBreakerWindow * time.Second, nil
	}

	// Validate duration format
	parsed, err := time.ParseDuration(window)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_WINDOW value: %s, must be a valid duration string", window)
	}
	return parsed, nil
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout from environment variables
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	reset := os.Getenv("CIRCUIT_BREAKER_RESET")
	if reset == "" {
		return DefaultCircuitBreakerReset * time.Second, nil
	}

	// Validate duration format
	parsed, err := time.ParseDuration(reset)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_RESET value: %s, must be a valid duration string", reset)
	}
	return parsed, nil
}

// GetEnvLogLevel returns the log level from environment variables
func GetEnvLogLevel() (logger.Level, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return logger.InfoLevel, nil
	}

	switch level {
	case "debug":
		return logger.DebugLevel, nil
	case "info":
		return logger.InfoLevel, nil
	case "notice":
		return logger.NoticeLevel, nil
	case "error":
		return logger.ErrorLevel, nil
	}

	return 0, fmt.Errorf("invalid LOG_LEVEL value: %s, must be one of 'debug', 'info', 'notice', 'error'", level)
}

// GetEnvLogColoring returns whether log coloring is enabled from environment variables
func GetEnvLogColoring() (bool, error) {
	coloring := os.Getenv("LOG_COLORING")
	if coloring == "" {
		return true, nil
	}

	if coloring == "true" {
		return true, nil
	} else if coloring == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid LOG_COLORING value: %s, must be 'true' or 'false'", coloring)
}
