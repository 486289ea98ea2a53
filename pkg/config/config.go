package config

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/warehouse13/agi-solver/pkg/logger"
)

// Config holds the configuration for the solver service
type Config struct {
	RPCURL              string
	WSURL               string
	PrivateKey          string
	EscrowAddress       string
	AggregatorURL       string
	CheckInterval       time.Duration
	RetryDelay          time.Duration
	SwapRetryDelay      time.Duration
	MaxRetries          int
	DefaultSlippage     decimal.Decimal
	FailedSwapsDB       string
	MetricsPort         string
	ReceiptPollInterval time.Duration
	ReceiptMaxAttempts  int
	MaxGasPrice         *big.Int
	CircuitBreaker      CircuitBreakerConfig
	LoggerConfig        LoggerConfig
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	rpcURL, err := GetEnvRPCURL()
	if err != nil {
		return nil, err
	}

	wsURL, err := GetEnvWSURL()
	if err != nil {
		return nil, err
	}

	escrowAddress, err := GetEnvEscrowAddress()
	if err != nil {
		return nil, err
	}

	aggregatorURL, err := GetEnvAggregatorURL()
	if err != nil {
		return nil, err
	}

	checkInterval, err := GetEnvCheckInterval()
	if err != nil {
		return nil, err
	}

	retryDelay, err := GetEnvRetryDelay()
	if err != nil {
		return nil, err
	}

	swapRetryDelay, err := GetEnvSwapRetryDelay()
	if err != nil {
		return nil, err
	}

	maxRetries, err := GetEnvMaxRetries()
	if err != nil {
		return nil, err
	}

	defaultSlippage, err := GetEnvDefaultSlippage()
	if err != nil {
		return nil, err
	}

	failedSwapsDB, err := GetEnvFailedSwapsDB()
	if err != nil {
		return nil, err
	}

	metricsPort, err := GetEnvMetricsPort()
	if err != nil {
		return nil, err
	}

	receiptPollInterval, err := GetEnvReceiptPollInterval()
	if err != nil {
		return nil, err
	}

	receiptMaxAttempts, err := GetEnvReceiptMaxAttempts()
	if err != nil {
		return nil, err
	}

	maxGasPrice, err := GetEnvMaxGasPrice()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCURL:              rpcURL,
		WSURL:               wsURL,
		PrivateKey:          os.Getenv("PRIVATE_KEY"),
		EscrowAddress:       escrowAddress,
		AggregatorURL:       aggregatorURL,
		CheckInterval:       checkInterval,
		RetryDelay:          retryDelay,
		SwapRetryDelay:      swapRetryDelay,
		MaxRetries:          maxRetries,
		DefaultSlippage:     defaultSlippage,
		FailedSwapsDB:       failedSwapsDB,
		MetricsPort:         metricsPort,
		ReceiptPollInterval: receiptPollInterval,
		ReceiptMaxAttempts:  receiptMaxAttempts,
		MaxGasPrice:         maxGasPrice,
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
		},
	}

	// Validate required environment variables
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY environment variable is required")
	}
	if cfg.EscrowAddress == "" {
		return fmt.Errorf("ESCROW_ADDRESS environment variable is required")
	}
	return nil
}
