package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse13/agi-solver/pkg/logger"
)

func TestGetEnvRPCURL(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv("RPC_URL", "")
		_, err := GetEnvRPCURL()
		assert.Error(t, err)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Setenv("RPC_URL", "not a url")
		_, err := GetEnvRPCURL()
		assert.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("RPC_URL", "https://rpc.example.com")
		url, err := GetEnvRPCURL()
		require.NoError(t, err)
		assert.Equal(t, "https://rpc.example.com", url)
	})
}

func TestGetEnvWSURLIsOptional(t *testing.T) {
	t.Setenv("WS_URL", "")
	url, err := GetEnvWSURL()
	require.NoError(t, err)
	assert.Empty(t, url, "no websocket endpoint means polling fallback")

	t.Setenv("WS_URL", "wss://rpc.example.com")
	url, err = GetEnvWSURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://rpc.example.com", url)
}

func TestGetEnvEscrowAddress(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		t.Setenv("ESCROW_ADDRESS", "")
		_, err := GetEnvEscrowAddress()
		assert.Error(t, err)
	})

	t.Run("not an address", func(t *testing.T) {
		t.Setenv("ESCROW_ADDRESS", "0x123")
		_, err := GetEnvEscrowAddress()
		assert.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		t.Setenv("ESCROW_ADDRESS", "0x4444444444444444444444444444444444444444")
		addr, err := GetEnvEscrowAddress()
		require.NoError(t, err)
		assert.Equal(t, "0x4444444444444444444444444444444444444444", addr)
	})
}

func TestMillisecondOptions(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		getter   func() (time.Duration, error)
		fallback time.Duration
	}{
		{"check interval", "CHECK_INTERVAL", GetEnvCheckInterval, 2 * time.Second},
		{"retry delay", "RETRY_DELAY", GetEnvRetryDelay, time.Second},
		{"swap retry delay", "SWAP_RETRY_DELAY", GetEnvSwapRetryDelay, 30 * time.Second},
		{"receipt poll interval", "RECEIPT_POLL_INTERVAL", GetEnvReceiptPollInterval, 3 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, "")
			d, err := tt.getter()
			require.NoError(t, err)
			assert.Equal(t, tt.fallback, d)

			t.Setenv(tt.envVar, "250")
			d, err = tt.getter()
			require.NoError(t, err)
			assert.Equal(t, 250*time.Millisecond, d)

			t.Setenv(tt.envVar, "0")
			_, err = tt.getter()
			assert.Error(t, err)

			t.Setenv(tt.envVar, "abc")
			_, err = tt.getter()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvMaxRetries(t *testing.T) {
	t.Setenv("MAX_RETRIES", "")
	n, err := GetEnvMaxRetries()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Setenv("MAX_RETRIES", "5")
	n, err = GetEnvMaxRetries()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	t.Setenv("MAX_RETRIES", "0")
	_, err = GetEnvMaxRetries()
	assert.Error(t, err)
}

func TestGetEnvDefaultSlippage(t *testing.T) {
	t.Setenv("DEFAULT_SLIPPAGE", "")
	s, err := GetEnvDefaultSlippage()
	require.NoError(t, err)
	assert.Equal(t, "0.05", s.String())

	t.Setenv("DEFAULT_SLIPPAGE", "0.01")
	s, err = GetEnvDefaultSlippage()
	require.NoError(t, err)
	assert.Equal(t, "0.01", s.String())

	t.Setenv("DEFAULT_SLIPPAGE", "1")
	_, err = GetEnvDefaultSlippage()
	assert.Error(t, err, "slippage of 100% or more is rejected")

	t.Setenv("DEFAULT_SLIPPAGE", "-0.1")
	_, err = GetEnvDefaultSlippage()
	assert.Error(t, err)
}

func TestGetEnvMaxGasPrice(t *testing.T) {
	t.Setenv("MAX_GAS_PRICE", "")
	p, err := GetEnvMaxGasPrice()
	require.NoError(t, err)
	assert.Equal(t, "1000000000", p.String())

	t.Setenv("MAX_GAS_PRICE", "5000000000")
	p, err = GetEnvMaxGasPrice()
	require.NoError(t, err)
	assert.Equal(t, "5000000000", p.String())

	t.Setenv("MAX_GAS_PRICE", "not a number")
	_, err = GetEnvMaxGasPrice()
	assert.Error(t, err)
}

func TestGetEnvLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  logger.Level
	}{
		{"", logger.InfoLevel},
		{"debug", logger.DebugLevel},
		{"info", logger.InfoLevel},
		{"notice", logger.NoticeLevel},
		{"error", logger.ErrorLevel},
	}

	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.value)
		level, err := GetEnvLogLevel()
		require.NoError(t, err)
		assert.Equal(t, tt.want, level)
	}

	t.Setenv("LOG_LEVEL", "verbose")
	_, err := GetEnvLogLevel()
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RPC_URL", "https://rpc.example.com")
	t.Setenv("PRIVATE_KEY", "aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899")
	t.Setenv("ESCROW_ADDRESS", "0x4444444444444444444444444444444444444444")
	t.Setenv("CHECK_INTERVAL", "500")
	t.Setenv("MAX_RETRIES", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.example.com", cfg.RPCURL)
	assert.Equal(t, "0x4444444444444444444444444444444444444444", cfg.EscrowAddress)
	assert.Equal(t, 500*time.Millisecond, cfg.CheckInterval)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.SwapRetryDelay)
	assert.Equal(t, "failed_swaps.db", cfg.FailedSwapsDB)
	assert.Equal(t, "8080", cfg.MetricsPort)
	assert.True(t, cfg.CircuitBreaker.Enabled)
}

func TestLoadConfigRequiresPrivateKey(t *testing.T) {
	t.Setenv("RPC_URL", "https://rpc.example.com")
	t.Setenv("PRIVATE_KEY", "")
	t.Setenv("ESCROW_ADDRESS", "0x4444444444444444444444444444444444444444")

	_, err := LoadConfig()
	assert.Error(t, err)
}
