package blockchain

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/warehouse13/agi-solver/pkg/contracts"
)

// ChainConfig holds the connection state for the chain hosting the escrow
type ChainConfig struct {
	RPCURL        string
	WSURL         string
	EscrowAddress string
	Client        *ethclient.Client
	WSClient      *ethclient.Client
	Escrow        *contracts.Escrow
	Auth          *bind.TransactOpts
	SolverAddress common.Address
	GasMultiplier float64
	MaxGasPrice   *big.Int
}

// NewChainConfig creates a chain configuration
func NewChainConfig(rpcURL string, wsURL string, escrowAddress string, maxGasPrice *big.Int) *ChainConfig {
	// Get gas multiplier from environment, default to 1.1
	gasMultiplierStr := os.Getenv("GAS_MULTIPLIER")
	gasMultiplier := 1.1 // default gas multiplier (10% buffer)
	if gasMultiplierStr != "" {
		parsedMultiplier, err := strconv.ParseFloat(gasMultiplierStr, 64)
		if err == nil && parsedMultiplier > 0 {
			gasMultiplier = parsedMultiplier
		}
	}

	return &ChainConfig{
		RPCURL:        rpcURL,
		WSURL:         wsURL,
		EscrowAddress: escrowAddress,
		GasMultiplier: gasMultiplier,
		MaxGasPrice:   maxGasPrice,
	}
}

// Connect establishes connections to blockchain RPC and initializes contract instances
func (c *ChainConfig) Connect(privateKey string) error {
	// Connect to Ethereum client
	client, err := ethclient.Dial(c.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to client: %v", err)
	}
	c.Client = client

	// Optional websocket client for event subscriptions
	if c.WSURL != "" {
		wsClient, err := ethclient.Dial(c.WSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to websocket client: %v", err)
		}
		c.WSClient = wsClient
	}

	// Set up authenticator and contract binding
	if privateKey != "" {
		auth, solverAddress, err := createAuthenticator(client, privateKey)
		if err != nil {
			return fmt.Errorf("failed to create authenticator: %v", err)
		}
		c.Auth = auth
		c.SolverAddress = solverAddress
	}

	// Initialize contract binding
	escrow, err := contracts.NewEscrow(common.HexToAddress(c.EscrowAddress), client)
	if err != nil {
		return fmt.Errorf("failed to initialize contract: %v", err)
	}
	c.Escrow = escrow

	return nil
}

// UpdateGasPrice updates the gas price based on current network conditions
func (c *ChainConfig) UpdateGasPrice(ctx context.Context) (*big.Int, error) {
	if c.Client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	// Get current gas price from the network
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	gasPrice, err := c.Client.SuggestGasPrice(timeoutCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %v", err)
	}

	// Apply gas multiplier (e.g. 1.1 = 10% buffer)
	multipliedGasPrice := new(big.Float).Mul(
		new(big.Float).SetInt(gasPrice),
		big.NewFloat(c.GasMultiplier),
	)

	// Convert back to big.Int
	finalGasPrice := new(big.Int)
	multipliedGasPrice.Int(finalGasPrice)

	if c.MaxGasPrice != nil && c.MaxGasPrice.Sign() > 0 && finalGasPrice.Cmp(c.MaxGasPrice) > 0 {
		return nil, fmt.Errorf("gas price %s wei exceeds maximum %s wei",
			finalGasPrice.String(), c.MaxGasPrice.String())
	}

	// Update the auth with the new gas price
	if c.Auth != nil {
		c.Auth.GasPrice = finalGasPrice
	}

	log.Printf("Updated gas price: %s wei (multiplier: %.2f)", finalGasPrice.String(), c.GasMultiplier)

	return finalGasPrice, nil
}

// GetLatestBlockNumber gets the latest block number from the chain
func (c *ChainConfig) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	if c.Client == nil {
		return 0, fmt.Errorf("client not connected")
	}

	return c.Client.BlockNumber(ctx)
}

// Helper function to create authenticator
func createAuthenticator(client *ethclient.Client, privateKeyHex string) (*bind.TransactOpts, common.Address, error) {
	// Parse private key
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to parse private key: %v", err)
	}

	// Get chain ID
	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to get chain ID: %v", err)
	}

	// Create transaction signer
	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, chainID)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("failed to create transactor: %v", err)
	}

	return auth, crypto.PubkeyToAddress(privateKey.PublicKey), nil
}
