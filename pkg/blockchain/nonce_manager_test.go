package blockchain

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestMarkTransactionConfirmed(t *testing.T) {
	nm := NewNonceManager()

	nm.TrackTransaction(common.HexToHash("0x01"), 5)
	assert.Equal(t, 1, nm.PendingCount())

	assert.True(t, nm.MarkTransactionConfirmed(5))
	assert.Equal(t, 0, nm.PendingCount())

	assert.False(t, nm.MarkTransactionConfirmed(5), "confirming an unknown nonce should report false")
}

func TestMarkTransactionFailedReleasesLowestNonce(t *testing.T) {
	nm := NewNonceManager()
	nm.currentNonce = 12

	nm.TrackTransaction(common.HexToHash("0x01"), 10)
	nm.TrackTransaction(common.HexToHash("0x02"), 11)

	// Failing the higher nonce does not move the counter
	assert.Equal(t, uint64(0), nm.MarkTransactionFailed(11))
	assert.Equal(t, uint64(12), nm.currentNonce)

	// Failing the lowest pending nonce releases it for reuse
	assert.Equal(t, uint64(10), nm.MarkTransactionFailed(10))
	assert.Equal(t, uint64(10), nm.currentNonce)
	assert.Equal(t, 0, nm.PendingCount())
}

func TestReuseNonce(t *testing.T) {
	nm := NewNonceManager()
	nm.currentNonce = 8

	nm.TrackTransaction(common.HexToHash("0x01"), 7)
	nm.ReuseNonce(7)

	assert.Equal(t, uint64(7), nm.currentNonce)
	assert.Equal(t, 0, nm.PendingCount())
}

func TestFindTimeoutTransactions(t *testing.T) {
	nm := NewNonceManager()
	nm.SetTransactionTimeout(10 * time.Millisecond)

	nm.TrackTransaction(common.HexToHash("0x01"), 3)
	assert.Empty(t, nm.FindTimeoutTransactions())

	time.Sleep(20 * time.Millisecond)

	timedOut := nm.FindTimeoutTransactions()
	assert.Equal(t, []uint64{3}, timedOut)

	// A timed out transaction is only reported once
	assert.Empty(t, nm.FindTimeoutTransactions())
}
