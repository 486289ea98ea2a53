package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtendedStatusString(t *testing.T) {
	tests := []struct {
		status ExtendedStatus
		want   string
	}{
		{StatusPendingDispense, "PendingDispense"},
		{StatusDispensedPendingProceeds, "DispensedPendingProceeds"},
		{StatusProceedsReceived, "ProceedsReceived"},
		{StatusSwapInitiated, "SwapInitiated"},
		{StatusSwapCompleted, "SwapCompleted"},
		{ExtendedStatus(99), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestSwapPhaseString(t *testing.T) {
	assert.Equal(t, "Pending", SwapPending.String())
	assert.Equal(t, "Completed", SwapCompleted.String())
	assert.Equal(t, "Failed", SwapFailed.String())
	assert.Equal(t, "Unknown", SwapPhase(99).String())
}

func TestSetExtStatusTakesACopy(t *testing.T) {
	prog := &IntentProgress{}

	status := StatusSwapInitiated
	prog.SetExtStatus(status)
	status = StatusSwapCompleted

	assert.Equal(t, StatusSwapInitiated, *prog.ExtStatus)
}
