package transfer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/warmline/internal/domain/transfer"
)

func TestStateTerminal(t *testing.T) {
	terminal := []transfer.State{transfer.StateCompleted, transfer.StateCancelled, transfer.StateFailed}
	for _, s := range terminal {
		require.True(t, s.Terminal(), "state %s", s)
	}

	live := []transfer.State{
		transfer.StateRequested, transfer.StateBriefing, transfer.StateSummaryReady,
		transfer.StateAwaitingAgentB, transfer.StateHandingOff,
	}
	for _, s := range live {
		require.False(t, s.Terminal(), "state %s", s)
	}
}

func TestStateCancellable(t *testing.T) {
	require.True(t, transfer.StateRequested.Cancellable())
	require.True(t, transfer.StateAwaitingAgentB.Cancellable())

	notCancellable := []transfer.State{
		transfer.StateBriefing, transfer.StateSummaryReady, transfer.StateHandingOff,
		transfer.StateCompleted, transfer.StateCancelled, transfer.StateFailed,
	}
	for _, s := range notCancellable {
		require.False(t, s.Cancellable(), "state %s", s)
	}
}
