package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.Equal(t, domain.StateIdle, bar.State())
	assert.False(t, bar.Running())
	assert.Equal(t, 80, bar.Width())
	assert.Contains(t, bar.View(), "Ready")
}

func TestBar_States(t *testing.T) {
	tests := []struct {
		state   domain.JobState
		running bool
		text    string
		hint    string
	}{
		{domain.StateRunning, true, "running...", "cancel job"},
		{domain.StateRetrieving, true, "retrieving...", "cancel job"},
		{domain.StateGenerating, true, "generating...", "cancel job"},
		{domain.StateCompleted, false, "completed", "new"},
		{domain.StateCancelled, false, "cancelled", "new"},
		{domain.StateFailed, false, "failed", "new"},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(160)
			bar.SetState(tt.state)

			assert.Equal(t, tt.running, bar.Running())
			view := bar.View()
			assert.Contains(t, view, tt.text)
			assert.Contains(t, view, tt.hint)
		})
	}
}

func TestBar_ErrorAndMessage(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(160)
	bar.SetMessage("page 3")
	bar.SetCollection("ragdesk_0123456789")
	bar.SetError(errors.New("provider unavailable"))

	view := bar.View()
	assert.Contains(t, view, "Error: provider unavailable")
	assert.Contains(t, view, "page 3")
	assert.Contains(t, view, "ragdesk_0123456789")

	bar.SetState(domain.StateRunning)
	assert.NoError(t, bar.Err())

	bar.Clear()
	assert.Equal(t, domain.StateIdle, bar.State())
	assert.Empty(t, bar.Message())
}
