package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttemptStatus_Next(t *testing.T) {
	tests := []struct {
		from AttemptStatus
		ev   AttemptEvent
		to   AttemptStatus
		ok   bool
	}{
		{StatusNotStarted, EventStart, StatusInProgress, true},
		{StatusNotStarted, EventSubmit, "", false},
		{StatusNotStarted, EventExpire, StatusExpired, true},
		{StatusInProgress, EventSubmit, StatusSubmitted, true},
		{StatusInProgress, EventExpire, StatusExpired, true},
		{StatusInProgress, EventStart, "", false},
		{StatusSubmitted, EventSubmit, "", false},
		{StatusSubmitted, EventExpire, "", false},
		{StatusSubmitted, EventStart, "", false},
		{StatusExpired, EventSubmit, "", false},
		{StatusExpired, EventExpire, "", false},
		{StatusExpired, EventStart, "", false},
	}
	for _, tt := range tests {
		to, ok := tt.from.Next(tt.ev)
		assert.Equal(t, tt.ok, ok, "%s + %s", tt.from, tt.ev)
		assert.Equal(t, tt.to, to, "%s + %s", tt.from, tt.ev)
	}
}

func TestAttemptStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusNotStarted.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusSubmitted.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
	assert.False(t, AttemptStatus("PAUSED").Valid())
}
