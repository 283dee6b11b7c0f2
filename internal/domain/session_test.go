package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to SessionStatus
		want     bool
	}{
		{SessionStatusOpen, SessionStatusLocked, true},
		{SessionStatusLocked, SessionStatusLive, true},
		{SessionStatusLive, SessionStatusArchived, true},
		{SessionStatusOpen, SessionStatusArchived, true},
		{SessionStatusLocked, SessionStatusOpen, false},
		{SessionStatusArchived, SessionStatusLive, false},
		{SessionStatusLive, SessionStatusLive, false},
		{SessionStatus("bogus"), SessionStatusLive, false},
		{SessionStatusOpen, SessionStatus("bogus"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestSessionStatus_IsActive(t *testing.T) {
	assert.True(t, SessionStatusOpen.IsActive())
	assert.True(t, SessionStatusLocked.IsActive())
	assert.True(t, SessionStatusLive.IsActive())
	assert.False(t, SessionStatusArchived.IsActive())
}

func TestHostForIndex(t *testing.T) {
	assert.Equal(t, HostA, HostForIndex(0))
	assert.Equal(t, HostB, HostForIndex(1))
	assert.Equal(t, HostA, HostForIndex(2))
	assert.Equal(t, HostB, HostForIndex(7))
}
