package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventWireNames(t *testing.T) {
	assert.Equal(t, "READY", Ready.String())
	assert.Equal(t, "ACTIVITY_JOIN_REQUEST", ActivityJoinRequest.String())
	assert.Equal(t, "UNKNOWN", Event(-1).String())
}

func TestEventFromName(t *testing.T) {
	e, ok := EventFromName("ACTIVITY_SPECTATE")
	assert.True(t, ok)
	assert.Equal(t, ActivitySpectate, e)

	_, ok = EventFromName("NOT_AN_EVENT")
	assert.False(t, ok)
}
