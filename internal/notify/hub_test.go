package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHubRegisterUnregisterTracksConnectionCount(t *testing.T) {
	h := NewHub()
	assert.Equal(t, 0, h.ConnectionCount("u1"))

	// nil *websocket.Conn works fine as a map key for registry bookkeeping.
	h.Register("u1", nil)
	assert.Equal(t, 1, h.ConnectionCount("u1"))

	h.Unregister("u1", nil)
	assert.Equal(t, 0, h.ConnectionCount("u1"))
}
