package udpsock

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/windows"
)

func TestIsWouldBlockWindows(t *testing.T) {
	assert.True(t, isWouldBlock(windows.WSAEWOULDBLOCK))
	assert.True(t, isWouldBlock(fmt.Errorf("recv: %w", windows.WSAEWOULDBLOCK)))
	assert.False(t, isWouldBlock(windows.WSAECONNRESET))
}
