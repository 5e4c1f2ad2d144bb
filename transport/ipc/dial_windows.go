//go:build windows

package ipc

import (
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
)

func dial() (net.Conn, error) {
	var lastErr error
	for i := 0; i < 10; i++ {
		c, err := winio.DialPipe(fmt.Sprintf(`\\.\pipe\discord-ipc-%d`, i), nil)
		if err == nil {
			return c, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no discord ipc pipe found: %w", lastErr)
}
