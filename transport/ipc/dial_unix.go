//go:build !windows

package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
)

func dial() (net.Conn, error) {
	dir := socketDir()
	var lastErr error
	for i := 0; i < 10; i++ {
		c, err := net.Dial("unix", filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i)))
		if err == nil {
			return c, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no discord ipc socket found in %s: %w", dir, lastErr)
}

func socketDir() string {
	for _, key := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(key); dir != "" {
			return dir
		}
	}
	return "/tmp"
}
