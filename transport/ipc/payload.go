package ipc

import (
	"os"

	"github.com/google/uuid"
)

// BuildDispatchPayload wraps a command and its args in the cmd/nonce
// envelope discord expects inside a Frame payload.
func BuildDispatchPayload(cmd string, args any) map[string]any {
	return map[string]any{
		"cmd":   cmd,
		"args":  args,
		"nonce": uuid.NewString(),
	}
}

// ActivityArgsWithPid attaches the calling process id to an activity,
// as required by SET_ACTIVITY.
func ActivityArgsWithPid(activity any) map[string]any {
	return map[string]any{
		"pid":      os.Getpid(),
		"activity": activity,
	}
}

// HandshakePayload is the body of the initial Handshake frame.
func HandshakePayload(clientID string) map[string]any {
	return map[string]any{
		"v":         1,
		"client_id": clientID,
	}
}
