package groups

import (
	"crypto/rand"
	"fmt"
)

// Invite codes exclude 0/O/I/1 to avoid transcription ambiguity. The
// 32-character alphabet keeps byte-modulo indexing bias-free.
const (
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteCodeLength   = 8

	// Attempts before giving up when the generated code collides.
	inviteCodeAttempts = 5
)

// generateInviteCode returns a random 8-character code.
func generateInviteCode() (string, error) {
	buf := make([]byte, inviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(buf), nil
}

func validInviteCode(code string) bool {
	if len(code) != inviteCodeLength {
		return false
	}
	for _, c := range code {
		found := false
		for _, a := range inviteCodeAlphabet {
			if c == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
