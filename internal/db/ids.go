package db

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	sessionIDPrefix = "ses_"
	actionIDPrefix  = "act_"
)

func randomID(prefix string, n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(b), nil
}

// generateSessionID generates a session ID (6 hex characters)
func generateSessionID() (string, error) {
	return randomID(sessionIDPrefix, 3)
}

// generateActionID generates an action ID (8 hex characters)
func generateActionID() (string, error) {
	return randomID(actionIDPrefix, 4)
}
