// Package modcheck defines the request and history types shared by all moderation checks.
package modcheck

import (
	"strings"
	"time"
)

// Request is a request to check a message.
type Request struct {
	Msg      string `json:"msg"`       // message to check
	UserID   string `json:"user_id"`   // user id
	UserName string `json:"user_name"` // user name, optional
}

// Record is a processed message kept in the moderation history.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Msg       string    `json:"msg"`
	Toxic     bool      `json:"toxic"`
}

// Tokens splits a message into lowercase whitespace-delimited tokens.
func Tokens(msg string) []string {
	return strings.Fields(strings.ToLower(msg))
}
