package model

import (
	"net/mail"
	"strings"
	"time"
)

// Message is a mailbox message as seen by the assistant
type Message struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	Subject  string    `json:"subject"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Date     time.Time `json:"date"`
	Snippet  string    `json:"snippet"`
	Labels   []string  `json:"labels"`
	Body     string    `json:"body"`
}

// SenderAddress extracts the bare address from a From header such as
// "Jane Doe <jane@corp.com>". Unparseable values are returned trimmed.
func SenderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.Index(from[start:], ">"); end > 0 {
			return strings.TrimSpace(from[start+1 : start+end])
		}
	}
	return strings.TrimSpace(from)
}
