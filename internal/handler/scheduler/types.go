// Package scheduler exposes the mailbox scan scheduler over HTTP.
package scheduler

import (
	"context"
	"time"

	sched "github.com/samthedataman/resumably/internal/scheduler"
)

// Scheduler is the scan scheduler controlled by these handlers
type Scheduler interface {
	Start() error
	Stop() error
	RunOnce(ctx context.Context) (*sched.ScanResult, error)
	IsRunning() bool
	GetNextRun() time.Time
	GetLastRun() time.Time
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
