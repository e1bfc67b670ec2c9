// Package service holds the business operations behind the HTTP API:
// creating and deleting jokes, the favorite and reaction state machine, the
// personalized selector, and login.
package service

import (
	"log/slog"
	"time"
)

func discardIfNil(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// Clock returns the current time. Tests replace it to get stable timestamps.
type Clock func() time.Time
