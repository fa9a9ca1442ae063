package domain

import "time"

// WarmupLog is the append-only audit row written by each progression cycle.
type WarmupLog struct {
	ID         string
	IdentityID string
	Period     string
	Day        int
	DailyLimit int
	Sent       int64
	Delivered  int64
	Bounced    int64
	Spam       int64
	CreatedAt  time.Time
}
