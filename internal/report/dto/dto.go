package dto

import "time"

// Period is half-open: From inclusive, To exclusive.
type Period struct {
	From time.Time
	To   time.Time
}
