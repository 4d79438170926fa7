package domain

import "time"

// Session groups one conversation's messages and document chunks. Deleting a
// session cascades to both.
type Session struct {
	ID        string
	CreatedAt time.Time
}
