package domain

import "time"

// LiveSession identifies one in-memory conversational session. The turn
// window itself lives with the session manager, not in the domain record.
type LiveSession struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time
}
