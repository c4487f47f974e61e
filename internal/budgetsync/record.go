package budgetsync

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
)

// Record is the server's canonical copy of a budget.
type Record struct {
	ID           uuid.UUID
	UserID       string
	Month        string
	Data         budget.Budget
	LastModified time.Time // authoritative, server clock
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Outcome is the result of one sync request.
type Outcome struct {
	Accepted  bool
	Inserted  bool
	Timestamp time.Time

	// ServerCopy is set when the stored record is newer than the incoming one.
	ServerCopy *budget.Budget
}
