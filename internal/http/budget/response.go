package budget

import (
	"time"

	"github.com/MrJamesThe3rd/budgetbox/internal/budget"
	"github.com/MrJamesThe3rd/budgetbox/internal/budgetsync"
)

const reasonServerNewer = "server-newer"

type syncResponse struct {
	Success    bool           `json:"success"`
	Timestamp  time.Time      `json:"timestamp"`
	Status     string         `json:"status,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	ServerCopy *budget.Budget `json:"serverCopy,omitempty"`
}

type latestResponse struct {
	Budget budget.Budget `json:"budget"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSyncResponse(out *budgetsync.Outcome) syncResponse {
	if !out.Accepted {
		return syncResponse{
			Success:    false,
			Timestamp:  out.Timestamp,
			Reason:     reasonServerNewer,
			ServerCopy: out.ServerCopy,
		}
	}

	return syncResponse{
		Success:   true,
		Timestamp: out.Timestamp,
		Status:    string(budget.StatusSynced),
	}
}
