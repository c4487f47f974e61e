package budget

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("budget not found")

func init() {
	// Amounts travel as plain JSON numbers, the same shape web clients send.
	decimal.MarshalJSONWithoutQuotes = true
}

// SyncStatus describes how a replica relates to the server's accepted copy.
type SyncStatus string

const (
	StatusLocalOnly   SyncStatus = "local-only"
	StatusSyncPending SyncStatus = "sync-pending"
	StatusSynced      SyncStatus = "synced"
)

// Category is a single expense line of a budget.
type Category struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// Budget is the monthly budget of one user. UserID and Month identify it
// on both the client and the server.
type Budget struct {
	UserID        string          `json:"userId"`
	Month         string          `json:"month"` // YYYY-MM
	Income        decimal.Decimal `json:"income"`
	Categories    []Category      `json:"categories"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	LastModified  time.Time       `json:"lastModified"`
	Version       int64           `json:"version"`
}

// Key returns the local storage key for a user's month.
func Key(userID, month string) string {
	return "budget:" + userID + ":" + month
}

// Key returns the storage key of b.
func (b Budget) Key() string {
	return Key(b.UserID, b.Month)
}

// Remaining is what is left of the income after expenses, floored at zero.
func Remaining(b Budget) decimal.Decimal {
	left := b.Income.Sub(b.TotalExpenses)
	if left.IsNegative() {
		return decimal.Zero
	}

	return left
}
