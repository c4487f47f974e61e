package budget

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// New returns an empty budget at version 0.
func New(userID, month string, now time.Time) Budget {
	return Budget{
		UserID:        userID,
		Month:         month,
		Income:        decimal.Zero,
		Categories:    []Category{},
		TotalExpenses: decimal.Zero,
		LastModified:  now,
		Version:       0,
	}
}

// SetIncome replaces the income of b.
func SetIncome(b Budget, amount decimal.Decimal, now time.Time) Budget {
	next := clone(b)
	next.Income = amount

	return touch(next, now)
}

// AddCategory appends a new category with a freshly generated id.
func AddCategory(b Budget, name string, amount decimal.Decimal, now time.Time) Budget {
	next := clone(b)
	next.Categories = append(next.Categories, Category{
		ID:     uuid.NewString(),
		Name:   name,
		Amount: amount,
	})

	return recompute(next, now)
}

// UpdateCategoryAmount replaces the amount of the category with the given id.
// An unknown id leaves the categories as they are.
func UpdateCategoryAmount(b Budget, id string, amount decimal.Decimal, now time.Time) Budget {
	next := clone(b)

	for i := range next.Categories {
		if next.Categories[i].ID == id {
			next.Categories[i].Amount = amount
		}
	}

	return recompute(next, now)
}

// RemoveCategory drops the category with the given id.
// An unknown id leaves the categories as they are.
func RemoveCategory(b Budget, id string, now time.Time) Budget {
	next := clone(b)
	next.Categories = slices.DeleteFunc(next.Categories, func(c Category) bool {
		return c.ID == id
	})

	return recompute(next, now)
}

// TotalExpenses sums the amounts of all categories.
func TotalExpenses(categories []Category) decimal.Decimal {
	total := decimal.Zero
	for _, c := range categories {
		total = total.Add(c.Amount)
	}

	return total
}

func recompute(b Budget, now time.Time) Budget {
	b.TotalExpenses = TotalExpenses(b.Categories)
	return touch(b, now)
}

func touch(b Budget, now time.Time) Budget {
	b.Version++
	b.LastModified = now

	return b
}

func clone(b Budget) Budget {
	b.Categories = append(make([]Category, 0, len(b.Categories)+1), b.Categories...)
	return b
}
