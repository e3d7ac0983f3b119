package ledger

import (
	"cmp"
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/store"
)

const (
	// DefaultTopItems is the topItems cap when no limit is given.
	DefaultTopItems = 10
	// maxTopItems bounds caller-supplied limits.
	maxTopItems = 100
	// topLabs caps the byLab breakdown.
	topLabs = 20
)

// SummaryQuery scopes MaintenanceSummary. Dates are inclusive.
type SummaryQuery struct {
	Start string
	End   string
	LabID int64
	Limit int
}

// MonthCost is the total for one calendar month.
type MonthCost struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// TypeCost is the total for one maintenance type.
type TypeCost struct {
	Type  string          `json:"type"`
	Total decimal.Decimal `json:"total"`
}

// LabCost is the total for one lab.
type LabCost struct {
	LabID   int64           `json:"lab_id"`
	LabName string          `json:"lab_name"`
	Total   decimal.Decimal `json:"total"`
}

// CategoryCost is the total for one item category.
type CategoryCost struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// ItemCost is the total for one item.
type ItemCost struct {
	ItemID   int64           `json:"item_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Summary is the set of derived maintenance views.
type Summary struct {
	MonthlyCost []MonthCost    `json:"monthly_cost"`
	ByType      []TypeCost     `json:"by_type"`
	ByLab       []LabCost      `json:"by_lab"`
	ByCategory  []CategoryCost `json:"by_category"`
	TopItems    []ItemCost     `json:"top_items"`
}

// MaintenanceSummary aggregates maintenance costs in the actor's scope.
// Totals are recomputed from the records on every call.
func (s *Service) MaintenanceSummary(ctx context.Context, actor Actor, q SummaryQuery) (*Summary, error) {
	if err := requireMember(actor); err != nil {
		return nil, err
	}
	f, err := MaintenanceQuery{Start: q.Start, End: q.End, LabID: q.LabID}.filter(actor)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultTopItems
	}
	limit = min(limit, maxTopItems)

	records, err := store.ListMaintenanceRecords(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	return summarize(records, limit, actor.IsAdmin()), nil
}

func summarize(records []model.MaintenanceRecord, limit int, withLabs bool) *Summary {
	type month struct{ y, m int }
	monthly := map[month]decimal.Decimal{}
	byType := map[string]decimal.Decimal{}
	byCategory := map[string]decimal.Decimal{}
	byLab := map[int64]*LabCost{}
	byItem := map[int64]*ItemCost{}

	for _, r := range records {
		k := month{r.Date.Year(), int(r.Date.Month())}
		monthly[k] = monthly[k].Add(r.Cost)
		byType[r.Type] = byType[r.Type].Add(r.Cost)
		byCategory[r.Category] = byCategory[r.Category].Add(r.Cost)

		if l, ok := byLab[r.LabID]; ok {
			l.Total = l.Total.Add(r.Cost)
		} else {
			byLab[r.LabID] = &LabCost{LabID: r.LabID, LabName: r.LabName, Total: r.Cost}
		}
		if it, ok := byItem[r.ItemID]; ok {
			it.Total = it.Total.Add(r.Cost)
		} else {
			byItem[r.ItemID] = &ItemCost{ItemID: r.ItemID, Name: r.ItemName, Category: r.Category, Total: r.Cost}
		}
	}

	sum := &Summary{
		MonthlyCost: make([]MonthCost, 0, len(monthly)),
		ByType:      make([]TypeCost, 0, len(byType)),
		ByLab:       []LabCost{},
		ByCategory:  make([]CategoryCost, 0, len(byCategory)),
		TopItems:    make([]ItemCost, 0, min(limit, len(byItem))),
	}

	for k, total := range monthly {
		sum.MonthlyCost = append(sum.MonthlyCost, MonthCost{Year: k.y, Month: k.m, Total: total})
	}
	slices.SortFunc(sum.MonthlyCost, func(a, b MonthCost) int {
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	})

	for t, total := range byType {
		sum.ByType = append(sum.ByType, TypeCost{Type: t, Total: total})
	}
	slices.SortFunc(sum.ByType, func(a, b TypeCost) int {
		return cmp.Or(b.Total.Cmp(a.Total), cmp.Compare(a.Type, b.Type))
	})

	for c, total := range byCategory {
		sum.ByCategory = append(sum.ByCategory, CategoryCost{Category: c, Total: total})
	}
	slices.SortFunc(sum.ByCategory, func(a, b CategoryCost) int {
		return cmp.Or(b.Total.Cmp(a.Total), cmp.Compare(a.Category, b.Category))
	})

	if withLabs {
		for _, l := range byLab {
			sum.ByLab = append(sum.ByLab, *l)
		}
		slices.SortFunc(sum.ByLab, func(a, b LabCost) int {
			return cmp.Or(b.Total.Cmp(a.Total), cmp.Compare(a.LabID, b.LabID))
		})
		if len(sum.ByLab) > topLabs {
			sum.ByLab = sum.ByLab[:topLabs]
		}
	}

	for _, it := range byItem {
		sum.TopItems = append(sum.TopItems, *it)
	}
	slices.SortFunc(sum.TopItems, func(a, b ItemCost) int {
		return cmp.Or(b.Total.Cmp(a.Total), cmp.Compare(a.ItemID, b.ItemID))
	})
	if len(sum.TopItems) > limit {
		sum.TopItems = sum.TopItems[:limit]
	}

	return sum
}
