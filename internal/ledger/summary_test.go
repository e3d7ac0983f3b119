package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/labstock/internal/model"
)

func record(labID, itemID int64, date, amount, typ, category string) model.MaintenanceRecord {
	d, _ := time.Parse(time.DateOnly, date)
	return model.MaintenanceRecord{
		LabID:    labID,
		ItemID:   itemID,
		Date:     d,
		Cost:     decimal.RequireFromString(amount),
		Type:     typ,
		Category: category,
	}
}

func TestSummarizeOrdering(t *testing.T) {
	records := []model.MaintenanceRecord{
		record(1, 10, "2024-02-10", "5", model.MaintenanceRepair, "Optics"),
		record(1, 11, "2024-01-03", "25.25", model.MaintenanceService, "Glass"),
		record(2, 12, "2023-12-24", "25.25", model.MaintenanceRepair, "Optics"),
		record(2, 13, "2024-02-11", "0.10", model.MaintenanceCalibration, "Tools"),
	}

	sum := summarize(records, 3, true)

	require.Len(t, sum.MonthlyCost, 3)
	assert.Equal(t, 2023, sum.MonthlyCost[0].Year)
	assert.Equal(t, 2, sum.MonthlyCost[2].Month)
	assert.True(t, sum.MonthlyCost[2].Total.Equal(decimal.RequireFromString("5.10")))

	require.Len(t, sum.ByType, 3)
	assert.Equal(t, model.MaintenanceRepair, sum.ByType[0].Type)
	assert.True(t, sum.ByType[0].Total.Equal(decimal.RequireFromString("30.25")))

	require.Len(t, sum.ByLab, 2)
	assert.Equal(t, int64(1), sum.ByLab[0].LabID)

	require.Len(t, sum.TopItems, 3)
	assert.Equal(t, int64(11), sum.TopItems[0].ItemID, "ties break on item id")
	assert.Equal(t, int64(12), sum.TopItems[1].ItemID)
	assert.Equal(t, int64(10), sum.TopItems[2].ItemID)

	assert.Equal(t, "Optics", sum.ByCategory[0].Category)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := summarize(nil, DefaultTopItems, false)
	assert.NotNil(t, sum.MonthlyCost)
	assert.NotNil(t, sum.ByType)
	assert.NotNil(t, sum.ByLab)
	assert.NotNil(t, sum.ByCategory)
	assert.NotNil(t, sum.TopItems)
}

func TestMaintenanceSummaryScope(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	a := mustLab(t, s, "Lab A")
	b := mustLab(t, s, "Lab B")
	ia := mustItem(t, s, a.ID, "Scope", "Optics", 1, 0, 0)
	ib := mustItem(t, s, b.ID, "Burette", "Glass", 1, 0, 0)

	for _, in := range []MaintenanceInput{
		{ItemID: ia.ID, Date: "2024-01-15", Cost: cost("100")},
		{ItemID: ib.ID, Date: "2024-01-20", Cost: cost("50")},
	} {
		_, err := s.CreateMaintenanceRecord(ctx, admin, in)
		require.NoError(t, err)
	}

	all, err := s.MaintenanceSummary(ctx, admin, SummaryQuery{})
	require.NoError(t, err)
	require.Len(t, all.ByLab, 2)
	assert.Equal(t, "Lab A", all.ByLab[0].LabName)
	require.Len(t, all.MonthlyCost, 1)
	assert.True(t, all.MonthlyCost[0].Total.Equal(decimal.NewFromInt(150)))

	own, err := s.MaintenanceSummary(ctx, labActor(b.ID), SummaryQuery{LabID: a.ID})
	require.NoError(t, err)
	assert.Empty(t, own.ByLab)
	require.Len(t, own.TopItems, 1)
	assert.Equal(t, "Burette", own.TopItems[0].Name)

	limited, err := s.MaintenanceSummary(ctx, admin, SummaryQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited.TopItems, 1)
}
