package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodreport/pkg/models"
)

func TestClassifyClients_GrowingAndLost(t *testing.T) {
	records := []models.Record{
		rec("2022-03-01", "C1", 100),
		rec("2023-03-01", "C1", 200),
		rec("2024-03-01", "C1", 200),
		rec("2023-03-01", "C2", 50),
	}
	years := AvailableYears(records)
	got := ClassifyClients(ClientYearTotals(records, CompletedQty), 2024, PriorYears(years, 2024), 0)

	require.Len(t, got.Growing, 1)
	assert.Equal(t, models.CohortEntry{Client: "C1", Current: 200, Baseline: 150, Delta: 50, HasBaseline: true}, got.Growing[0])

	require.Len(t, got.Lost, 1)
	assert.Equal(t, "C2", got.Lost[0].Client)
	assert.Equal(t, 50.0, got.Lost[0].Baseline)
	assert.Equal(t, -50.0, got.Lost[0].Delta)

	assert.Empty(t, got.Declining)
	assert.Empty(t, got.New)
}

func TestClassifyClients_SingleYearBaseline(t *testing.T) {
	records := []models.Record{
		rec("2023-05-01", "C1", 100),
		rec("2024-05-01", "C1", 150),
		rec("2023-05-01", "C2", 50),
	}
	got := ClassifyClients(ClientYearTotals(records, CompletedQty), 2024, []int{2023}, 0)

	assert.Equal(t, []models.CohortEntry{{Client: "C1", Current: 150, Baseline: 100, Delta: 50, HasBaseline: true}}, got.Growing)
	assert.Equal(t, []models.CohortEntry{{Client: "C2", Baseline: 50, Delta: -50, HasBaseline: true}}, got.Lost)
	assert.Empty(t, got.New)
	assert.Empty(t, got.Declining)
}

func TestClassifyClients_NewAndDeclining(t *testing.T) {
	totals := map[string]map[int]float64{
		"Fresh":   {2024: 70},
		"Falling": {2022: 300, 2023: 100, 2024: 50},
		"Steady":  {2023: 80, 2024: 80},
		"Gone":    {2022: 10, 2023: 0},
		"Nothing": {2024: 0},
	}
	got := ClassifyClients(totals, 2024, []int{2022, 2023}, 0)

	require.Len(t, got.New, 1)
	assert.Equal(t, models.CohortEntry{Client: "Fresh", Current: 70, Delta: 70}, got.New[0])

	require.Len(t, got.Declining, 1)
	assert.Equal(t, "Falling", got.Declining[0].Client)
	assert.Equal(t, 200.0, got.Declining[0].Baseline)
	assert.Equal(t, -150.0, got.Declining[0].Delta)

	require.Len(t, got.Lost, 1)
	assert.Equal(t, "Gone", got.Lost[0].Client)
	assert.Equal(t, 10.0, got.Lost[0].Baseline)

	assert.Empty(t, got.Growing, "equal to baseline is neither growing nor declining")
}

func TestClassifyClients_ListsArePairwiseDisjoint(t *testing.T) {
	totals := map[string]map[int]float64{
		"a": {2023: 10, 2024: 20},
		"b": {2023: 20, 2024: 10},
		"c": {2024: 5},
		"d": {2023: 5},
		"e": {2021: 1, 2024: 1},
	}
	got := ClassifyClients(totals, 2024, []int{2021, 2023}, 0)

	seen := map[string]int{}
	for _, list := range [][]models.CohortEntry{got.Growing, got.Declining, got.New, got.Lost} {
		for _, e := range list {
			seen[e.Client]++
		}
	}
	for client, n := range seen {
		assert.Equal(t, 1, n, client)
	}
}

func TestClassifyClients_SortingAndTopN(t *testing.T) {
	totals := map[string]map[int]float64{
		"small": {2023: 10, 2024: 15},
		"big":   {2023: 10, 2024: 110},
		"mid":   {2023: 10, 2024: 60},
		"down1": {2023: 100, 2024: 90},
		"down2": {2023: 100, 2024: 10},
	}
	got := ClassifyClients(totals, 2024, []int{2023}, 2)

	require.Len(t, got.Growing, 2)
	assert.Equal(t, "big", got.Growing[0].Client)
	assert.Equal(t, "mid", got.Growing[1].Client)

	require.Len(t, got.Declining, 2)
	assert.Equal(t, "down2", got.Declining[0].Client, "steepest decline first")
}

func TestClassifyClients_Empty(t *testing.T) {
	got := ClassifyClients(nil, 0, nil, 0)
	assert.NotNil(t, got.Growing)
	assert.NotNil(t, got.Declining)
	assert.NotNil(t, got.New)
	assert.NotNil(t, got.Lost)
}

func TestPriorYears(t *testing.T) {
	assert.Equal(t, []int{2021, 2022}, PriorYears([]int{2022, 2024, 2021, 2023}, 2023))
	assert.Empty(t, PriorYears([]int{2024}, 2024))
}
