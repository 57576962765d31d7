package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

const sampleReport = `Oak Ridge Apartments - Monthly Report

Occupancy Rate: 94.5%
Leases Signed: 12
Move-Outs: 3

Delinquency Rate: 3.2%
Total Collected: $482,100.00

NOI: $120,000

Open Work Orders: 37
`

func kpiByName(t *testing.T, kpis []ExtractedKPI, name string) ExtractedKPI {
	t.Helper()
	for _, k := range kpis {
		if k.Name == name {
			return k
		}
	}
	t.Fatalf("no KPI named %q extracted", name)
	return ExtractedKPI{}
}

func TestExtractMonthlyReport(t *testing.T) {
	result := Extract(sampleReport, "Oak Ridge - July.pdf")

	require.Len(t, result.KPIs, 7)

	occupancy := kpiByName(t, result.KPIs, "Occupancy Rate")
	assert.Equal(t, models.KPITypeLeasing, occupancy.Type)
	assert.Equal(t, 94.5, occupancy.Value)
	assert.Equal(t, "%", occupancy.Unit)
	assert.Equal(t, 0.90, occupancy.Confidence)

	collected := kpiByName(t, result.KPIs, "Total Collected")
	assert.Equal(t, models.KPITypeCollections, collected.Type)
	assert.Equal(t, 482100.00, collected.Value)
	assert.Equal(t, "$", collected.Unit)

	noi := kpiByName(t, result.KPIs, "Net Operating Income")
	assert.Equal(t, models.KPITypeFinancial, noi.Type)
	assert.Equal(t, 120000.0, noi.Value)

	workOrders := kpiByName(t, result.KPIs, "Open Work Orders")
	assert.Equal(t, models.KPITypeOperations, workOrders.Type)
	assert.Equal(t, 37.0, workOrders.Value)

	// Three of seven matched KPIs are leasing, so leasing wins the vote.
	assert.Equal(t, models.KPITypeLeasing, result.Category)
	assert.InDelta(t, (0.90+0.80+0.75+0.85+0.85+0.90+0.80)/7, result.Confidence, 1e-9)
}

func TestExtractParsesThousandsSeparators(t *testing.T) {
	result := Extract("Net Operating Income: $1,234,567.89", "noi.txt")

	require.Len(t, result.KPIs, 1)
	assert.Equal(t, 1234567.89, result.KPIs[0].Value)
	assert.Equal(t, models.KPITypeFinancial, result.Category)
}

func TestExtractCaseInsensitiveAndLooseFormat(t *testing.T) {
	result := Extract("OCCUPANCY - 88%", "summary.txt")

	require.Len(t, result.KPIs, 1)
	assert.Equal(t, "Occupancy Rate", result.KPIs[0].Name)
	assert.Equal(t, 88.0, result.KPIs[0].Value)
}

func TestExtractEmptyText(t *testing.T) {
	result := Extract("", "empty.txt")

	assert.Empty(t, result.KPIs)
	assert.Equal(t, "unknown", result.Category)
	assert.Zero(t, result.Confidence)
}

func TestExtractCategoryTieIsDeterministic(t *testing.T) {
	// One collections KPI and one leasing KPI: the tie resolves to the
	// lexicographically smallest type.
	result := Extract("Occupancy Rate: 91% and Delinquency Rate: 4.1%", "tie.txt")

	require.Len(t, result.KPIs, 2)
	assert.Equal(t, models.KPITypeCollections, result.Category)
}
