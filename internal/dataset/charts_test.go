package dataset

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeSeries(t *testing.T) {
	got := TimeSeries(mustTable(t, partnerCSV))

	want := []SeriesPoint{
		{Date: date(2024, time.March, 1), Label: LabelApproved, Count: 1},
		{Date: date(2024, time.March, 1), Label: LabelDivergence, Count: 1},
		{Date: date(2024, time.March, 2), Label: LabelApproved, Count: 1},
		{Date: date(2024, time.March, 3), Label: LabelDivergence, Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeSeries_Degrades(t *testing.T) {
	noStatus := mustTable(t, "Data Criação\n01/01/2024\n")
	assert.Empty(t, TimeSeries(noStatus))

	noDates := mustTable(t, "Análise,Data Criação\nConfere,\nRejeitado,sem data\n")
	assert.Empty(t, TimeSeries(noDates))
	assert.NotNil(t, TimeSeries(noDates))
}

func TestTopDivergences(t *testing.T) {
	var values []string
	// 12 reasons; reason k appears k times, plus placeholders.
	for k := 1; k <= 12; k++ {
		for j := 0; j < k; j++ {
			values = append(values, fmt.Sprintf("Motivo %02d", k))
		}
	}
	values = append(values, "", "nan", "None", "Não informado", "NaT", "<NA>")
	tbl := labelTable(ColDivergence, values...)

	got := TopDivergences(tbl, DefaultTopN)

	require.Len(t, got, 10)
	assert.Equal(t, RankedDivergence{Reason: "Motivo 12", Count: 12, Percent: "15.4%"}, got[0])
	assert.Equal(t, RankedDivergence{Reason: "Motivo 03", Count: 3, Percent: "3.8%"}, got[9])
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Count, got[i].Count)
	}
}

func TestTopDivergences_PercentOfAllTypes(t *testing.T) {
	tbl := labelTable(ColDivergence, "Documento adulterado", "Documento adulterado", "Foto borrada")

	got := TopDivergences(tbl, 1)

	assert.Equal(t, []RankedDivergence{{Reason: "Documento adulterado", Count: 2, Percent: "66.7%"}}, got)
}

func TestTopDivergences_Empty(t *testing.T) {
	assert.Empty(t, TopDivergences(labelTable(ColDivergence, "", "Não informado"), DefaultTopN))
	assert.Empty(t, TopDivergences(labelTable(ColStatus, "Confere"), DefaultTopN))
}

func TestDistribution(t *testing.T) {
	tbl := labelTable(ColAnalysisTime, "Empresa B", "Empresa A", "Não informado", "Empresa B", "", "nan")

	got := Distribution(tbl, ColAnalysisTime)

	want := []Slice{
		{Label: "Empresa B", Count: 2},
		{Label: "Empresa A", Count: 1},
		{Label: "Não informado", Count: 1},
	}
	assert.Equal(t, want, got)
	assert.Empty(t, Distribution(tbl, ColDocumentType))
}
