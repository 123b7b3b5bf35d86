package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetail(t *testing.T) {
	tbl := mustTable(t, partnerCSV)

	dt := Detail(tbl, nil)

	require.True(t, dt.Styled)
	require.NoError(t, dt.Err)
	assert.Equal(t, append(tbl.Columns(), ColFilterDate), dt.Columns)
	require.Len(t, dt.Rows, 6)

	highlights := make([]bool, len(dt.Rows))
	for i, r := range dt.Rows {
		highlights[i] = r.Highlight
	}
	assert.Equal(t, []bool{false, true, false, true, true, false}, highlights)
	assert.Equal(t, "2024-03-01", dt.Rows[1].FilterDate)
	assert.Equal(t, "", dt.Rows[4].FilterDate)
	assert.Equal(t, tbl.Row(2), dt.Rows[2].Values)
}

func TestDetail_NoStatusColumnHighlightsAll(t *testing.T) {
	dt := Detail(mustTable(t, "Divergências\nFoto borrada\n\n"), nil)

	require.True(t, dt.Styled)
	for _, r := range dt.Rows {
		assert.True(t, r.Highlight)
	}
}

func TestDetail_FallsBackToUnstyled(t *testing.T) {
	tbl := mustTable(t, partnerCSV)

	dt := Detail(tbl, func(t *Table, i int) bool {
		if i == 3 {
			panic("style failure")
		}
		return true
	})

	assert.False(t, dt.Styled)
	require.Error(t, dt.Err)
	assert.Contains(t, dt.Err.Error(), "style failure")
	require.Len(t, dt.Rows, tbl.Len())
	for _, r := range dt.Rows {
		assert.False(t, r.Highlight)
	}
}
