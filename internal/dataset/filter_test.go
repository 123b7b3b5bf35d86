package dataset

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tbl := mustTable(t, partnerCSV)

	tests := []struct {
		name         string
		predicates   Predicates
		wantPartners []string
		wantWarnings int
		wantActive   bool
	}{
		{
			name:         "no predicates keeps everything",
			predicates:   Predicates{},
			wantPartners: []string{"101", "101", "202", "202", "303", "303"},
			wantActive:   true,
		},
		{
			name:         "default range without empty dates",
			predicates:   Predicates{IncludeEmptyDates: boolPtr(false)},
			wantPartners: []string{"101", "101", "202", "202"},
			wantActive:   true,
		},
		{
			name:         "range including empty dates",
			predicates:   Predicates{Start: "2024-03-02", End: "2024-03-03"},
			wantPartners: []string{"202", "202", "303", "303"},
			wantActive:   true,
		},
		{
			name:         "range excluding empty dates",
			predicates:   Predicates{Start: "2024-03-02", End: "2024-03-03", IncludeEmptyDates: boolPtr(false)},
			wantPartners: []string{"202", "202"},
			wantActive:   true,
		},
		{
			name:         "single day range is inclusive",
			predicates:   Predicates{Start: "01/03/2024", End: "01/03/2024", IncludeEmptyDates: boolPtr(false)},
			wantPartners: []string{"101", "101"},
			wantActive:   true,
		},
		{
			name:         "partner selection",
			predicates:   Predicates{Partners: []string{"101"}},
			wantPartners: []string{"101", "101"},
			wantActive:   true,
		},
		{
			name:         "document type selection",
			predicates:   Predicates{DocumentTypes: []string{"CNH", "Passaporte"}},
			wantPartners: []string{"101", "202", "303"},
			wantActive:   true,
		},
		{
			name:         "divergence selection never matches nulls",
			predicates:   Predicates{Divergences: []string{"Documento adulterado", "nan"}},
			wantPartners: []string{"101", "303"},
			wantActive:   true,
		},
		{
			name: "predicates combine with AND",
			predicates: Predicates{
				Start:             "2024-03-01",
				End:               "2024-03-03",
				IncludeEmptyDates: boolPtr(false),
				Partners:          []string{"101", "303"},
				Divergences:       []string{"Documento adulterado"},
			},
			wantPartners: []string{"101"},
			wantActive:   true,
		},
		{
			name:         "one bound only skips the date filter",
			predicates:   Predicates{Start: "2024-03-02", IncludeEmptyDates: boolPtr(false)},
			wantPartners: []string{"101", "101", "202", "202", "303", "303"},
			wantWarnings: 1,
		},
		{
			name:         "unparseable bound skips the date filter",
			predicates:   Predicates{Start: "amanhã", End: "2024-03-03"},
			wantPartners: []string{"101", "101", "202", "202", "303", "303"},
			wantWarnings: 1,
		},
		{
			name:         "start after end skips the date filter but keeps other filters",
			predicates:   Predicates{Start: "2024-03-03", End: "2024-03-01", Partners: []string{"202"}},
			wantPartners: []string{"202", "202"},
			wantWarnings: 1,
		},
		{
			name:         "unknown partner keeps nothing",
			predicates:   Predicates{Partners: []string{"999"}},
			wantPartners: []string{},
			wantActive:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Apply(tbl, tt.predicates)

			got := columnValues(res.Table, ColPartnerID)
			if diff := cmp.Diff(tt.wantPartners, got); diff != "" {
				t.Errorf("partners mismatch (-want +got):\n%s", diff)
			}
			assert.Len(t, res.Warnings, tt.wantWarnings)
			assert.Equal(t, tt.wantActive, res.DateFilterActive)
		})
	}
}

func TestApply_DefaultRangeIsDataBounds(t *testing.T) {
	res := Apply(mustTable(t, partnerCSV), Predicates{})

	assert.True(t, res.IncludeEmptyDates)
	assert.Equal(t, date(2024, time.March, 1), res.Start)
	assert.Equal(t, date(2024, time.March, 3), res.End)
}

func TestApply_DateFilterUnavailable(t *testing.T) {
	tbl := mustTable(t, "Análise,ID Conta Principal\nConfere,1\nRejeitado,2\n")

	res := Apply(tbl, Predicates{Start: "2024-01-01", End: "2024-01-31", IncludeEmptyDates: boolPtr(false)})

	assert.False(t, res.DateFilterActive)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 2, res.Table.Len())
}

func TestApply_Idempotent(t *testing.T) {
	tbl := mustTable(t, partnerCSV)
	predicates := []Predicates{
		{},
		{Start: "2024-03-02", End: "2024-03-03", IncludeEmptyDates: boolPtr(false)},
		{Partners: []string{"202", "303"}, DocumentTypes: []string{"RG"}},
		{Divergences: []string{"Foto borrada", "Documento adulterado"}, IncludeEmptyDates: boolPtr(true)},
	}

	for _, p := range predicates {
		once := Apply(tbl, p).Table
		twice := Apply(once, p).Table
		assert.Equal(t, once.Fingerprint(), twice.Fingerprint())
		assert.Equal(t, once.Len(), twice.Len())
	}
}

func TestApply_IncludeEmptyIsSuperset(t *testing.T) {
	tbl := mustTable(t, partnerCSV)
	ranges := [][2]string{
		{"", ""},
		{"2024-03-01", "2024-03-01"},
		{"2024-03-02", "2024-03-03"},
		{"2024-02-01", "2024-02-28"},
	}

	for _, r := range ranges {
		with := Apply(tbl, Predicates{Start: r[0], End: r[1], IncludeEmptyDates: boolPtr(true)}).Table
		without := Apply(tbl, Predicates{Start: r[0], End: r[1], IncludeEmptyDates: boolPtr(false)}).Table

		rows := make(map[string]int)
		for i := 0; i < with.Len(); i++ {
			rows[rowKey(with.Row(i))]++
		}
		for i := 0; i < without.Len(); i++ {
			key := rowKey(without.Row(i))
			require.Positive(t, rows[key], "range %v: row %v missing when empty dates are included", r, without.Row(i))
			rows[key]--
		}
	}
}

func rowKey(row []string) string {
	key := ""
	for _, c := range row {
		key += c + "\x1f"
	}
	return key
}

func TestBuildOptions(t *testing.T) {
	opts := BuildOptions(mustTable(t, partnerCSV))

	assert.Equal(t, []string{"101", "202", "303"}, opts.Partners)
	assert.Equal(t, []string{"CNH", "Passaporte", "RG"}, opts.DocumentTypes)
	assert.Equal(t, []string{"Documento adulterado", "Foto borrada"}, opts.Divergences)
	assert.True(t, opts.DateFilterAvailable)
	assert.Equal(t, date(2024, time.March, 1), opts.MinDate)
	assert.Equal(t, date(2024, time.March, 3), opts.MaxDate)
}

func TestBuildOptions_MissingColumns(t *testing.T) {
	opts := BuildOptions(mustTable(t, "Análise\nConfere\n"))

	assert.Empty(t, opts.Partners)
	assert.Empty(t, opts.DocumentTypes)
	assert.Empty(t, opts.Divergences)
	assert.NotNil(t, opts.Partners)
	assert.False(t, opts.DateFilterAvailable)
}
