package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterQuery_CanonicalKey(t *testing.T) {
	yes, no := true, false

	base := FilterQuery{
		Start:         "2024-03-01",
		Partners:      []string{"202", "101"},
		DocumentTypes: []string{"RG", "CNH"},
	}
	reordered := FilterQuery{
		Start:         "2024-03-01",
		Partners:      []string{"101", "202"},
		DocumentTypes: []string{"CNH", "RG"},
	}
	assert.Equal(t, base.CanonicalKey(), reordered.CanonicalKey())
	assert.Equal(t, []string{"202", "101"}, base.Partners, "CanonicalKey must not sort in place")

	tests := []struct {
		name  string
		other FilterQuery
	}{
		{"different end", FilterQuery{Start: "2024-03-01", End: "2024-03-02", Partners: base.Partners, DocumentTypes: base.DocumentTypes}},
		{"explicit include", FilterQuery{Start: "2024-03-01", IncludeEmpty: &yes, Partners: base.Partners, DocumentTypes: base.DocumentTypes}},
		{"exclude empty", FilterQuery{Start: "2024-03-01", IncludeEmpty: &no, Partners: base.Partners, DocumentTypes: base.DocumentTypes}},
		{"values moved between fields", FilterQuery{Start: "2024-03-01", Partners: []string{"202", "101", "RG"}, DocumentTypes: []string{"CNH"}}},
		{"joined value", FilterQuery{Start: "2024-03-01", Partners: []string{"101202"}, DocumentTypes: base.DocumentTypes}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base.CanonicalKey(), tt.other.CanonicalKey())
		})
	}
}

func TestExportFormat_ContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", ExportCSV.ContentType())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ExportXLSX.ContentType())
}
