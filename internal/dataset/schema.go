package dataset

// Column names of the partner spreadsheets.
const (
	ColAnalysisTime = "Tempo de Análise"
	ColDocumentType = "Tipo de Documento"
	ColPartnerID    = "ID Conta Principal"
	ColStatus       = "Análise"
	ColDivergence   = "Divergências"
	ColCreationDate = "Data Criação"

	// ColFilterDate is derived from ColCreationDate and appended on export.
	ColFilterDate = "Filtro_Data"
)

// Status and divergence literals.
const (
	StatusConfere  = "Confere"
	StatusAprovado = "Aprovado"

	DivergenceTampered = "Documento adulterado"
)

// Time series labels.
const (
	LabelApproved   = "Aprovado"
	LabelDivergence = "Divergência"
)

// PlaceholderTokens are values that mean "no information" in a categorical
// column. They never appear in divergence options, summaries or rankings.
var PlaceholderTokens = []string{"", "nan", "None", "NaT", "<NA>", "Não informado"}

var placeholderSet = toSet(PlaceholderTokens)

// naTokens are the raw cell values read as missing, matching the default
// missing-value markers of common data-frame CSV readers.
var naTokens = toSet([]string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
})

// IsPlaceholder reports whether v is one of PlaceholderTokens.
func IsPlaceholder(v string) bool {
	_, ok := placeholderSet[v]
	return ok
}

// IsNull reports whether a raw cell is a missing value.
func IsNull(raw string) bool {
	_, ok := naTokens[raw]
	return ok
}

// IsPassing reports whether an analysis status counts as passed.
func IsPassing(status string) bool {
	return status == StatusConfere || status == StatusAprovado
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
