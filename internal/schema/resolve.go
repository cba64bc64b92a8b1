package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies one of the seven logical record sets. The order matches the
// sheet order of the source workbook.
type Kind int

const (
	KindLead Kind = iota
	KindTestDrive
	KindJourney
	KindInvoice
	KindStoreVisit
	KindCustomerMix
	KindSurvey
)

func (k Kind) String() string {
	switch k {
	case KindLead:
		return "leads"
	case KindTestDrive:
		return "test_drives"
	case KindJourney:
		return "journeys"
	case KindInvoice:
		return "invoices"
	case KindStoreVisit:
		return "store_visits"
	case KindCustomerMix:
		return "customer_mix"
	case KindSurvey:
		return "surveys"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Alias tables, most current schema revision first. Adding a column rename in
// a new upstream export is a data change here, not a code branch.
var (
	DealerKeys = []string{"NomeDealer", "Dealer", "dealer", "Concessionaria", "concessionaria", "Concessionária", "concessionária"}
	IDKeys     = []string{"ID", "id", "Id"}
	DateKeys   = []string{"dateSales", "DateSales", "Date", "Data", "data"}

	FlagTestDriveKeys = []string{"Flag_TestDrive", "flag_testdrive", "flag_test_drive", "FlagTestDrive", "flagTestDrive"}
	FlagInvoicedKeys  = []string{"Flag_Faturado", "flag_faturado", "faturado", "Faturado", "flagFaturado", "FlagFaturado"}

	DaysLeadToInvoiceKeys      = []string{"Dias_Lead_Faturamento", "dias_lead_faturamento", "DiasLeadFaturamento"}
	DaysLeadToTestDriveKeys    = []string{"Dias_Lead_TestDrive", "dias_lead_testdrive"}
	DaysTestDriveToInvoiceKeys = []string{"Dias_TestDrive_Faturamento", "dias_testdrive_faturamento"}

	PercNewKeys       = []string{"PercNovos", "percNovos", "percentualNovos"}
	PercReturningKeys = []string{"PercAntigos", "percAntigos", "percentualAntigos"}

	SurveyEventKeys     = []string{"SURVEY_EVENT_NAME", "survey_event_name"}
	SurveyScoreKeys     = []string{"media_overall_satisfaction", "mediaOverallSatisfaction"}
	SurveyResponsesKeys = []string{"qtd_respostas", "qtdRespostas"}
)

// Positional fallbacks for sets whose exports ship without the named column.
// Index is the zero-based column position in source order.
var (
	dateFallbackCol = map[Kind]int{
		KindTestDrive:  4,
		KindInvoice:    3,
		KindStoreVisit: 1,
	}
	dealerFallbackCol = map[Kind]int{
		KindTestDrive: 3,
		KindInvoice:   5,
	}
)

// StoreVisitCountCol is the positional column carrying the visit count.
const StoreVisitCountCol = 2

// Resolve returns the value of the first alias whose value is neither absent,
// nil nor an empty string. Order of aliases encodes schema-version priority.
func Resolve(r Record, aliases []string) (any, bool) {
	for _, key := range aliases {
		v, ok := r.Get(key)
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// Dealer resolves a row's dealer by alias, falling back to the set's
// positional column when the named key is missing.
func Dealer(r Record, kind Kind) (string, bool) {
	if v, ok := Resolve(r, DealerKeys); ok {
		return asString(v), true
	}
	if col, ok := dealerFallbackCol[kind]; ok {
		if v, ok := r.At(col); ok && v != nil {
			s := asString(v)
			if s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// DateValue resolves a row's raw (unparsed) transaction date by alias, then
// by the set's positional fallback column.
func DateValue(r Record, kind Kind) (any, bool) {
	if v, ok := Resolve(r, DateKeys); ok {
		return v, true
	}
	if col, ok := dateFallbackCol[kind]; ok {
		if v, ok := r.At(col); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Identifier returns the row's correlation key, trimmed of whitespace.
func Identifier(r Record) (string, bool) {
	v, ok := Resolve(r, IDKeys)
	if !ok {
		return "", false
	}
	id := asString(v)
	if id == "" {
		return "", false
	}
	return id, true
}

// FlagSet reports whether a resolved flag value counts as true. The accepted
// encodings are exactly the number 1, the string "1" and boolean true.
func FlagSet(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x == "1"
	case float64:
		return x == 1
	case int:
		return x == 1
	case int64:
		return x == 1
	}
	return false
}

func Invoiced(r Record) bool {
	v, ok := Resolve(r, FlagInvoicedKeys)
	return ok && FlagSet(v)
}

func HasTestDrive(r Record) bool {
	v, ok := Resolve(r, FlagTestDriveKeys)
	return ok && FlagSet(v)
}

// Number coerces a scalar to float64. Blank and non-numeric values report
// not-ok so callers exclude them instead of counting zeros.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// ElapsedDays resolves a non-negative elapsed-days metric. Negative, blank
// and non-numeric values are excluded, never treated as zero.
func ElapsedDays(r Record, aliases []string) (float64, bool) {
	v, ok := Resolve(r, aliases)
	if !ok {
		return 0, false
	}
	n, ok := Number(v)
	if !ok || n < 0 {
		return 0, false
	}
	return n, true
}

// VisitCount reads a store-visit row's count from its positional column.
func VisitCount(r Record) (float64, bool) {
	v, ok := r.At(StoreVisitCountCol)
	if !ok || v == nil {
		return 0, false
	}
	return Number(v)
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strings.TrimSpace(strconv.FormatFloat(x, 'f', -1, 64))
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
