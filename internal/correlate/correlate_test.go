package correlate

import (
	"testing"

	"github.com/dealerops/funnel-etl-go/internal/schema"
)

func rec(pairs ...any) schema.Record {
	r := schema.NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1])
	}
	return r
}

func TestEnrichBackfillsFromMatchedLead(t *testing.T) {
	leads := []schema.Record{
		rec("ID", "100", "NomeDealer", "Loja Sul", "dateSales", "15/03/2024"),
	}
	idx := NewLeadIndex(leads)

	td := rec("ID", "100", "Modelo", "Hatch")
	got := Enrich(td, schema.KindTestDrive, idx)

	if name, ok := schema.Dealer(got, schema.KindTestDrive); !ok || name != "Loja Sul" {
		t.Fatalf("dealer = %q %v, want Loja Sul true", name, ok)
	}
	if v, ok := schema.Resolve(got, schema.DateKeys); !ok || v != "15/03/2024" {
		t.Fatalf("date = %v %v, want 15/03/2024 true", v, ok)
	}

	// The input row itself is untouched.
	if _, ok := schema.Dealer(td, schema.KindTestDrive); ok {
		t.Fatal("Enrich mutated its input")
	}
}

func TestEnrichMissLeavesRowUntouched(t *testing.T) {
	idx := NewLeadIndex([]schema.Record{rec("ID", "100", "NomeDealer", "Loja Sul")})

	td := rec("ID", "999", "Modelo", "Sedan")
	got := Enrich(td, schema.KindTestDrive, idx)

	if _, ok := schema.Dealer(got, schema.KindTestDrive); ok {
		t.Fatal("unmatched row must not gain a dealer")
	}
	if _, ok := schema.Resolve(got, schema.DateKeys); ok {
		t.Fatal("unmatched row must not gain a date")
	}
}

func TestEnrichSkipsCompleteRows(t *testing.T) {
	idx := NewLeadIndex([]schema.Record{
		rec("ID", "100", "NomeDealer", "Loja Sul", "dateSales", "15/03/2024"),
	})

	td := rec("ID", "100", "Dealer", "Loja Propria", "Data", "01/01/2024")
	got := Enrich(td, schema.KindTestDrive, idx)

	if name, _ := schema.Dealer(got, schema.KindTestDrive); name != "Loja Propria" {
		t.Fatalf("complete row overwritten, dealer = %q", name)
	}
}

func TestLeadIndexKeepsFirstDuplicate(t *testing.T) {
	idx := NewLeadIndex([]schema.Record{
		rec("ID", "7", "NomeDealer", "Primeira"),
		rec("ID", "7", "NomeDealer", "Segunda"),
	})
	lead, ok := idx["7"]
	if !ok {
		t.Fatal("missing index entry")
	}
	if name, _ := schema.Dealer(lead, schema.KindLead); name != "Primeira" {
		t.Fatalf("duplicate id resolved to %q, want Primeira", name)
	}
}
