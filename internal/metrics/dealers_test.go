package metrics

import (
	"testing"
	"time"

	"github.com/dealerops/funnel-etl-go/internal/models"
	"github.com/dealerops/funnel-etl-go/internal/schema"
)

func dealerLead(dealer string, date string, testDrive, invoiced any) schema.Record {
	return rec("NomeDealer", dealer, "dateSales", date,
		"Flag_TestDrive", testDrive, "Flag_Faturado", invoiced)
}

func TestCompareDealersWeightedNational(t *testing.T) {
	s := &models.Snapshot{Leads: []schema.Record{}}

	// Loja Grande: 100 leads, 50 with test drive. Loja Pequena: 10 leads, 8
	// with test drive. A naive mean of the per-dealer rates would be 65%; the
	// weighted national rate is 58/110.
	for i := 0; i < 100; i++ {
		td := 0.0
		if i < 50 {
			td = 1.0
		}
		s.Leads = append(s.Leads, dealerLead("Loja Grande", "10/03/2024", td, 0.0))
	}
	for i := 0; i < 10; i++ {
		td := 0.0
		if i < 8 {
			td = 1.0
		}
		s.Leads = append(s.Leads, dealerLead("Loja Pequena", "10/03/2024", td, 0.0))
	}

	cmp := CompareDealers(s, models.Filter{})

	if len(cmp.Dealers) != 2 {
		t.Fatalf("dealers = %d, want 2", len(cmp.Dealers))
	}
	// Descending lead count.
	if cmp.Dealers[0].Dealer != "Loja Grande" || cmp.Dealers[0].Leads != 100 {
		t.Fatalf("first row = %+v", cmp.Dealers[0])
	}
	if cmp.Dealers[1].Dealer != "Loja Pequena" || cmp.Dealers[1].Leads != 10 {
		t.Fatalf("second row = %+v", cmp.Dealers[1])
	}

	nat := cmp.National
	if nat.Dealer != NationalRowName {
		t.Fatalf("national row name = %q", nat.Dealer)
	}
	if nat.Leads != 110 {
		t.Fatalf("national leads = %d, want 110", nat.Leads)
	}
	want := 58.0 / 110.0 * 100
	if !almost(nat.LeadsToTestDriveRate, want) {
		t.Fatalf("national rate = %v, want %v (weighted, not mean of rates)", nat.LeadsToTestDriveRate, want)
	}
}

func TestCompareDealersMergesSpellingVariants(t *testing.T) {
	s := &models.Snapshot{
		Leads: []schema.Record{
			dealerLead("Loja Sul (462011)", "10/03/2024", 1.0, 1.0),
			dealerLead("LOJA SUL", "11/03/2024", 0.0, 0.0),
			dealerLead("loja sul", "12/03/2024", 0.0, 1.0),
		},
	}
	cmp := CompareDealers(s, models.Filter{})

	if len(cmp.Dealers) != 1 {
		t.Fatalf("dealers = %v, want one merged identity", cmp.Dealers)
	}
	row := cmp.Dealers[0]
	if row.Dealer != "Loja Sul (462011)" {
		t.Fatalf("display name = %q, want first-seen spelling", row.Dealer)
	}
	if row.Leads != 3 || row.Sales != 2 {
		t.Fatalf("row = %+v", row)
	}
}

func TestCompareDealersIgnoresDealerPredicate(t *testing.T) {
	s := &models.Snapshot{
		Leads: []schema.Record{
			dealerLead("Loja Sul", "10/03/2024", 0.0, 0.0),
			dealerLead("Loja Norte", "10/03/2024", 0.0, 0.0),
			dealerLead("Loja Sul", "10/05/2024", 0.0, 0.0),
		},
	}
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	f := models.Filter{End: &end, Dealers: []string{"Loja Sul"}}
	cmp := CompareDealers(s, f)

	// The dealer predicate is dropped; the date range still applies, so the
	// May lead is gone but both dealers remain.
	if len(cmp.Dealers) != 2 {
		t.Fatalf("dealers = %d, want 2", len(cmp.Dealers))
	}
	if cmp.National.Leads != 2 {
		t.Fatalf("national leads = %d, want 2", cmp.National.Leads)
	}
}

func TestCompareDealersCountsInvoiceRowsAsSales(t *testing.T) {
	s := &models.Snapshot{
		Leads: []schema.Record{dealerLead("Loja Sul", "10/03/2024", 0.0, 0.0)},
		Invoices: []schema.Record{
			rec("c1", "a", "c2", "b", "c3", "c", "c4", "11/03/2024", "c5", "x", "c6", "Loja Sul"),
		},
	}
	cmp := CompareDealers(s, models.Filter{})
	if len(cmp.Dealers) != 1 || cmp.Dealers[0].Sales != 1 {
		t.Fatalf("rows = %+v", cmp.Dealers)
	}
}
