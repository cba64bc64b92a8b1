package metrics

import (
	"sort"

	"github.com/dealerops/funnel-etl-go/internal/dealers"
	"github.com/dealerops/funnel-etl-go/internal/filter"
	"github.com/dealerops/funnel-etl-go/internal/models"
	"github.com/dealerops/funnel-etl-go/internal/schema"
)

// NationalRowName labels the synthesized nationwide-average pseudo-dealer.
const NationalRowName = "Média BR"

type dealerAccum struct {
	leads              int
	testDrives         int
	sales              int
	leadsWithTestDrive int
	testDrivesInvoiced int
}

// CompareDealers re-aggregates per normalized dealer identity. The dealer
// predicate is forced empty so every dealer keeps its rows; the date range of
// the caller's filter still applies. The national row is computed from
// dealer-weighted sums so high-volume dealers dominate it, not from a simple
// mean of per-dealer rates.
func CompareDealers(orig *models.Snapshot, f models.Filter) models.DealerComparison {
	dateOnly := models.Filter{Start: f.Start, End: f.End}
	snap := filter.Apply(orig, dateOnly)

	catalog := dealers.NewCatalog()
	groups := make(map[string]*dealerAccum)
	group := func(name string) *dealerAccum {
		key := dealers.Normalize(name)
		if key == "" {
			return nil
		}
		catalog.Add(name)
		acc, ok := groups[key]
		if !ok {
			acc = &dealerAccum{}
			groups[key] = acc
		}
		return acc
	}

	for _, r := range snap.Leads {
		name, ok := schema.Dealer(r, schema.KindLead)
		if !ok {
			continue
		}
		acc := group(name)
		if acc == nil {
			continue
		}
		acc.leads++
		if schema.HasTestDrive(r) {
			acc.leadsWithTestDrive++
		}
		if schema.Invoiced(r) {
			acc.sales++
		}
	}

	for _, r := range snap.TestDrives {
		name, ok := schema.Dealer(r, schema.KindTestDrive)
		if !ok {
			continue
		}
		acc := group(name)
		if acc == nil {
			continue
		}
		acc.testDrives++
		if schema.Invoiced(r) {
			acc.testDrivesInvoiced++
		}
	}

	for _, r := range snap.Invoices {
		name, ok := schema.Dealer(r, schema.KindInvoice)
		if !ok {
			continue
		}
		if acc := group(name); acc != nil {
			acc.sales++
		}
	}

	rows := make([]models.DealerMetrics, 0, len(groups))
	var totals dealerAccum
	for key, acc := range groups {
		display, _ := catalog.Display(key)
		rows = append(rows, dealerRow(display, acc))
		totals.leads += acc.leads
		totals.testDrives += acc.testDrives
		totals.sales += acc.sales
		totals.leadsWithTestDrive += acc.leadsWithTestDrive
		totals.testDrivesInvoiced += acc.testDrivesInvoiced
	}

	// Default ordering: descending lead count; name breaks ties so the
	// output is reproducible.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Leads != rows[j].Leads {
			return rows[i].Leads > rows[j].Leads
		}
		return rows[i].Dealer < rows[j].Dealer
	})

	return models.DealerComparison{
		Dealers:  rows,
		National: dealerRow(NationalRowName, &totals),
	}
}

func dealerRow(name string, acc *dealerAccum) models.DealerMetrics {
	return models.DealerMetrics{
		Dealer:               name,
		Leads:                acc.leads,
		TestDrives:           acc.testDrives,
		Sales:                acc.sales,
		LeadsToTestDriveRate: pct(acc.leadsWithTestDrive, acc.leads),
		TestDriveToSalesRate: pct(acc.testDrivesInvoiced, acc.testDrives),
		TotalConversionRate:  pct(acc.sales, acc.leads),
	}
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
