// Package correlate backfills dealer and transaction-date attributes onto
// rows that lack them, by joining their identifier against the lead set.
package correlate

import (
	"github.com/dealerops/funnel-etl-go/internal/schema"
)

// LeadIndex maps a lead identifier to its row. Built once per filter pass; a
// rebuild is always equivalent because the lead set is immutable.
type LeadIndex map[string]schema.Record

func NewLeadIndex(leads []schema.Record) LeadIndex {
	idx := make(LeadIndex, len(leads))
	for _, r := range leads {
		if id, ok := schema.Identifier(r); ok {
			if _, dup := idx[id]; !dup {
				idx[id] = r
			}
		}
	}
	return idx
}

// Needed reports whether a row is missing either attribute the lead set can
// supply.
func Needed(r schema.Record, kind schema.Kind) bool {
	if _, ok := schema.Dealer(r, kind); !ok {
		return true
	}
	if _, ok := schema.Resolve(r, schema.DateKeys); !ok {
		return true
	}
	return false
}

// Enrich copies the matched lead's dealer and date onto a shallow copy of the
// row, under the most current alias of each column. An unmatched identifier
// leaves the row as-is: downstream filters treat the absent attributes as
// grounds for exclusion, never for unconditional inclusion.
func Enrich(r schema.Record, kind schema.Kind, idx LeadIndex) schema.Record {
	if !Needed(r, kind) {
		return r
	}
	id, ok := schema.Identifier(r)
	if !ok {
		return r
	}
	lead, ok := idx[id]
	if !ok {
		return r
	}

	enriched := r.Clone()
	if dealer, ok := schema.Dealer(lead, schema.KindLead); ok {
		enriched.Set(schema.DealerKeys[0], dealer)
	}
	if date, ok := schema.Resolve(lead, schema.DateKeys); ok {
		enriched.Set(schema.DateKeys[0], date)
	}
	return enriched
}

// EnrichAll runs Enrich over a whole record set.
func EnrichAll(rows []schema.Record, kind schema.Kind, idx LeadIndex) []schema.Record {
	out := make([]schema.Record, len(rows))
	for i, r := range rows {
		out[i] = Enrich(r, kind, idx)
	}
	return out
}
