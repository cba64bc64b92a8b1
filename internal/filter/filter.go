// Package filter derives filtered snapshots from the original load. It never
// mutates its input; every pass produces an independent snapshot with a
// recomputed observed period.
package filter

import (
	"time"

	"github.com/dealerops/funnel-etl-go/internal/correlate"
	"github.com/dealerops/funnel-etl-go/internal/dates"
	"github.com/dealerops/funnel-etl-go/internal/dealers"
	"github.com/dealerops/funnel-etl-go/internal/models"
	"github.com/dealerops/funnel-etl-go/internal/schema"
)

// Sets that lack their own dealer/date columns and join back to the lead set.
var correlatedKinds = map[schema.Kind]bool{
	schema.KindTestDrive: true,
	schema.KindJourney:   true,
}

// Apply filters every record set consistently under the date-range and
// dealer predicates. With no active predicate it still runs the enrichment
// pass over the correlated sets so downstream per-dealer breakdowns have
// dealer attribution.
func Apply(orig *models.Snapshot, f models.Filter) *models.Snapshot {
	idx := correlate.NewLeadIndex(orig.Leads)

	if f.Empty() {
		out := *orig
		out.TestDrives = correlate.EnrichAll(orig.TestDrives, schema.KindTestDrive, idx)
		out.Journeys = correlate.EnrichAll(orig.Journeys, schema.KindJourney, idx)
		return &out
	}

	selected := make(map[string]bool, len(f.Dealers))
	for _, d := range f.Dealers {
		if key := dealers.Normalize(d); key != "" {
			selected[key] = true
		}
	}

	out := &models.Snapshot{
		Period:  orig.Period,
		Dealers: orig.Dealers, // filters narrow data, not the catalog
	}
	for _, kind := range models.Kinds {
		src := orig.Set(kind)
		dst := out.SetRef(kind)
		*dst = filterSet(src, kind, f, selected, idx)
	}

	if start, end, ok := observedRange(out); ok {
		out.Period = models.Period{Start: &start, End: &end}
	}
	return out
}

func filterSet(rows []schema.Record, kind schema.Kind, f models.Filter, selected map[string]bool, idx correlate.LeadIndex) []schema.Record {
	out := make([]schema.Record, 0, len(rows))
	for _, row := range rows {
		r := row
		if correlatedKinds[kind] {
			r = correlate.Enrich(r, kind, idx)
		}
		if len(selected) > 0 && !dealerMatch(r, kind, selected) {
			continue
		}
		if f.HasDateRange() && !dateMatch(r, kind, f) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// dealerMatch requires a resolvable dealer whose canonical key is selected.
// A row with no dealer never survives an active dealer filter.
func dealerMatch(r schema.Record, kind schema.Kind, selected map[string]bool) bool {
	name, ok := schema.Dealer(r, kind)
	if !ok {
		return false
	}
	return selected[dealers.Normalize(name)]
}

// dateMatch requires a parseable date inside the inclusive range. Unbounded
// sides always pass; unparseable dates never do.
func dateMatch(r schema.Record, kind schema.Kind, f models.Filter) bool {
	raw, ok := schema.DateValue(r, kind)
	if !ok {
		return false
	}
	d, ok := dates.Parse(raw)
	if !ok {
		return false
	}
	if f.Start != nil && d.Before(*f.Start) {
		return false
	}
	if f.End != nil && d.After(*f.End) {
		return false
	}
	return true
}

// observedRange scans every surviving set for parseable dates and reports
// their min and max.
func observedRange(s *models.Snapshot) (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	for _, kind := range models.Kinds {
		for _, r := range s.Set(kind) {
			raw, ok := schema.DateValue(r, kind)
			if !ok {
				continue
			}
			d, ok := dates.Parse(raw)
			if !ok {
				continue
			}
			if !found || d.Before(start) {
				start = d
			}
			if !found || d.After(end) {
				end = d
			}
			found = true
		}
	}
	return start, end, found
}

// ObservedPeriod is the loader-side helper computing a fresh snapshot's
// period from its lead set.
func ObservedPeriod(leads []schema.Record) models.Period {
	var p models.Period
	for _, r := range leads {
		raw, ok := schema.DateValue(r, schema.KindLead)
		if !ok {
			continue
		}
		d, ok := dates.Parse(raw)
		if !ok {
			continue
		}
		if p.Start == nil || d.Before(*p.Start) {
			t := d
			p.Start = &t
		}
		if p.End == nil || d.After(*p.End) {
			t := d
			p.End = &t
		}
	}
	return p
}
