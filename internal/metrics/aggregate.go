// Package metrics turns a snapshot into the aggregate funnel, conversion and
// satisfaction figures. Aggregation is a pure function of the input sets:
// same snapshot, same numbers.
package metrics

import (
	"github.com/dealerops/funnel-etl-go/internal/models"
	"github.com/dealerops/funnel-etl-go/internal/schema"
)

// InvoiceCountMode resolves how the total-invoiced figure is derived when an
// explicit invoice set and per-row invoiced flags are both present. The
// upstream exports are inconsistent here, so the precedence is configuration,
// not a guess.
type InvoiceCountMode string

const (
	// ModePreferInvoices counts the explicit invoice set when it is
	// non-empty and falls back to the flag sum otherwise. Default.
	ModePreferInvoices InvoiceCountMode = "prefer-invoices"
	// ModeFlagSum always counts lead and test-drive invoiced flags and
	// ignores the invoice set size.
	ModeFlagSum InvoiceCountMode = "flag-sum"
)

// decidedQuicklyDays is the lead-to-invoice threshold for the
// "decided quickly" share.
const decidedQuicklyDays = 10

// Survey event buckets with dedicated satisfaction scores.
const (
	SurveyEventCarHandover = "Car Handover - New Car"
	SurveyEventTestDrive   = "Test Drive"
)

// Aggregate computes the full metrics contract for one snapshot. Every ratio
// guards its denominator; averages with no contributing records are nil.
func Aggregate(s *models.Snapshot, mode InvoiceCountMode) models.Metrics {
	m := models.Metrics{
		Leads:      len(s.Leads),
		TestDrives: len(s.TestDrives),
		Journeys:   len(s.Journeys),
	}

	var visits float64
	for _, r := range s.StoreVisits {
		if n, ok := schema.VisitCount(r); ok {
			visits += n
		}
	}
	m.StoreVisits = int(visits)

	var leadsWithTestDrive, leadsInvoiced, directLeads int
	for _, r := range s.Leads {
		invoiced := schema.Invoiced(r)
		testDrive := schema.HasTestDrive(r)
		if testDrive {
			leadsWithTestDrive++
		}
		if invoiced {
			leadsInvoiced++
		}
		if invoiced && !testDrive {
			directLeads++
		}
	}

	var testDrivesInvoiced int
	for _, r := range s.TestDrives {
		if schema.Invoiced(r) {
			testDrivesInvoiced++
		}
	}

	m.LeadsInvoiced = leadsInvoiced
	m.Invoiced = totalInvoiced(mode, len(s.Invoices), leadsInvoiced, testDrivesInvoiced)

	m.Funnel = models.FunnelMetrics{
		DirectLeads:        models.FunnelPair{From: m.Leads, To: directLeads},
		LeadsWithTestDrive: models.FunnelPair{From: m.Leads, To: leadsWithTestDrive},
		TestDrivesInvoiced: models.FunnelPair{From: m.TestDrives, To: testDrivesInvoiced},
		FullJourney:        models.FunnelPair{From: m.Leads, To: m.Journeys},
		VisitsToTestDrive:  models.FunnelPair{From: m.StoreVisits, To: m.TestDrives},
		VisitsToInvoice:    models.FunnelPair{From: m.StoreVisits, To: m.Invoiced},
	}

	var leadToTD, tdToInvoice, leadToInvoice, totalJourney accumulator
	for _, r := range s.Leads {
		leadToTD.add(schema.ElapsedDays(r, schema.DaysLeadToTestDriveKeys))
		leadToInvoice.add(schema.ElapsedDays(r, schema.DaysLeadToInvoiceKeys))
	}
	for _, r := range s.TestDrives {
		tdToInvoice.add(schema.ElapsedDays(r, schema.DaysTestDriveToInvoiceKeys))
	}
	for _, r := range s.Journeys {
		leadToTD.add(schema.ElapsedDays(r, schema.DaysLeadToTestDriveKeys))
		tdToInvoice.add(schema.ElapsedDays(r, schema.DaysTestDriveToInvoiceKeys))
		totalJourney.add(schema.ElapsedDays(r, schema.DaysLeadToInvoiceKeys))
	}
	m.AvgLeadToTestDrive = leadToTD.mean()
	m.AvgTestDriveToInvoice = tdToInvoice.mean()
	m.AvgLeadToInvoice = leadToInvoice.mean()
	m.AvgTotalJourney = totalJourney.mean()

	m.LeadsTotalClosed = leadsInvoiced + m.Journeys
	for _, set := range [][]schema.Record{s.Leads, s.Journeys} {
		for _, r := range set {
			if days, ok := schema.ElapsedDays(r, schema.DaysLeadToInvoiceKeys); ok && days <= decidedQuicklyDays {
				m.DecidedQuicklyCount++
			}
		}
	}
	if m.LeadsTotalClosed > 0 {
		m.DecidedQuicklyPercent = float64(m.DecidedQuicklyCount) / float64(m.LeadsTotalClosed) * 100
	}

	var newPct, returningPct accumulator
	for _, r := range s.CustomerMix {
		if v, ok := schema.Resolve(r, schema.PercNewKeys); ok {
			if n, ok := schema.Number(v); ok {
				newPct.add(n, true)
			}
		}
		if v, ok := schema.Resolve(r, schema.PercReturningKeys); ok {
			if n, ok := schema.Number(v); ok {
				returningPct.add(n, true)
			}
		}
	}
	m.PercentNew = newPct.meanOrZero()
	m.PercentReturning = returningPct.meanOrZero()

	m.OSATCarHandover, m.OSATTestDrive = weightedSatisfaction(s.Surveys)

	return m
}

func totalInvoiced(mode InvoiceCountMode, invoiceRows, leadsInvoiced, testDrivesInvoiced int) int {
	switch mode {
	case ModeFlagSum:
		return leadsInvoiced + testDrivesInvoiced
	default:
		if invoiceRows > 0 {
			return invoiceRows
		}
		return leadsInvoiced + testDrivesInvoiced
	}
}

// weightedSatisfaction computes the response-count-weighted mean score for
// the two tracked survey events. Rows missing a numeric score or count do not
// contribute.
func weightedSatisfaction(surveys []schema.Record) (carHandover, testDrive float64) {
	var handoverSum, handoverWeight, tdSum, tdWeight float64
	for _, r := range surveys {
		event, ok := schema.Resolve(r, schema.SurveyEventKeys)
		if !ok {
			continue
		}
		scoreVal, ok := schema.Resolve(r, schema.SurveyScoreKeys)
		if !ok {
			continue
		}
		score, ok := schema.Number(scoreVal)
		if !ok {
			continue
		}
		countVal, ok := schema.Resolve(r, schema.SurveyResponsesKeys)
		if !ok {
			continue
		}
		responses, ok := schema.Number(countVal)
		if !ok {
			continue
		}
		switch event {
		case SurveyEventCarHandover:
			handoverSum += score * responses
			handoverWeight += responses
		case SurveyEventTestDrive:
			tdSum += score * responses
			tdWeight += responses
		}
	}
	if handoverWeight > 0 {
		carHandover = handoverSum / handoverWeight
	}
	if tdWeight > 0 {
		testDrive = tdSum / tdWeight
	}
	return carHandover, testDrive
}

// accumulator tracks a running sum of valid contributions only.
type accumulator struct {
	sum float64
	n   int
}

func (a *accumulator) add(v float64, ok bool) {
	if !ok {
		return
	}
	a.sum += v
	a.n++
}

// mean is nil when nothing contributed, never 0 or NaN.
func (a accumulator) mean() *float64 {
	if a.n == 0 {
		return nil
	}
	v := a.sum / float64(a.n)
	return &v
}

func (a accumulator) meanOrZero() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}
