package models

import (
	"time"

	"github.com/dealerops/funnel-etl-go/internal/schema"
)

// Period is the observed date range of a snapshot: the min and max parsed
// transaction dates. Nil bounds mean no parseable dates were seen.
type Period struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Snapshot is one immutable collection of record sets plus derived metadata.
// Loads create the original snapshot for the session; every filter change
// derives a fresh one and never mutates the original.
type Snapshot struct {
	Leads       []schema.Record
	TestDrives  []schema.Record
	Journeys    []schema.Record
	Invoices    []schema.Record
	StoreVisits []schema.Record
	CustomerMix []schema.Record
	Surveys     []schema.Record

	Period  Period
	Dealers []string
}

// Set returns the record set for a kind.
func (s *Snapshot) Set(kind schema.Kind) []schema.Record {
	if ref := s.SetRef(kind); ref != nil {
		return *ref
	}
	return nil
}

// SetRef allows in-place assignment while building filtered snapshots.
func (s *Snapshot) SetRef(kind schema.Kind) *[]schema.Record {
	switch kind {
	case schema.KindLead:
		return &s.Leads
	case schema.KindTestDrive:
		return &s.TestDrives
	case schema.KindJourney:
		return &s.Journeys
	case schema.KindInvoice:
		return &s.Invoices
	case schema.KindStoreVisit:
		return &s.StoreVisits
	case schema.KindCustomerMix:
		return &s.CustomerMix
	case schema.KindSurvey:
		return &s.Surveys
	}
	return nil
}

// Kinds lists every logical set in source order.
var Kinds = []schema.Kind{
	schema.KindLead,
	schema.KindTestDrive,
	schema.KindJourney,
	schema.KindInvoice,
	schema.KindStoreVisit,
	schema.KindCustomerMix,
	schema.KindSurvey,
}

// Filter is the input contract for a filter pass. A nil bound is unbounded on
// that side; an empty dealer list means no dealer restriction.
type Filter struct {
	Start   *time.Time `json:"start"`
	End     *time.Time `json:"end"`
	Dealers []string   `json:"dealers"`
}

func (f Filter) HasDateRange() bool { return f.Start != nil || f.End != nil }
func (f Filter) HasDealers() bool   { return len(f.Dealers) > 0 }
func (f Filter) Empty() bool        { return !f.HasDateRange() && !f.HasDealers() }

// FunnelPair exposes the from/to counts of one conversion step.
type FunnelPair struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Rate is the pair's conversion percentage, 0 when the base is empty.
func (p FunnelPair) Rate() float64 {
	if p.From == 0 {
		return 0
	}
	return float64(p.To) / float64(p.From) * 100
}

// FunnelMetrics are the six named conversion funnels.
type FunnelMetrics struct {
	DirectLeads        FunnelPair `json:"leads_diretos"`
	LeadsWithTestDrive FunnelPair `json:"leads_com_test_drive"`
	TestDrivesInvoiced FunnelPair `json:"test_drives_vendidos"`
	FullJourney        FunnelPair `json:"jornada_completa"`
	VisitsToTestDrive  FunnelPair `json:"visitas_test_drive"`
	VisitsToInvoice    FunnelPair `json:"visitas_faturamento"`
}

// Metrics is the aggregate output contract consumed by the presentation
// layer. Averages are nil, not zero, when no record contributed.
type Metrics struct {
	Leads            int `json:"leads"`
	TestDrives       int `json:"test_drives"`
	Journeys         int `json:"jornada_completa"`
	Invoiced         int `json:"faturados"`
	StoreVisits      int `json:"visitas_lojas"`
	LeadsInvoiced    int `json:"leads_faturados"`
	LeadsTotalClosed int `json:"leads_faturados_total"`

	Funnel FunnelMetrics `json:"funnel"`

	AvgLeadToTestDrive    *float64 `json:"avg_lead_test_drive"`
	AvgTestDriveToInvoice *float64 `json:"avg_test_drive_faturamento"`
	AvgLeadToInvoice      *float64 `json:"avg_lead_faturamento"`
	AvgTotalJourney       *float64 `json:"avg_jornada_total"`

	DecidedQuicklyCount   int     `json:"leads_decididos"`
	DecidedQuicklyPercent float64 `json:"leads_decididos_pct"`

	PercentNew       float64 `json:"perc_novos"`
	PercentReturning float64 `json:"perc_antigos"`

	OSATCarHandover float64 `json:"osat_car_handover"`
	OSATTestDrive   float64 `json:"osat_test_drive"`
}

// DealerMetrics is one row of the dealer comparison.
type DealerMetrics struct {
	Dealer               string  `json:"dealer"`
	Leads                int     `json:"leads"`
	TestDrives           int     `json:"test_drives"`
	Sales                int     `json:"sales"`
	LeadsToTestDriveRate float64 `json:"leads_to_test_drive_rate"`
	TestDriveToSalesRate float64 `json:"test_drive_to_sales_rate"`
	TotalConversionRate  float64 `json:"total_conversion_rate"`
}

// DealerComparison holds the per-dealer rows plus the synthesized nationwide
// pseudo-dealer computed from dealer-weighted sums.
type DealerComparison struct {
	Dealers  []DealerMetrics `json:"dealers"`
	National DealerMetrics   `json:"national"`
}

// LoadPhase is the advisory status signal emitted during an API-mode load.
type LoadPhase string

const (
	PhaseLoading  LoadPhase = "loading"
	PhasePartial  LoadPhase = "partial"
	PhaseComplete LoadPhase = "complete"
)
