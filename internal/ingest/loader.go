// Package ingest obtains the raw record sets, either by fetching the
// configured JSON endpoints or by parsing an uploaded workbook, and derives
// the session's original snapshot.
package ingest

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dealerops/funnel-etl-go/internal/config"
	"github.com/dealerops/funnel-etl-go/internal/dealers"
	"github.com/dealerops/funnel-etl-go/internal/filter"
	"github.com/dealerops/funnel-etl-go/internal/models"
	"github.com/dealerops/funnel-etl-go/internal/schema"
)

// StatusFunc receives the advisory loading → partial → complete phases of an
// API-mode load. It is UI state, not a correctness signal.
type StatusFunc func(models.LoadPhase)

type Loader struct {
	client HTTPClient
	cfg    config.Config
	log    *slog.Logger
}

func NewLoader(client HTTPClient, cfg config.Config, log *slog.Logger) *Loader {
	return &Loader{client: client, cfg: cfg, log: log}
}

type endpoint struct {
	kind     schema.Kind
	name     string
	url      string
	required bool
}

func (l *Loader) endpoints() []endpoint {
	return []endpoint{
		{schema.KindLead, "sheet1", l.cfg.Sheet1URL, true},
		{schema.KindTestDrive, "sheet2", l.cfg.Sheet2URL, true},
		{schema.KindJourney, "sheet3", l.cfg.Sheet3URL, true},
		{schema.KindInvoice, "sheet4", l.cfg.Sheet4URL, true},
		{schema.KindCustomerMix, "sheet6", l.cfg.Sheet6URL, false},
		{schema.KindSurvey, "sheet7", l.cfg.Sheet7URL, false},
	}
}

// LoadFromAPI fetches every configured record set concurrently and joins the
// results before proceeding. A failure of any single fetch aborts the whole
// load; there is no degraded partial dataset surfaced as success. The
// response cache lives for exactly this one call.
func (l *Loader) LoadFromAPI(ctx context.Context, onStatus StatusFunc) (*models.Snapshot, error) {
	notify := func(p models.LoadPhase) {
		if onStatus != nil {
			onStatus(p)
		}
	}
	notify(models.PhaseLoading)

	cache := newResponseCache()
	eps := l.endpoints()
	results := make([][]schema.Record, len(eps))

	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range eps {
		if !ep.required && ep.url == "" {
			continue
		}
		i, ep := i, ep
		g.Go(func() error {
			body, err := cache.fetch(gctx, l.client, ep.name, ep.url)
			if err != nil {
				return err
			}
			results[i] = decodeRecords(ep.name, body, l.log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &models.Snapshot{}
	for i, ep := range eps {
		*snap.SetRef(ep.kind) = results[i]
	}

	if l.cfg.StoreVisitsFile != "" {
		visits, err := ReadStoreVisits(l.cfg.StoreVisitsFile)
		if err != nil {
			return nil, err
		}
		snap.StoreVisits = visits
	}

	notify(models.PhasePartial)
	finalize(snap)
	notify(models.PhaseComplete)

	l.log.Info("api load complete",
		slog.Int("leads", len(snap.Leads)),
		slog.Int("test_drives", len(snap.TestDrives)),
		slog.Int("journeys", len(snap.Journeys)),
		slog.Int("invoices", len(snap.Invoices)),
		slog.Int("store_visits", len(snap.StoreVisits)),
		slog.Int("dealers", len(snap.Dealers)))
	return snap, nil
}

// finalize derives the metadata every fresh snapshot carries: the observed
// period from lead dates and the deduplicated dealer catalog.
func finalize(snap *models.Snapshot) {
	snap.Period = filter.ObservedPeriod(snap.Leads)
	snap.Dealers = dealers.Extract(snap.Leads, snap.TestDrives, snap.Journeys, snap.Invoices).Names()
}
