package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/dealerops/funnel-etl-go/internal/config"
	"github.com/dealerops/funnel-etl-go/internal/models"
)

func newUpstream(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestLoadFromAPI(t *testing.T) {
	srv := newUpstream(t, map[string]http.HandlerFunc{
		"/s1": jsonBody(`[
			{"ID":"1","NomeDealer":"Loja Sul (462011)","dateSales":"10/03/2024","Flag_TestDrive":1,"Flag_Faturado":1},
			{"ID":"2","NomeDealer":"Loja Norte","dateSales":"20/03/2024","Flag_TestDrive":0,"Flag_Faturado":0}
		]`),
		"/s2": jsonBody(`{"ResultSets":{"Table1":[{"ID":"1","Modelo":"Hatch"}]}}`),
		"/s3": jsonBody(`{"data":[{"ID":"1","Dealer":"Loja Sul","Data":"12/03/2024"}]}`),
		"/s4": jsonBody(`{"Result":[{"NF":"55","c2":"x","c3":"y","Data":"11/03/2024"}]}`),
	})

	cfg := config.Config{
		Sheet1URL: srv.URL + "/s1",
		Sheet2URL: srv.URL + "/s2",
		Sheet3URL: srv.URL + "/s3",
		Sheet4URL: srv.URL + "/s4",
	}
	loader := NewLoader(NewHTTPClient(5*time.Second), cfg, testLogger())

	var phases []models.LoadPhase
	snap, err := loader.LoadFromAPI(context.Background(), func(p models.LoadPhase) {
		phases = append(phases, p)
	})
	if err != nil {
		t.Fatalf("LoadFromAPI: %v", err)
	}

	if len(snap.Leads) != 2 || len(snap.TestDrives) != 1 || len(snap.Journeys) != 1 || len(snap.Invoices) != 1 {
		t.Fatalf("set sizes = %d/%d/%d/%d",
			len(snap.Leads), len(snap.TestDrives), len(snap.Journeys), len(snap.Invoices))
	}

	wantPhases := []models.LoadPhase{models.PhaseLoading, models.PhasePartial, models.PhaseComplete}
	if !reflect.DeepEqual(phases, wantPhases) {
		t.Fatalf("phases = %v, want %v", phases, wantPhases)
	}

	// Metadata derives during finalization.
	if snap.Period.Start == nil || !snap.Period.Start.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("period start = %v", snap.Period.Start)
	}
	// The journey's "Loja Sul" collapses into the lead's first-seen spelling.
	wantDealers := []string{"Loja Norte", "Loja Sul (462011)"}
	if !reflect.DeepEqual(snap.Dealers, wantDealers) {
		t.Fatalf("dealers = %v, want %v", snap.Dealers, wantDealers)
	}
}

func TestLoadFromAPISkipsUnconfiguredOptionalSheets(t *testing.T) {
	srv := newUpstream(t, map[string]http.HandlerFunc{
		"/s1": jsonBody(`[{"ID":"1","NomeDealer":"Loja Sul","dateSales":"10/03/2024"}]`),
		"/s2": jsonBody(`[]`),
		"/s3": jsonBody(`[]`),
		"/s4": jsonBody(`[]`),
	})
	cfg := config.Config{
		Sheet1URL: srv.URL + "/s1",
		Sheet2URL: srv.URL + "/s2",
		Sheet3URL: srv.URL + "/s3",
		Sheet4URL: srv.URL + "/s4",
		// Sheet6URL and Sheet7URL deliberately unset.
	}
	loader := NewLoader(NewHTTPClient(5*time.Second), cfg, testLogger())

	snap, err := loader.LoadFromAPI(context.Background(), nil)
	if err != nil {
		t.Fatalf("LoadFromAPI: %v", err)
	}
	if len(snap.CustomerMix) != 0 || len(snap.Surveys) != 0 {
		t.Fatal("optional sheets should be empty when unconfigured")
	}
}

func TestLoadFromAPIFailsWhenAnyRequiredFetchFails(t *testing.T) {
	srv := newUpstream(t, map[string]http.HandlerFunc{
		"/s1": jsonBody(`[{"ID":"1"}]`),
		"/s2": jsonBody(`[]`),
		"/s3": jsonBody(`[]`),
		"/s4": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		},
	})
	cfg := config.Config{
		Sheet1URL: srv.URL + "/s1",
		Sheet2URL: srv.URL + "/s2",
		Sheet3URL: srv.URL + "/s3",
		Sheet4URL: srv.URL + "/s4",
	}
	loader := NewLoader(NewHTTPClient(5*time.Second), cfg, testLogger())

	_, err := loader.LoadFromAPI(context.Background(), nil)
	var fe *UpstreamFetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want UpstreamFetchError", err)
	}
	if fe.Endpoint != "sheet4" || fe.Status != 404 {
		t.Fatalf("error = %v", fe)
	}
}

func TestLoadFromAPIRequiredSheetMissingURL(t *testing.T) {
	loader := NewLoader(NewHTTPClient(time.Second), config.Config{}, testLogger())
	_, err := loader.LoadFromAPI(context.Background(), nil)
	if !errors.Is(err, errNotConfigured) {
		t.Fatalf("error = %v, want not-configured", err)
	}
}
