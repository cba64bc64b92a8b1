package ingest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dealerops/funnel-etl-go/internal/schema"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func firstDealer(t *testing.T, rows []schema.Record) string {
	t.Helper()
	if len(rows) == 0 {
		t.Fatal("no rows decoded")
	}
	v, _ := rows[0].Get("Dealer")
	s, _ := v.(string)
	return s
}

func TestDecodeRecordsEnvelopeShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bare array", `[{"Dealer":"Loja Sul"}]`},
		{"resultsets", `{"ResultSets":{"Table1":[{"Dealer":"Loja Sul"}]}}`},
		{"data", `{"data":[{"Dealer":"Loja Sul"}]}`},
		{"result", `{"Result":[{"Dealer":"Loja Sul"}]}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rows := decodeRecords("sheet1", []byte(c.body), testLogger())
			if len(rows) != 1 || firstDealer(t, rows) != "Loja Sul" {
				t.Fatalf("rows = %v", rows)
			}
		})
	}
}

func TestDecodeRecordsEnvelopePrecedence(t *testing.T) {
	body := `{"ResultSets":{"Table1":[{"Dealer":"Primeiro"}]},"data":[{"Dealer":"Segundo"}]}`
	rows := decodeRecords("sheet1", []byte(body), testLogger())
	if firstDealer(t, rows) != "Primeiro" {
		t.Fatalf("ResultSets must win over data: %v", rows)
	}
}

func TestDecodeRecordsToleratesBadPayloads(t *testing.T) {
	for _, body := range []string{"", "   ", "<html>erro</html>", `{"unknown":true}`, `[{"broken"`} {
		if rows := decodeRecords("sheet1", []byte(body), testLogger()); len(rows) != 0 {
			t.Errorf("body %q decoded to %v, want empty", body, rows)
		}
	}
}

func TestResponseCacheFetchesOnce(t *testing.T) {
	calls := 0
	client := clientFunc(func(url string) (int, string) {
		calls++
		return 200, `[{"Dealer":"Loja Sul"}]`
	})

	cache := newResponseCache()
	for i := 0; i < 3; i++ {
		if _, err := cache.fetch(context.Background(), client, "sheet1", "http://upstream/s1"); err != nil {
			t.Fatalf("fetch: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("upstream called %d times, want 1", calls)
	}
}
