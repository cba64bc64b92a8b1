package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dealerops/funnel-etl-go/internal/models"
	"github.com/dealerops/funnel-etl-go/internal/schema"
)

// Sheet order is semantically significant: each sheet maps positionally to
// one logical record set.
const (
	minSheets = 3
	maxSheets = 7
)

// LoadWorkbook parses a binary workbook into the original snapshot.
// Returns a SchemaError when fewer than three sheets exist or the primary
// (lead) sheet has no rows.
func LoadWorkbook(r io.Reader) (*models.Snapshot, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &SchemaError{Reason: fmt.Sprintf("cannot open workbook: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) < minSheets {
		return nil, &SchemaError{Reason: fmt.Sprintf("workbook has %d sheets, at least %d are required", len(sheets), minSheets)}
	}

	snap := &models.Snapshot{}
	for i, kind := range models.Kinds {
		if i >= len(sheets) || i >= maxSheets {
			break
		}
		rows, err := f.GetRows(sheets[i])
		if err != nil {
			return nil, &SchemaError{Reason: fmt.Sprintf("cannot read sheet %q: %v", sheets[i], err)}
		}
		*snap.SetRef(kind) = rowsToRecords(rows)
	}

	if len(snap.Leads) == 0 {
		return nil, &SchemaError{Reason: "primary sheet has no data rows"}
	}

	finalize(snap)
	return snap, nil
}

// ReadStoreVisits reads the first sheet of a ranking workbook as the
// store-visit record set.
func ReadStoreVisits(path string) ([]schema.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("store visits file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("store visits file: %w", err)
	}
	return rowsToRecords(rows), nil
}

// rowsToRecords maps a sheet to records: the first row supplies the column
// keys, blank cells are dropped (so positional access sees only populated
// columns, matching the upstream exports), and fully blank rows are skipped.
func rowsToRecords(rows [][]string) []schema.Record {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	out := make([]schema.Record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		rec := schema.NewRecord()
		for j, cell := range cells {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			key := ""
			if j < len(header) {
				key = strings.TrimSpace(header[j])
			}
			if key == "" {
				key = fmt.Sprintf("col_%d", j+1)
			}
			rec.Set(key, cell)
		}
		if rec.Len() > 0 {
			out = append(out, rec)
		}
	}
	return out
}
