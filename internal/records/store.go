// Package records accumulates normalized bill records, deduplicates them by
// business key, and exports the result as a spreadsheet.
package records

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/billscan/internal/model"
	"github.com/sells-group/billscan/internal/stats"
)

// ErrNoRecords signals an export attempt on an empty store. Callers treat it
// as a "nothing to export" outcome, not a failure.
var ErrNoRecords = eris.New("records: nothing to export")

// sheetName is the single worksheet rows are written to.
const sheetName = "Bills"

// maxColWidth caps the cosmetic column auto-sizing.
const maxColWidth = 50

// Store collects records across all keywords in a run.
type Store struct {
	mu      sync.Mutex
	records []model.NormalizedRecord
	stats   *stats.Stats
}

// New creates an empty Store sharing the run's counters.
func New(st *stats.Stats) *Store {
	return &Store{stats: st}
}

// Add appends a record.
func (s *Store) Add(rec model.NormalizedRecord) {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
}

// Len returns the current record count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Dedupe collapses records sharing (state, bill number).
//
// Invariant: the last-seen record wins. Later-arriving segments tend to carry
// the more complete payload for a bill, so a re-extraction overwrites the
// earlier row in place.
func (s *Store) Dedupe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[model.RecordKey]int, len(s.records))
	unique := s.records[:0]
	removed := 0

	for _, rec := range s.records {
		key := rec.Key()
		if at, ok := index[key]; ok {
			unique[at] = rec
			removed++
			continue
		}
		index[key] = len(unique)
		unique = append(unique, rec)
	}

	s.records = unique
	s.stats.DuplicatesRemoved.Add(int64(removed))
}

// ExportXLSX writes every record to a single-sheet spreadsheet at path,
// creating missing parent directories. Returns ErrNoRecords when the store
// is empty.
func (s *Store) ExportXLSX(path string) error {
	s.mu.Lock()
	rows := make([]model.NormalizedRecord, len(s.records))
	copy(rows, s.records)
	s.mu.Unlock()

	if len(rows) == 0 {
		zap.L().Warn("no records to export")
		return ErrNoRecords
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "records: create output dir")
		}
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "records: add sheet")
	}

	header := sheet.AddRow()
	widths := make([]int, len(model.RecordColumns))
	for i, col := range model.RecordColumns {
		header.AddCell().SetString(col)
		widths[i] = len(col)
	}

	for _, rec := range rows {
		cells := recordCells(rec)
		row := sheet.AddRow()
		for i, val := range cells {
			row.AddCell().SetString(val)
			if len(val) > widths[i] {
				widths[i] = len(val)
			}
		}
	}

	// Cosmetic only: readable column widths, capped.
	for i, w := range widths {
		if w > maxColWidth {
			w = maxColWidth
		}
		sheet.SetColWidth(i, i, float64(w+2))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "records: save xlsx")
	}

	zap.L().Info("records exported", zap.Int("count", len(rows)), zap.String("path", path))
	return nil
}

// recordCells renders a record in RecordColumns order. Missing optional
// fields render as empty strings rather than erroring.
func recordCells(rec model.NormalizedRecord) []string {
	year := ""
	if rec.Year != 0 {
		year = fmt.Sprintf("%d", rec.Year)
	}
	return []string{
		year,
		rec.State,
		rec.BillNumber,
		rec.Title,
		rec.Summary,
		rec.Sponsors,
		rec.LastAction,
		rec.BillLink,
		rec.Status,
		rec.ExtractedAt,
	}
}

// Summary describes the collected records in one line for the final report.
func (s *Store) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return "No bills processed"
	}

	states := make(map[string]bool)
	years := make(map[int]bool)
	for _, r := range s.records {
		states[r.State] = true
		years[r.Year] = true
	}

	sortedYears := make([]int, 0, len(years))
	for y := range years {
		sortedYears = append(sortedYears, y)
	}
	sort.Ints(sortedYears)

	return fmt.Sprintf("Total Bills: %d | States: %d | Years: %v", len(s.records), len(states), sortedYears)
}
