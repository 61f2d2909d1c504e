// Package csvfile reads normalized signal rows from CSV files.
//
// This is plumbing only: cells travel as raw strings and all semantic
// validation (severity range, date parsing) happens in the import
// reconciler, so a malformed cell fails its row instead of the file.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/groupscholar/earlywarn/internal/domain/model"
)

// Column names expected in the header row. Order does not matter.
const (
	colFullName   = "full_name"
	colEmail      = "email"
	colCohort     = "cohort"
	colSignalType = "signal_type"
	colSeverity   = "severity"
	colNote       = "note"
	colOccurredAt = "occurred_at"
	colSourceKey  = "source_key"
)

var requiredColumns = []string{
	colFullName, colEmail, colCohort, colSignalType, colSeverity, colOccurredAt,
}

// ReadRows parses the file into signal rows. The header decides column
// positions; note and source_key are optional columns.
func ReadRows(path string) ([]model.SignalRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	// Short records surface as empty cells and fail row validation
	// downstream rather than aborting the whole file.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	cell := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]model.SignalRow, 0)
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, model.SignalRow{
			FullName:   cell(record, colFullName),
			Email:      cell(record, colEmail),
			Cohort:     cell(record, colCohort),
			SignalType: cell(record, colSignalType),
			Severity:   cell(record, colSeverity),
			Note:       cell(record, colNote),
			OccurredAt: cell(record, colOccurredAt),
			SourceKey:  cell(record, colSourceKey),
		})
	}
	return rows, nil
}
