// Package tsv turns an uploaded file's raw bytes into an ordered
// sequence of header-keyed row maps, the shape every ingestion
// pipeline in internal/ingest consumes. There is no TSV/CSV library
// anywhere in the example corpus this service is grounded on, so
// parsing is hand-rolled over bufio.Scanner rather than reached for
// encoding/csv with a tab delimiter, which trips on the bare tabs and
// unquoted fields this format actually uses (see DESIGN.md).
package tsv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// MaxDataRows is the hard cap on rows in one file (§4.4).
const MaxDataRows = 500_000

// HeaderMismatchErr is returned when the first non-empty line does not
// equal the expected header list, tab-split, exact case and order.
type HeaderMismatchErr struct {
	Expected []string
	Actual   []string
}

func (e *HeaderMismatchErr) Error() string {
	return fmt.Sprintf("tsv: header mismatch: expected %v, got %v", e.Expected, e.Actual)
}

// ErrFileTooLarge is returned once the data-row count exceeds MaxDataRows.
var ErrFileTooLarge = errors.New("tsv: file exceeds maximum row count")

// ErrEmptyFile is returned when the input has no non-empty lines at all.
var ErrEmptyFile = errors.New("tsv: file is empty")

// Row is one data row: header name to cell value, plus its 1-based
// row number (2 for the first data row, header occupies row 1). Blank
// lines are not counted, so Number can differ from the file line number.
type Row struct {
	Number int
	Values map[string]string
}

// Parse reads data tab-separated by expectedHeaders. Each cell is
// trimmed and lower-cased before being placed in the row map; callers
// that need case-preserving lookup keys re-normalise as required
// (ingestion upper-cases natural keys before validation, see
// SPEC_FULL.md §13.2).
func Parse(data []byte, expectedHeaders []string) ([]Row, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var headerLine string
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		headerLine = line
		found = true
		break
	}
	if !found {
		return nil, ErrEmptyFile
	}

	actual := strings.Split(headerLine, "\t")
	for i := range actual {
		actual[i] = strings.TrimSpace(actual[i])
	}
	if !headersEqual(expectedHeaders, actual) {
		return nil, &HeaderMismatchErr{Expected: expectedHeaders, Actual: actual}
	}

	var rows []Row
	rowNumber := 1 // header consumed row 1
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rowNumber++
		if len(rows) >= MaxDataRows {
			return nil, ErrFileTooLarge
		}

		cells := strings.Split(line, "\t")
		values := make(map[string]string, len(expectedHeaders))
		for i, header := range expectedHeaders {
			if i < len(cells) {
				values[header] = normalise(cells[i])
			} else {
				values[header] = ""
			}
		}
		rows = append(rows, Row{Number: rowNumber, Values: values})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tsv: scan failed: %w", err)
	}

	return rows, nil
}

func normalise(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

func headersEqual(expected, actual []string) bool {
	if len(expected) != len(actual) {
		return false
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return false
		}
	}
	return true
}
