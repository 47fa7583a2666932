// Package intake parses batch analysis target lists from CSV files.
package intake

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// Target is one website queued for analysis.
type Target struct {
	Name string
	URL  string
}

// LoadTargets reads a CSV file of analysis targets. The file has either a
// single url column or name,url columns; a header row is detected and
// skipped when the first row's url column is not a URL.
func LoadTargets(path string) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "intake: open csv")
	}
	defer f.Close()

	targets, err := parseTargets(f)
	if err != nil {
		return nil, err
	}
	return targets, nil
}

func parseTargets(r io.Reader) ([]Target, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.TrimLeadingSpace = true

	var targets []Target
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return targets, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "intake: read csv row")
		}

		t, ok := recordToTarget(record)
		if !ok {
			if first {
				// Header row.
				first = false
				continue
			}
			return nil, eris.Errorf("intake: row %d has no URL", len(targets)+1)
		}
		first = false
		targets = append(targets, t)
	}
}

// recordToTarget maps a CSV record onto a Target. Single-column rows are
// bare URLs; two-column rows are name,url.
func recordToTarget(record []string) (Target, bool) {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	var t Target
	switch {
	case len(record) == 1:
		t.URL = record[0]
	case len(record) >= 2:
		t.Name = record[0]
		t.URL = record[1]
	default:
		return Target{}, false
	}

	if !strings.HasPrefix(t.URL, "http://") && !strings.HasPrefix(t.URL, "https://") {
		return Target{}, false
	}
	return t, true
}
