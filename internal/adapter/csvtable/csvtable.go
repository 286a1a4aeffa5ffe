// Package csvtable reads and writes daily series as CSV.
package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/harryeslick/weather-tools-sub000/internal/domain"
)

// ErrEmpty is returned for input with no header row.
var ErrEmpty = errors.New("csv has no header")

// Read parses a CSV table with a header row. Unknown columns are skipped and returned
// as ignored.
func Read(r io.Reader) (domain.Series, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.Comment = '#'

	rows, err := cr.ReadAll()
	if err != nil {
		return domain.Series{}, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return domain.Series{}, nil, ErrEmpty
	}
	return domain.ParseTable(rows[0], rows[1:])
}

// ReadFile is Read on a file path.
func ReadFile(path string) (domain.Series, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Series{}, nil, err
	}
	defer f.Close()
	s, ignored, err := Read(f)
	if err != nil {
		return domain.Series{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, ignored, nil
}

// Write renders s with a header row. Null cells are empty.
func Write(w io.Writer, s domain.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(s.Records()); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}

// WriteFile is Write to a newly created file at path.
func WriteFile(path string, s domain.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, s); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
