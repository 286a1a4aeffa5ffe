// Package parquet exports merged series as Snappy-compressed parquet files.
package parquet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harryeslick/weather-tools-sub000/internal/domain"
	pq "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// Write encodes s for loc to w.
func Write(w io.Writer, loc domain.Location, s domain.Series) error {
	var buf bytes.Buffer
	pw, err := writer.NewParquetWriterFromWriter(&buf, new(Record), 1)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = pq.CompressionCodec_SNAPPY

	for _, row := range s.Rows {
		if err := pw.Write(newRecord(loc, s.Columns, row)); err != nil {
			return fmt.Errorf("write parquet row %s: %w", row.Date.Format(domain.DateLayout), err)
		}
	}
	if err := writeStop(pw); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write parquet output: %w", err)
	}
	return nil
}

// writeStop flushes the footer. The library can panic on malformed schemas.
func writeStop(pw *writer.ParquetWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stop parquet writer: panic: %v", r)
		}
	}()
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("stop parquet writer: %w", err)
	}
	return nil
}

// Exporter writes one file per location and run into a directory.
// It implements pipeline.Exporter.
type Exporter struct {
	dir    string
	logger *slog.Logger
}

// NewExporter creates an exporter rooted at dir. The directory is created on first
// export.
func NewExporter(dir string, logger *slog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// Export writes s to <dir>/<location>_<first>_<last>.parquet and returns the path.
func (e *Exporter) Export(loc domain.Location, s domain.Series) (string, error) {
	first, ok := s.MinDate()
	if !ok {
		return "", errors.New("export: series has no dated rows")
	}
	last, _ := s.MaxDate()

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s.parquet", slug(loc.Name),
		first.Format("20060102"), last.Format("20060102"))
	path := filepath.Join(e.dir, name)

	// Write to a temp file and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(e.dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, loc, s); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename export file: %w", err)
	}
	e.logger.Info("merged series exported", "location", loc.Key(), "path", path, "rows", s.Len())
	return path, nil
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "location"
	}
	return b.String()
}
