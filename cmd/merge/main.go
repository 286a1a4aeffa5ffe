// Command merge combines a historical CSV and a forecast CSV into one source-tagged
// table and prints a summary.
//
// Usage:
//
//	go run ./cmd/merge \
//	  -historical data/silo_41529.csv \
//	  -forecast data/metno_toowoomba.csv \
//	  -out merged.parquet \
//	  -overlap prefer_historical -fill
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/harryeslick/weather-tools-sub000/internal/adapter/csvtable"
	"github.com/harryeslick/weather-tools-sub000/internal/adapter/parquet"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
)

type options struct {
	historical   string
	forecast     string
	out          string
	location     string
	overlap      string
	fillStrategy string
	fill         bool
	noValidate   bool
}

func main() {
	var o options
	flag.StringVar(&o.historical, "historical", "", "historical CSV (SILO layout)")
	flag.StringVar(&o.forecast, "forecast", "", "forecast CSV (met.no daily or canonical layout)")
	flag.StringVar(&o.out, "out", "", "output path; .parquet writes parquet, anything else CSV; empty writes CSV to stdout")
	flag.StringVar(&o.location, "location", "merged", "location name recorded in parquet output")
	flag.StringVar(&o.overlap, "overlap", string(domain.PreferHistorical), "overlap policy: prefer_historical, prefer_forecast or error")
	flag.StringVar(&o.fillStrategy, "fill-strategy", string(domain.FillDefault), "fill strategy: default, last_known or median")
	flag.BoolVar(&o.fill, "fill", false, "fill historical-only variables in forecast rows")
	flag.BoolVar(&o.noValidate, "no-validate", false, "skip compatibility checks")
	flag.Parse()

	if o.historical == "" || o.forecast == "" {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(o, os.Stdout, os.Stderr))
}

func run(o options, stdout, stderr io.Writer) int {
	policy, err := domain.ParseOverlapPolicy(o.overlap)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	hist, ignored, err := csvtable.ReadFile(o.historical)
	if err != nil {
		fmt.Fprintf(stderr, "error: load historical: %v\n", err)
		return 1
	}
	if len(ignored) > 0 {
		fmt.Fprintf(stderr, "historical: ignored columns %s\n", strings.Join(ignored, ", "))
	}
	fc, ignored, err := csvtable.ReadFile(o.forecast)
	if err != nil {
		fmt.Fprintf(stderr, "error: load forecast: %v\n", err)
		return 1
	}
	if len(ignored) > 0 {
		fmt.Fprintf(stderr, "forecast: ignored columns %s\n", strings.Join(ignored, ", "))
	}

	merged, err := domain.Merge(hist, fc, domain.Options{
		Validate:      !o.noValidate,
		FillMissing:   o.fill,
		FillStrategy:  domain.FillStrategy(o.fillStrategy),
		OverlapPolicy: policy,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if err := write(o, merged, stdout); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	summary, err := json.MarshalIndent(domain.Summarize(merged), "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "%s\n", summary)
	return 0
}

func write(o options, merged domain.Series, stdout io.Writer) error {
	switch {
	case o.out == "":
		return csvtable.Write(stdout, merged)
	case strings.EqualFold(filepath.Ext(o.out), ".parquet"):
		f, err := os.Create(o.out)
		if err != nil {
			return err
		}
		if err := parquet.Write(f, domain.Location{Name: o.location}, merged); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	default:
		return csvtable.WriteFile(o.out, merged)
	}
}
