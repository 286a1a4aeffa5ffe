// Command validate dry-runs a merge of a historical and a forecast CSV and reports
// every problem it finds, without writing any output. It exits non-zero when any
// phase fails.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -historical data/silo_41529.csv \
//	  -forecast data/metno_toowoomba.csv \
//	  -overlap error -max-gap 1
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harryeslick/weather-tools-sub000/internal/adapter/csvtable"
	"github.com/harryeslick/weather-tools-sub000/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	historical := flag.String("historical", "", "historical CSV (SILO layout)")
	forecast := flag.String("forecast", "", "forecast CSV (met.no daily or canonical layout)")
	overlap := flag.String("overlap", string(domain.OverlapError), "overlap policy to validate against")
	maxGap := flag.Int("max-gap", 1, "largest acceptable gap in days between the two series")
	flag.Parse()

	if *historical == "" || *forecast == "" {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(*historical, *forecast, *overlap, *maxGap, os.Stdout))
}

func run(historicalPath, forecastPath, overlap string, maxGap int, out io.Writer) int {
	fmt.Fprintln(out, "=== Merge Dry Run ===")
	fmt.Fprintln(out)

	policy, err := domain.ParseOverlapPolicy(overlap)
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 2
	}

	load := &phase{name: "Phase 1: Load inputs"}
	hist := loadSeries(load, "historical", historicalPath)
	fc := loadSeries(load, "forecast", forecastPath)
	if !load.passed() {
		report(out, []*phase{load})
		return 1
	}

	phases := []*phase{
		load,
		checkCompatibility(hist, fc, policy),
		checkContinuity(hist, fc, maxGap),
		checkAvailability(hist),
		dryRunMerge(hist, fc, policy),
	}
	if report(out, phases) {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func report(out io.Writer, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() && len(p.warnings) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
	}
	return allPassed
}

func loadSeries(p *phase, label, path string) domain.Series {
	s, ignored, err := csvtable.ReadFile(path)
	if err != nil {
		p.errorf("%s: %v", label, err)
		return domain.Series{}
	}
	if s.Len() == 0 {
		p.errorf("%s: no data rows in %s", label, path)
	}
	if len(ignored) > 0 {
		p.warnf("%s: ignored columns %s", label, strings.Join(ignored, ", "))
	}
	return s
}

// ── Phase 2: Schema and overlap ──

func checkCompatibility(hist, fc domain.Series, policy domain.OverlapPolicy) *phase {
	p := &phase{name: "Phase 2: Compatibility (" + string(policy) + ")"}
	if ok, violations := domain.CheckCompatibility(hist, fc, nil, policy); !ok {
		for _, v := range violations {
			p.errorf("%s", v)
		}
	}
	return p
}

// ── Phase 3: Continuity ──

func checkContinuity(hist, fc domain.Series, maxGap int) *phase {
	p := &phase{name: "Phase 3: Date continuity"}
	if ok, msg := domain.CheckDateContinuity(hist, fc, maxGap); !ok {
		p.errorf("%s", msg)
	}
	return p
}

// ── Phase 4: Variable coverage ──
// Historical columns must lie within each variable's coverage period.

func checkAvailability(hist domain.Series) *phase {
	p := &phase{name: "Phase 4: Variable coverage"}
	first, ok := hist.MinDate()
	if !ok {
		return p
	}
	for _, c := range hist.Columns {
		v, ok := domain.Resolve(c.String())
		if !ok {
			continue
		}
		if err := domain.CheckAvailability(v.Name, first.Year()); err != nil {
			p.errorf("%v", err)
		}
		if domain.IsHistoricalOnly(v.Name) {
			p.warnf("%s has no forecast equivalent; forecast rows will be null unless filled", v.Name)
		}
	}
	return p
}

// ── Phase 5: Merge ──

func dryRunMerge(hist, fc domain.Series, policy domain.OverlapPolicy) *phase {
	p := &phase{name: "Phase 5: Merge dry run"}
	opts := domain.DefaultOptions()
	opts.OverlapPolicy = policy

	merged, err := domain.Merge(hist, fc, opts)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	summary := domain.Summarize(merged)
	if summary.Err != nil {
		p.errorf("summary: %v", summary.Err)
		return p
	}
	if summary.HistoricalRecords+summary.ForecastRecords != summary.TotalRecords {
		p.errorf("record counts: %d historical + %d forecast != %d total",
			summary.HistoricalRecords, summary.ForecastRecords, summary.TotalRecords)
	}
	seen := make(map[string]bool, merged.Len())
	for i, row := range merged.Rows {
		date := row.Date.Format(domain.DateLayout)
		if seen[date] {
			p.errorf("duplicate date %s in merged output", date)
		}
		seen[date] = true
		if i > 0 && row.Date.Before(merged.Rows[i-1].Date) {
			p.errorf("rows out of order at %s", date)
		}
	}
	if summary.TransitionDate != nil {
		p.warnf("transition date %s; %d historical and %d forecast rows",
			summary.TransitionDate.Format(domain.DateLayout), summary.HistoricalRecords, summary.ForecastRecords)
	}
	return p
}
