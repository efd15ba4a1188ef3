package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/utkarsh5026/quadpool/quad"
)

// Report is the JSON document written by -report and -output-format json.
type Report struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Integrand   string        `json:"integrand"`
	Lower       float64       `json:"lower"`
	Upper       float64       `json:"upper"`
	Samples     int           `json:"samples"`
	Workers     int           `json:"workers"`
	Iterations  int           `json:"iterations"`
	Warmup      int           `json:"warmup"`
	Results     []ReportEntry `json:"results"`
}

// ReportEntry is one strategy's line in a Report. Value and AbsError are
// omitted when they are not finite.
type ReportEntry struct {
	Strategy  string   `json:"strategy"`
	Rank      int      `json:"rank,omitempty"`
	Success   bool     `json:"success"`
	Error     string   `json:"error,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	AbsError  *float64 `json:"abs_error,omitempty"`
	Speedup   float64  `json:"speedup,omitempty"`
	TimesNS   []int64  `json:"times_ns"`
	MedianNS  int64    `json:"median_ns"`
	MedianStr string   `json:"median"`
	MinStr    string   `json:"min"`
	MeanStr   string   `json:"mean"`
	MaxStr    string   `json:"max"`
	StdDevStr string   `json:"stddev"`
}

// NewReport builds a Report from finished results.
func NewReport(req quad.Request, flags *Flags, results []StrategyResult) Report {
	entries := make([]ReportEntry, len(results))
	for i, r := range results {
		times := make([]int64, len(r.Times))
		for j, t := range r.Times {
			times[j] = t.Nanoseconds()
		}

		e := ReportEntry{
			Strategy:  r.Strategy,
			Rank:      r.Rank,
			Success:   r.Success,
			Error:     r.ErrorMsg,
			Speedup:   r.Speedup,
			TimesNS:   times,
			MedianNS:  r.Stats.Median.Nanoseconds(),
			MedianStr: FormatDuration(r.Stats.Median),
			MinStr:    FormatDuration(r.Stats.Min),
			MeanStr:   FormatDuration(r.Stats.Mean),
			MaxStr:    FormatDuration(r.Stats.Max),
			StdDevStr: FormatDuration(r.Stats.StdDev),
		}
		if r.Success {
			e.Value = finite(r.Value)
			e.AbsError = finite(r.AbsError)
		}
		entries[i] = e
	}

	return Report{
		GeneratedAt: time.Now().UTC(),
		Integrand:   req.Integrand.Name,
		Lower:       req.Lower,
		Upper:       req.Upper,
		Samples:     req.Samples,
		Workers:     req.Workers,
		Iterations:  flags.Iterations,
		Warmup:      flags.Warmup,
		Results:     entries,
	}
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WriteJSON writes report to w as indented JSON.
func WriteJSON(w io.Writer, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteReportFile writes report to path, replacing any existing file.
func WriteReportFile(path string, report Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	if err := WriteJSON(f, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
