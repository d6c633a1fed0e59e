package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// csvStrategy is one rung of the resilience ladder. Each rung either produces
// usable records or reports why it could not; the driver stops at the first
// success.
type csvStrategy struct {
	name  string
	parse func(data []byte) ([][]string, error)
}

var csvLadder = []csvStrategy{
	{name: "default", parse: parseCSVStrict},
	{name: "lenient", parse: parseCSVLenient},
	{name: "per-delimiter", parse: parseCSVPerDelimiter},
	{name: "split", parse: parseCSVSplit},
}

// readCSV walks the ladder in order: strict parse with a sniffed delimiter,
// lenient parse tolerating ragged and badly quoted rows, an explicit retry
// per delimiter candidate skipping malformed lines, and a last-resort
// line-split. Individual rung failures are only logged; the caller sees an
// error when every rung fails.
func readCSV(data []byte) (Table, error) {
	if !validEncoding(data) {
		return Table{}, fmt.Errorf("file is not valid UTF-8 — re-encode it as UTF-8 and try again")
	}

	for _, strategy := range csvLadder {
		records, err := strategy.parse(data)
		if err != nil {
			zap.S().Debugf("csv strategy %s failed: %v", strategy.name, err)
			continue
		}
		table, err := tableFromRecords(records)
		if err != nil {
			zap.S().Debugf("csv strategy %s produced unusable records: %v", strategy.name, err)
			continue
		}
		if strategy.name != "split" && len(table.Headers) < 2 {
			zap.S().Debugf("csv strategy %s yielded a single column, trying next", strategy.name)
			continue
		}
		return table, nil
	}

	return Table{}, fmt.Errorf("could not parse CSV with any delimiter — re-save the file as Excel (.xlsx) and try again")
}

func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	best := ','
	bestCount := 0
	for _, cand := range delimiterCandidates {
		count := bytes.Count(line, []byte(string(cand)))
		if count > bestCount {
			best = cand
			bestCount = count
		}
	}
	return best
}

func parseCSVStrict(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	return r.ReadAll()
}

func parseCSVLenient(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return padRecords(records), nil
}

// parseCSVPerDelimiter retries every delimiter candidate, parsing line by
// line so a single malformed row cannot sink the file.
func parseCSVPerDelimiter(data []byte) ([][]string, error) {
	lines := splitCSVLines(data)
	var lastErr error
	for _, delim := range delimiterCandidates {
		var records [][]string
		skipped := 0
		for _, line := range lines {
			r := csv.NewReader(strings.NewReader(line))
			r.Comma = delim
			r.LazyQuotes = true
			record, err := r.Read()
			if err != nil {
				skipped++
				continue
			}
			records = append(records, record)
		}
		if skipped > 0 {
			zap.S().Debugf("delimiter %q: skipped %d malformed lines", delim, skipped)
		}
		if len(records) >= 2 && len(records[0]) > 1 {
			return padRecords(records), nil
		}
		lastErr = fmt.Errorf("delimiter %q yielded %d usable rows", delim, len(records))
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no delimiter candidate produced rows")
	}
	return nil, lastErr
}

// parseCSVSplit treats the input as plain lines and splits each on the most
// frequent delimiter candidate.
func parseCSVSplit(data []byte) ([][]string, error) {
	lines := splitCSVLines(data)
	if len(lines) < 2 {
		return nil, fmt.Errorf("not enough lines for a header and data")
	}

	delim := sniffDelimiter(data)
	records := make([][]string, 0, len(lines))
	for _, line := range lines {
		records = append(records, strings.Split(line, string(delim)))
	}
	return padRecords(records), nil
}

func splitCSVLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
