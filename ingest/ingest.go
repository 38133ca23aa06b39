// Package ingest parses delimited two-column numeric text into raw
// spectrum samples.
//
// The delimiter is sniffed per line among tab, semicolon, comma and runs
// of spaces; comment lines (#) and non-numeric header rows are skipped.
// Anything beyond delimiter sniffing — spreadsheets, format
// auto-detection — is the host's concern.
package ingest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-mossbauer/spectrum"
)

// ErrNoData reports input with no parsable two-column numeric rows.
var ErrNoData = errors.New("ingest: no two-column numeric data found")

// maxHeaderLines bounds how many leading non-numeric lines are tolerated
// before the input is rejected.
const maxHeaderLines = 16

// Parse reads (velocity, signal) pairs from delimited text.
func Parse(r io.Reader) ([]spectrum.Sample, error) {
	var (
		samples []spectrum.Sample
		skipped int
	)

	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		velocity, signal, ok := parseLine(line)
		if !ok {
			// Tolerate a header block, nothing more.
			if len(samples) == 0 {
				skipped++
				if skipped > maxHeaderLines {
					return nil, fmt.Errorf("%w: %d leading non-numeric lines", ErrNoData, skipped)
				}

				continue
			}

			return nil, fmt.Errorf("ingest: malformed row %q after %d samples", line, len(samples))
		}

		samples = append(samples, spectrum.Sample{Velocity: velocity, Signal: signal})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	if len(samples) == 0 {
		return nil, ErrNoData
	}

	return samples, nil
}

// parseLine splits one row on the first delimiter that yields at least two
// numeric fields. Extra columns are ignored.
func parseLine(line string) (velocity, signal float64, ok bool) {
	for _, split := range [](func(string) []string){
		func(s string) []string { return strings.Split(s, "\t") },
		func(s string) []string { return strings.Split(s, ";") },
		func(s string) []string { return strings.Split(s, ",") },
		strings.Fields,
	} {
		fields := split(line)
		if len(fields) < 2 {
			continue
		}

		v, err1 := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		s, err2 := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)

		if err1 == nil && err2 == nil {
			return v, s, true
		}
	}

	return 0, 0, false
}
