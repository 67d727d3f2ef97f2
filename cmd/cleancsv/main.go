// Command cleancsv runs the dashboard's normalize/filter pass over a local
// CSV or XLSX file and writes the surviving rows as CSV, with coordinate and
// value columns coerced to dot-decimal numbers.
//
// Usage:
//
//	go run ./cmd/cleancsv \
//	  -in data/encharcamientos.csv \
//	  -out data/encharcamientos_clean.csv \
//	  -lat lat -lon lon -value profundidad \
//	  -rain lluvia -filter rain-only
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
	"github.com/couchcryptid/geo-dashboard-service/internal/ingest"
	"github.com/couchcryptid/geo-dashboard-service/internal/render"
)

func main() {
	if code := run(); code != 0 {
		os.Exit(code)
	}
}

func run() int {
	in := flag.String("in", "", "input CSV or XLSX file")
	out := flag.String("out", "", "output CSV file (default: stdout)")
	lat := flag.String("lat", "lat", "latitude column")
	lon := flag.String("lon", "lon", "longitude column")
	value := flag.String("value", "", "numeric value column")
	rain := flag.String("rain", "", "rain flag column (optional)")
	filter := flag.String("filter", "all", "row filter: all, rain-only, non-rain-only")
	missing := flag.String("missing", "drop", "missing value policy: drop, zero")
	flag.Parse()

	if *in == "" || *value == "" {
		flag.Usage()
		return 1
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		return 1
	}

	table, err := ingest.ParseTable(*in, data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse input: %v\n", err)
		return 1
	}

	mode, err := domain.ParseFilterMode(*filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	policy, err := domain.ParseMissingValuePolicy(*missing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	sel := domain.Selection{
		LatColumn:   *lat,
		LonColumn:   *lon,
		ValueColumn: *value,
		RainColumn:  *rain,
		FilterMode:  mode,
		Missing:     policy,
	}

	clean, err := domain.FilterRows(table, sel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "filter: %v\n", err)
		return 1
	}

	output, err := render.ExportCSV(clean, sel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		return 1
	}

	if *out == "" {
		os.Stdout.Write(output) //nolint:errcheck // stdout
	} else if err := os.WriteFile(*out, output, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}

	fmt.Fprintf(os.Stderr, "rows: %d in, %d out (%d dropped by filter, %d missing coordinates, %d missing values)\n",
		clean.Stats.Input, clean.Stats.Remaining,
		clean.Stats.DroppedByFilter, clean.Stats.DroppedNoCoords, clean.Stats.DroppedNoValue)
	if clean.Stats.UnknownRainTokens > 0 {
		fmt.Fprintf(os.Stderr, "%d unrecognized rain tokens treated as no-rain\n", clean.Stats.UnknownRainTokens)
	}
	return 0
}
