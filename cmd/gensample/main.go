// Command gensample generates a sample flooding-report CSV and a matching
// GeoJSON boundary layer for local dashboard testing. The CSV deliberately
// mixes clean rows with the messy shapes the normalizer must handle:
// comma-decimal numbers, blank cells, and mixed-case rain flags.
//
// Usage:
//
//	go run ./cmd/gensample -csv-out data/sample.csv -geojson-out data/sample.geojson -rows 200
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

type zone struct {
	name string
	lat  float64
	lon  float64
}

// Zones around the default map center.
var zones = []zone{
	{"Del Valle", 19.386, -99.162},
	{"Roma Norte", 19.417, -99.160},
	{"Condesa", 19.411, -99.174},
	{"Polanco", 19.433, -99.199},
	{"Centro", 19.433, -99.133},
	{"Coyoacan", 19.350, -99.162},
}

var rainTokens = []string{"si", "SI", "Si", "no", "NO", "", "null"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "", "output path for the sample CSV")
	geojsonOut := flag.String("geojson-out", "", "output path for the sample GeoJSON")
	rows := flag.Int("rows", 200, "number of CSV rows to generate")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if *csvOut == "" || *geojsonOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -geojson-out")
	}

	rng := rand.New(rand.NewSource(*seed))

	if err := writeCSV(*csvOut, *rows, rng); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	log.Printf("%s: %d rows", *csvOut, *rows)

	if err := writeGeoJSON(*geojsonOut); err != nil {
		return fmt.Errorf("writing geojson: %w", err)
	}
	log.Printf("%s: %d features", *geojsonOut, len(zones))
	return nil
}

func writeCSV(path string, rows int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"lat", "lon", "profundidad_cm", "lluvia", "colonia"}); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		z := zones[rng.Intn(len(zones))]
		lat := z.lat + (rng.Float64()-0.5)*0.02
		lon := z.lon + (rng.Float64()-0.5)*0.02
		depth := 5 + rng.Float64()*75

		rec := []string{
			formatCoord(lat, i),
			formatCoord(lon, i+1),
			formatDepth(depth, i, rng),
			rainTokens[rng.Intn(len(rainTokens))],
			z.name,
		}
		// A few rows lose their coordinates, like real field captures do.
		if rng.Intn(25) == 0 {
			rec[0] = ""
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// formatCoord writes roughly a third of the coordinates with a comma decimal
// separator so the fixture exercises the coercion path.
func formatCoord(v float64, i int) string {
	s := strconv.FormatFloat(v, 'f', 5, 64)
	if i%3 == 0 {
		return strings.Replace(s, ".", ",", 1)
	}
	return s
}

func formatDepth(v float64, i int, rng *rand.Rand) string {
	if rng.Intn(20) == 0 {
		return "" // missing measurement
	}
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if i%4 == 0 {
		return strings.Replace(s, ".", ",", 1)
	}
	return s
}

// writeGeoJSON emits one square polygon per zone, centered on the zone and
// tagged with the property key the dashboard uses for region tooltips.
func writeGeoJSON(path string) error {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones {
		const d = 0.012
		ring := orb.Ring{
			{z.lon - d, z.lat - d},
			{z.lon + d, z.lat - d},
			{z.lon + d, z.lat + d},
			{z.lon - d, z.lat + d},
			{z.lon - d, z.lat - d},
		}
		feat := geojson.NewFeature(orb.Polygon{ring})
		feat.Properties["colonia"] = z.name
		fc.Append(feat)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}

	// Round-trip through the parser so a broken fixture fails here, not in
	// the dashboard.
	if _, err := domain.ParseBoundary(data); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
