package domain

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb/geojson"
)

// Boundary is an uploaded GeoJSON boundary layer: named polygon features
// overlaid on the map. It is parsed once per upload and immutable afterward;
// the property acting as the human-readable region name is chosen at render
// time.
type Boundary struct {
	fc *geojson.FeatureCollection
}

// ParseBoundary decodes GeoJSON bytes into a Boundary. Parse failures wrap
// ErrBadUpload and abort only that upload.
func ParseBoundary(data []byte) (*Boundary, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: geojson: %v", ErrBadUpload, err)
	}
	return &Boundary{fc: fc}, nil
}

// NumFeatures returns the number of features in the layer.
func (b *Boundary) NumFeatures() int { return len(b.fc.Features) }

// PropertyKeys returns the sorted union of property names across features,
// the candidates for the region-name property.
func (b *Boundary) PropertyKeys() []string {
	seen := map[string]struct{}{}
	for _, f := range b.fc.Features {
		for k := range f.Properties {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegionNames returns the value of the given property for each feature,
// stringified; features lacking the property contribute an empty string.
func (b *Boundary) RegionNames(property string) []string {
	out := make([]string, len(b.fc.Features))
	for i, f := range b.fc.Features {
		if v, ok := f.Properties[property]; ok {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

// GeoJSON re-serializes the layer for embedding into rendered map HTML.
func (b *Boundary) GeoJSON() ([]byte, error) {
	data, err := b.fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal boundary: %w", err)
	}
	return data, nil
}
