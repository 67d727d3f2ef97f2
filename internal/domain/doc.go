// Package domain models uploaded incident-report tables and the cleaning
// rules applied before rendering.
//
// # Data Source
//
// Tables arrive as user uploads (CSV or XLSX) with no fixed schema. Column
// roles (latitude, longitude, a numeric value, an optional rain flag) are
// chosen per request, so every cleaning rule operates on raw string cells.
//
// # Cell Conventions
//
// Numeric cells:
//
//	Uploads frequently use a comma decimal separator ("19,32" meaning 19.32),
//	so numeric coercion trims whitespace and rewrites "," to "." before
//	parsing. Cells that still fail to parse become NaN, the canonical
//	missing-value marker. Coercion never errors; bad cells degrade to NaN.
//
// Rain flag cells:
//
//	The rain flag is a categorical column marking rain-related reports. The
//	single affirmative token is "si" (case-insensitive, surrounding space
//	ignored). The tokens "no", "null", "none", "na", "nan", "false", "0",
//	"n" and the empty string are explicit negatives. Any other token is also
//	treated as negative; see [NormalizeRainFlag].
//
// Coordinates:
//
//	Latitude and longitude are WGS-84 decimal degrees. Rows whose coordinates
//	fail numeric coercion are removed before map rendering; a marker cannot
//	be placed without a location. The value column is softer: missing values
//	are either dropped or zero-filled per an explicit caller choice.
//
// # Marker Radius Scaling
//
// Map markers are sized by linear-scaling the value column into a configured
// [minR, maxR] pixel range. A constant column (max == min) cannot be scaled
// and every marker receives the configured default radius instead.
//
// # Default Map Center
//
// When a filtered table has no valid coordinates the map centers on Mexico
// City (19.4326, -99.1332), matching the origin of the incident reports this
// service was built for, rather than failing the render.
package domain
