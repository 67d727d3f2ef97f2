// Package ingest parses uploaded tabular and geospatial files into domain
// types, memoizing parses by content hash so re-uploading identical bytes
// skips the work.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/geo-dashboard-service/internal/domain"
)

// ParseTable decodes an uploaded tabular file by extension: ".csv" through
// encoding/csv, ".xlsx"/".xls" through excelize. Failures wrap
// domain.ErrBadUpload and abort only this upload.
func ParseTable(filename string, data []byte) (*domain.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(data)
	case ".xlsx", ".xls":
		return ParseXLSX(data)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", domain.ErrBadUpload, filepath.Ext(filename))
	}
}

// ParseCSV decodes CSV bytes; the first record is the header. Ragged rows
// are tolerated, short rows reading as empty cells downstream.
func ParseCSV(data []byte) (*domain.Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty csv", domain.ErrBadUpload)
		}
		return nil, fmt.Errorf("%w: csv header: %v", domain.ErrBadUpload, err)
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv row %d: %v", domain.ErrBadUpload, len(rows)+2, err)
		}
		rows = append(rows, rec)
	}

	return &domain.Table{Columns: header, Rows: rows}, nil
}

// ParseXLSX decodes the first sheet of a spreadsheet; the first row is the
// header.
func ParseXLSX(data []byte) (*domain.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", domain.ErrBadUpload, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: xlsx has no sheets", domain.ErrBadUpload)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx sheet %q: %v", domain.ErrBadUpload, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: xlsx sheet %q is empty", domain.ErrBadUpload, sheets[0])
	}

	return &domain.Table{Columns: rows[0], Rows: rows[1:]}, nil
}

// ParseGeoJSON decodes an uploaded boundary layer.
func ParseGeoJSON(data []byte) (*domain.Boundary, error) {
	return domain.ParseBoundary(data)
}
