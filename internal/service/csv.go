package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names of the catalog CSV export.
const (
	ColAppID       = "AppID"
	ColName        = "Name"
	ColReleaseDate = "Release date"
	ColRequiredAge = "Required age"
	ColPrice       = "Price"
	ColDLCCount    = "DLC count"
	ColAbout       = "About the game"
	ColWindows     = "Windows"
	ColMac         = "Mac"
	ColLinux       = "Linux"
	ColPositive    = "Positive"
	ColNegative    = "Negative"
	ColScoreRank   = "Score rank"
	ColDevelopers  = "Developers"
	ColPublishers  = "Publishers"
	ColCategories  = "Categories"
	ColGenres      = "Genres"
	ColTags        = "Tags"
	ColLanguages   = "Supported languages"
)

// ErrMalformedCSV is returned when the body cannot be tokenized as CSV.
var ErrMalformedCSV = errors.New("malformed CSV")

// Row is one data row keyed by header name. Index is the 0-based position
// among data rows.
type Row struct {
	Index int
	cells map[string]*string
}

// NewRow builds a row from a column->value map; empty values are absent.
func NewRow(index int, values map[string]string) Row {
	cells := make(map[string]*string, len(values))
	for k, v := range values {
		if v == "" {
			continue
		}
		v := v
		cells[k] = &v
	}
	return Row{Index: index, cells: cells}
}

// Get returns the cell for column, or nil when absent.
func (r Row) Get(column string) *string {
	return r.cells[column]
}

// ParseCSV reads a header row followed by data rows. Every cell is
// optional text: empty cells, missing trailing cells and unknown columns
// are all treated as absent.
func ParseCSV(data []byte) ([]Row, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}

		cells := make(map[string]*string, len(header))
		for i, name := range header {
			if i >= len(record) || record[i] == "" || name == "" {
				continue
			}
			value := record[i]
			cells[name] = &value
		}
		rows = append(rows, Row{Index: len(rows), cells: cells})
	}
	return rows, nil
}
