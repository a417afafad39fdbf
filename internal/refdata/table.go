package refdata

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

const byteOrderMark = "\uFEFF"

// Row is one parsed table line keyed by its trimmed header token
type Row map[string]string

// Get returns the value for key, or "" when the column is absent
func (r Row) Get(key string) string {
	return r[key]
}

// TableShape describes the columns a table must carry and how its lines split
type TableShape struct {
	Name     string
	Required []string
	// Quoted enables quote-wrapped fields that may contain the delimiter.
	Quoted bool
}

// CatalogShape is the product catalog table
var CatalogShape = TableShape{
	Name:     "catalog",
	Required: []string{"productcd", "p_fullname", "price", "status", "group"},
	Quoted:   true,
}

// RateTableShape is the shipping-fee table
var RateTableShape = TableShape{
	Name:     "shipfee",
	Required: []string{"method", "prefecture", "shipfee"},
}

// ParseTable splits delimited text into rows. A single leading byte-order
// mark is dropped, lines may end in CRLF or LF, the first line is the header
// and blank lines after it are skipped. Rows shorter than the header get ""
// for the missing columns.
func ParseTable(text string, shape TableShape) ([]Row, error) {
	text = strings.TrimPrefix(text, byteOrderMark)
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%s table is empty", shape.Name)
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	header := strings.Split(lines[0], ",")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if err := checkColumns(header, shape); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		values := splitLine(line, shape.Quoted)
		row := make(Row, len(header))
		for i, key := range header {
			if i < len(values) {
				row[key] = values[i]
			} else {
				row[key] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func checkColumns(header []string, shape TableShape) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, col := range shape.Required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s table missing columns: %s", shape.Name, strings.Join(missing, ", "))
	}
	return nil
}

func splitLine(line string, quoted bool) []string {
	if quoted {
		r := csv.NewReader(strings.NewReader(line))
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		r.FieldsPerRecord = -1

		if fields, err := r.Read(); err == nil {
			for i := range fields {
				fields[i] = strings.TrimSpace(fields[i])
			}
			return fields
		}
	}

	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// ParseAmount parses an integer currency value, dropping thousands
// separators. Only the leading digits count, so "1200円" is 1200. Anything
// without leading digits yields 0.
func ParseAmount(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
