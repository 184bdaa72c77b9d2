package tabular

import (
	"strings"

	"xwatch/pkg/models"
)

// table is one file with a fixed set of canonical columns. Columns found in
// an existing file beyond the canonical ones are carried through untouched.
type table struct {
	path    string
	columns []string
	numeric map[string]bool
	codec   Codec
}

type sheet struct {
	header []string
	rows   []map[string]string
}

func (t *table) load() (*sheet, error) {
	header, rows, err := t.codec.Read(t.path)
	if err != nil {
		if isNotExist(err) {
			return &sheet{header: t.columns}, nil
		}
		return nil, err
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	s := &sheet{header: mergeHeader(t.columns, header)}
	for _, row := range rows {
		if blank(row) {
			continue
		}
		s.rows = append(s.rows, models.RowMap(header, row))
	}
	return s, nil
}

func (t *table) save(s *sheet) error {
	rows := make([][]string, len(s.rows))
	for i, m := range s.rows {
		row := make([]string, len(s.header))
		for j, col := range s.header {
			row[j] = m[col]
		}
		rows[i] = row
	}
	return t.codec.Write(t.path, s.header, rows, t.numeric)
}

// ensure creates the file with just its header when it does not exist
func (t *table) ensure() error {
	if _, _, err := t.codec.Read(t.path); err == nil || !isNotExist(err) {
		return err
	}
	return t.save(&sheet{header: t.columns})
}

func (s *sheet) find(match func(map[string]string) bool) int {
	for i, row := range s.rows {
		if match(row) {
			return i
		}
	}
	return -1
}

// set copies the canonical values of a record into a row, leaving any
// extra columns as they were
func set(row map[string]string, columns, values []string) {
	for i, col := range columns {
		row[col] = values[i]
	}
}

func mergeHeader(canonical, existing []string) []string {
	out := append([]string(nil), canonical...)
	known := make(map[string]bool, len(canonical))
	for _, c := range canonical {
		known[c] = true
	}
	for _, c := range existing {
		if c != "" && !known[c] {
			known[c] = true
			out = append(out, c)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
