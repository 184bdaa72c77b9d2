package tabular

import (
	"fmt"
	"strings"
)

// ReadColumn returns the non-empty cells of one named column, in file order.
// The column name is matched ignoring case and surrounding space.
func ReadColumn(path, column string) ([]string, error) {
	codec, err := CodecForPath(path)
	if err != nil {
		return nil, err
	}
	header, rows, err := codec.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read work list: %w", err)
	}

	idx := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("work list %s has no %q column", path, column)
	}

	var values []string
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[idx]); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}
