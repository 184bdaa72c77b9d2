package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"xwatch/pkg/storage"
)

// Supported file formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Codec reads and writes one table file. Read returns an error matching
// os.ErrNotExist when the file is missing.
type Codec interface {
	Ext() string
	Read(path string) (header []string, rows [][]string, err error)
	Write(path string, header []string, rows [][]string, numeric map[string]bool) error
}

// CodecFor returns the codec for a format name
func CodecFor(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case FormatXLSX, "xlsm":
		return xlsxCodec{}, nil
	case FormatCSV:
		return csvCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported table format %q", format)
	}
}

// CodecForPath picks a codec from a file extension
func CodecForPath(path string) (Codec, error) {
	return CodecFor(filepath.Ext(path))
}

type xlsxCodec struct{}

func (xlsxCodec) Ext() string { return "." + FormatXLSX }

func (xlsxCodec) Read(path string) ([]string, [][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

func (xlsxCodec) Write(path string, header []string, rows [][]string, numeric map[string]bool) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
			if j < len(header) && numeric[header[j]] {
				if n, err := strconv.ParseInt(v, 10, 64); err == nil {
					cells[j] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return storage.WriteFileAtomic(path, func(w io.Writer) error {
		return f.Write(w)
	})
}

type csvCodec struct{}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (csvCodec) Ext() string { return "." + FormatCSV }

func (csvCodec) Read(path string) ([]string, [][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

func (csvCodec) Write(path string, header []string, rows [][]string, _ map[string]bool) error {
	return storage.WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Error()
	})
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
