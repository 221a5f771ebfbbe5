// Package loader reads the account list of a run from a spreadsheet.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"hyperlane-registration/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	KeyColumn   = "Private key"
	ProxyColumn = "Proxy"
)

// Loader produces the ordered account sources of a run
type Loader interface {
	Load() ([]models.AccountSource, error)
}

// FileLoader reads .xlsx (first sheet) or .csv files with a header row
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) Load() ([]models.AccountSource, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(l.path)
	case ".csv":
		rows, err = readCSV(l.path)
	default:
		return nil, fmt.Errorf("unsupported accounts file %q: want .xlsx or .csv", l.path)
	}
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows converts a header row plus data rows into account sources.
// Only rows with every cell blank are skipped, so a row's position is its sequence id.
// A row with a blank key is kept and fails as that account; a missing or empty proxy
// cell means no proxy.
func FromRows(rows [][]string) ([]models.AccountSource, error) {
	if len(rows) == 0 {
		return nil, errors.New("accounts file is empty")
	}

	keyIdx, proxyIdx := -1, -1
	for i, name := range rows[0] {
		switch {
		case strings.EqualFold(strings.TrimSpace(name), KeyColumn):
			keyIdx = i
		case strings.EqualFold(strings.TrimSpace(name), ProxyColumn):
			proxyIdx = i
		}
	}
	if keyIdx < 0 {
		return nil, fmt.Errorf("accounts file has no %q column", KeyColumn)
	}
	if proxyIdx < 0 {
		return nil, fmt.Errorf("accounts file has no %q column", ProxyColumn)
	}

	sources := make([]models.AccountSource, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		sources = append(sources, models.AccountSource{
			SecretKey: cell(row, keyIdx),
			Proxy:     cell(row, proxyIdx),
		})
	}
	return sources, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("accounts workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts file: %w", err)
	}
	defer file.Close()

	return parseCSV(file)
}

func parseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse accounts csv: %w", err)
	}
	return rows, nil
}
