package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SpreadsheetConfig locates the word list inside a spreadsheet
type SpreadsheetConfig struct {
	WordColumn       string // Column with the word
	DefinitionColumn string // Column with the definition
	SheetName        string // Sheet to import; empty means the first sheet
}

// DefaultSpreadsheetConfig reads words from column A and definitions from B
func DefaultSpreadsheetConfig() SpreadsheetConfig {
	return SpreadsheetConfig{
		WordColumn:       "A",
		DefinitionColumn: "B",
	}
}

// ParseSpreadsheet reads an .xlsx workbook or a .csv file. A first row
// whose word cell reads "word" is treated as a header. Blank rows are
// ignored.
func ParseSpreadsheet(name string, r io.Reader, existing map[string]struct{}, config SpreadsheetConfig) (*Result, error) {
	var (
		rows [][]string
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx":
		rows, err = readExcel(r, config.SheetName)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, err
	}

	wordIdx := columnToIndex(config.WordColumn)
	defIdx := columnToIndex(config.DefinitionColumn)

	c := newCollector(existing)
	for i, row := range rows {
		word := cell(row, wordIdx)
		definition := cell(row, defIdx)

		if i == 0 && strings.EqualFold(strings.TrimSpace(word), "word") {
			continue
		}
		if strings.TrimSpace(word) == "" && strings.TrimSpace(definition) == "" {
			continue
		}
		c.add(i+1, word, definition)
	}
	return c.res, nil
}

func readExcel(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Format: "Excel", Reason: "failed to open workbook", Err: err}
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &ParseError{Format: "Excel", Reason: "workbook has no sheets"}
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Format: "Excel", Reason: "failed to get rows", Err: err}
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Format: "CSV", Reason: "error reading CSV", Err: err}
	}
	return rows, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// columnToIndex converts a spreadsheet column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
