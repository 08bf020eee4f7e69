package importer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/example/grevocab/pkg/models"
)

// Export formats
const (
	FormatXLSX = "xlsx"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// exportSheet is the default sheet of a new workbook
const exportSheet = "Sheet1"

func pairs(entries []models.VocabularyEntry) []models.WordDefinition {
	out := make([]models.WordDefinition, len(entries))
	for i, e := range entries {
		out[i] = models.WordDefinition{Word: e.Word, Definition: e.Definition}
	}
	return out
}

// Export writes entries in the named format
func Export(w io.Writer, format string, entries []models.VocabularyEntry) error {
	switch format {
	case FormatXLSX:
		return ExportXLSX(w, entries)
	case FormatJSON:
		return ExportJSON(w, entries)
	case FormatYAML, "yml":
		return ExportYAML(w, entries)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// ExportJSON writes entries as the JSON array accepted by ParseJSON
func ExportJSON(w io.Writer, entries []models.VocabularyEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pairs(entries)); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// ExportYAML writes entries as the YAML list accepted by ParseYAML
func ExportYAML(w io.Writer, entries []models.VocabularyEntry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(pairs(entries)); err != nil {
		return fmt.Errorf("failed to write YAML: %w", err)
	}
	return enc.Close()
}

// ExportXLSX writes a workbook with a header row and one word per row
func ExportXLSX(w io.Writer, entries []models.VocabularyEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetRow(exportSheet, "A1", &[]any{"word", "definition", "added"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, e := range entries {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		row := []any{e.Word, e.Definition, e.CreatedAt.Format("2006-01-02")}
		if err := f.SetSheetRow(exportSheet, cellName, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "A", 20); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(exportSheet, "B", "B", 80); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
