// Package parsers reads organization and person records from import files.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// CustomPrefix marks CSV columns that hold custom-field values.
const CustomPrefix = "custom."

// TagSeparator splits the tags cell of a CSV row.
const TagSeparator = ";"

// RawRecord is one entity read from an import file before validation.
type RawRecord struct {
	// Fields holds built-in field values keyed by their JSON name.
	Fields map[string]any
	// CustomFields holds custom-field values keyed by field name.
	CustomFields map[string]any
	// Textual is set when every value was read as text and still needs
	// converting to its declared type.
	Textual bool
	LineNum int
}

// Parser reads records from an import source.
type Parser interface {
	Parse(r io.Reader) ([]RawRecord, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
