package parsers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses records from CSV with a header row.
// Columns are built-in field names plus custom.<field> columns.
// Empty cells are treated as absent.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed records.
func (p *CSVParser) Parse(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, header)
}

// readHeader reads the header row and normalizes column names.
func (p *CSVParser) readHeader(reader *csv.Reader) ([]string, error) {
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("reading CSV header: empty input")
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	seen := make(map[string]bool, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if i == 0 {
			col = strings.TrimPrefix(col, "\ufeff")
		}
		if col == "" || col == CustomPrefix {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
		if seen[col] {
			return nil, fmt.Errorf("duplicate column: %s", col)
		}
		seen[col] = true
		header[i] = col
	}
	return header, nil
}

// readRecords reads all data rows and converts them to RawRecords.
func (p *CSVParser) readRecords(reader *csv.Reader, header []string) ([]RawRecord, error) {
	var records []RawRecord

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)
		records = append(records, p.parseRecord(record, header, line))
	}

	return records, nil
}

// parseRecord converts a CSV row to a RawRecord.
func (p *CSVParser) parseRecord(record, header []string, lineNum int) RawRecord {
	raw := RawRecord{
		Fields:       map[string]any{},
		CustomFields: map[string]any{},
		Textual:      true,
		LineNum:      lineNum,
	}

	for i, col := range header {
		if i >= len(record) {
			break
		}
		cell := strings.TrimSpace(record[i])
		if cell == "" {
			continue
		}
		switch {
		case strings.HasPrefix(col, CustomPrefix):
			raw.CustomFields[strings.TrimPrefix(col, CustomPrefix)] = cell
		case col == "tags":
			raw.Fields[col] = splitTags(cell)
		default:
			raw.Fields[col] = cell
		}
	}

	return raw
}

func splitTags(cell string) []any {
	parts := strings.Split(cell, TagSeparator)
	tags := make([]any, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
