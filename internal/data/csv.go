package data

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"unicode/utf8"

	"github.com/sawpanic/signalrun/internal/fault"
)

// LoadCSV reads the dataset at path into memory in a single pass.
// Input must be UTF-8; structural problems are terminal, and cell
// contents are left raw for the downstream consumer.
func LoadCSV(path string) (*Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fault.New(fault.InputNotFound, "Input file not found: %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.New(fault.InputNotReadable, "Input file is not readable: %s", path)
	}
	if !utf8.Valid(raw) {
		return nil, fault.New(fault.MalformedInput, "Invalid CSV file format: invalid UTF-8 encoding")
	}

	reader := csv.NewReader(bytes.NewReader(raw))

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fault.New(fault.MalformedInput, "Invalid CSV file format: missing header row")
	}
	if err != nil {
		return nil, fault.New(fault.MalformedInput, "Invalid CSV file format: %v", err)
	}

	columns := make([]string, len(header))
	copy(columns, header)

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fault.New(fault.MalformedInput, "Invalid CSV file format: %v", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			// Duplicate headers resolve positionally, last one wins.
			row[col] = record[i]
		}
		rows = append(rows, row)
	}

	return &Dataset{Columns: columns, Rows: rows}, nil
}
