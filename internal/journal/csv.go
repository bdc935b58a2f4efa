package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/tradejournal/internal/normalizer"
)

// ReadCSV turns a broker/journal export into raw rows.
// The header row supplies the keys; empty cells are omitted so normalizer defaults apply.
func ReadCSV(r io.Reader) ([]normalizer.RawTrade, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = h
	}

	var rows []normalizer.RawTrade
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row := make(map[string]any, len(header))
		for i, value := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if value = strings.TrimSpace(value); value != "" {
				row[header[i]] = value
			}
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, normalizer.FromMap(row))
	}
	return rows, nil
}
