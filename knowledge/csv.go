package knowledge

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadCSV parses knowledge records from a CSV file with a header row. The
// answer column may be named either "Bot Response" or "Answer"; the datasets
// in the wild use both.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus %s: %w", path, err)
	}
	defer f.Close()

	return ParseCSV(f)
}

func ParseCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := cols[name]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
		}
		return ""
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read corpus row: %w", err)
		}

		rec := Record{
			Category: field(row, "category"),
			Question: field(row, "question"),
			Answer:   field(row, "bot response", "answer"),
			Language: field(row, "language"),
			Source:   field(row, "source"),
		}

		if rec.Question == "" && rec.Answer == "" {
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}
