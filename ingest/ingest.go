package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/w-h-a/shebot/knowledge"
)

const maxChunkLength = 800

// ChunkDocument converts one uploaded document into knowledge records. Text
// is split on blank lines and adjacent paragraphs are merged until a chunk
// approaches maxChunkLength, so one record stays one coherent passage.
func ChunkDocument(name string, r io.Reader) ([]knowledge.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", name, err)
	}

	var records []knowledge.Record
	var chunk strings.Builder

	emit := func() {
		text := strings.TrimSpace(chunk.String())
		chunk.Reset()
		if text == "" {
			return
		}
		records = append(records, knowledge.Record{
			Category: "document",
			Answer:   text,
			Source:   name,
		})
	}

	for _, paragraph := range paragraphs {
		if chunk.Len() > 0 && chunk.Len()+len(paragraph) > maxChunkLength {
			emit()
		}
		if chunk.Len() > 0 {
			chunk.WriteString("\n")
		}
		chunk.WriteString(paragraph)
	}
	emit()

	return records, nil
}
