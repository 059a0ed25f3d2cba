// Package itemio reads text items from files and writes outcomes back out.
// The format follows the file extension: .yaml/.yml, .json or .csv.
package itemio

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/valpere/uxtran/internal"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// FormatOf picks the format from a path's extension; unknown extensions
// (and "-" for stdin/stdout) are treated as YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	default:
		return FormatYAML
	}
}

// Document is the serialised form of an outcome.
type Document struct {
	JobID     string           `json:"job_id" yaml:"job_id"`
	Mode      internal.Mode    `json:"mode" yaml:"mode"`
	Cancelled bool             `json:"cancelled" yaml:"cancelled"`
	Degraded  int              `json:"degraded" yaml:"degraded"`
	Entries   []internal.Entry `json:"entries" yaml:"entries"`
}

func NewDocument(o *internal.Outcome) Document {
	return Document{
		JobID:     o.JobID,
		Mode:      o.Mode,
		Cancelled: o.Cancelled,
		Degraded:  o.DegradedCount(),
		Entries:   o.Entries(),
	}
}

// ReadItems loads items from path; "-" reads YAML from stdin.
func ReadItems(path string) ([]internal.TextItem, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return DecodeItems(data, FormatOf(path))
}

// DecodeItems parses a list of {id, content} records. Records without an id
// get their 1-based position as id.
func DecodeItems(data []byte, format Format) ([]internal.TextItem, error) {
	var items []internal.TextItem
	var err error

	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &items)
	case FormatCSV:
		items, err = decodeCSV(data)
	default:
		err = yaml.Unmarshal(data, &items)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s items: %w", format, err)
	}

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = strconv.Itoa(i + 1)
		}
	}
	return items, nil
}

// decodeCSV reads an "id,content" table. A header row is skipped when its
// first cell is "id".
func decodeCSV(data []byte) ([]internal.TextItem, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var items []internal.TextItem
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "id") {
			continue
		}
		switch len(rec) {
		case 1:
			items = append(items, internal.TextItem{Content: rec[0]})
		default:
			items = append(items, internal.TextItem{ID: rec[0], Content: rec[1]})
		}
	}
	return items, nil
}

// WriteOutcome writes o to path in the format of its extension; "-" writes
// YAML to stdout.
func WriteOutcome(path string, o *internal.Outcome) error {
	data, err := EncodeOutcome(o, FormatOf(path))
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

func EncodeOutcome(o *internal.Outcome, format Format) ([]byte, error) {
	doc := NewDocument(o)

	switch format {
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to encode outcome: %w", err)
		}
		return buf.Bytes(), nil
	case FormatCSV:
		return encodeCSV(doc.Entries)
	default:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode outcome: %w", err)
		}
		return data, nil
	}
}

func encodeCSV(entries []internal.Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"id", "content", "transformed_content", "reason", "degraded"})
	for _, e := range entries {
		w.Write([]string{e.ID, e.Content, e.TransformedContent, e.Reason, strconv.FormatBool(e.Degraded)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to encode outcome: %w", err)
	}
	return buf.Bytes(), nil
}
