package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const documentSchemaURL = "document.schema.json"

const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["source", "output", "rows"],
  "properties": {
    "run_id": {"type": "string"},
    "source": {"type": "string", "minLength": 1},
    "output": {"type": "string", "minLength": 1},
    "rows": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["test", "normal", "range", "result"],
        "properties": {
          "test":           {"type": "string", "minLength": 1},
          "normal":         {"type": "string", "minLength": 1},
          "range":          {"type": "string", "minLength": 1},
          "result":         {"type": "string", "minLength": 1},
          "numeric_result": {"type": "number"}
        }
      }
    }
  }
}`

var compiledDocumentSchema = jsonschema.MustCompileString(documentSchemaURL, documentSchema)

// Document is the machine-readable form of a categorized report.
type Document struct {
	RunID  string        `json:"run_id,omitempty"`
	Source string        `json:"source"`
	Output string        `json:"output"`
	Rows   []DocumentRow `json:"rows"`
}

type DocumentRow struct {
	Row
	NumericResult *float64 `json:"numeric_result,omitempty"`
}

// NewDocument wraps rows, attaching the numeric reading of each Result when it has one.
func NewDocument(runID, source, output string, rows []Row) Document {
	doc := Document{RunID: runID, Source: source, Output: output, Rows: make([]DocumentRow, 0, len(rows))}
	for _, r := range rows {
		dr := DocumentRow{Row: r}
		if v, ok := ExtractNumericValue(r.Result); ok {
			dr.NumericResult = &v
		}
		doc.Rows = append(doc.Rows, dr)
	}
	return doc
}

// EncodeDocument renders doc as indented JSON and checks it against the document schema.
func EncodeDocument(doc Document) ([]byte, error) {
	b, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}
	if err := ValidateDocument(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ValidateDocument checks raw JSON against the document schema.
func ValidateDocument(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := compiledDocumentSchema.Validate(v); err != nil {
		return fmt.Errorf("document schema: %w", err)
	}
	return nil
}
