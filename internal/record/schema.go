package record

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// recordSchema accepts legacy records: only the types of present fields are checked.
const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "status":        {"type": "string"},
    "source_file":   {"type": "string"},
    "source_bucket": {"type": "string"},
    "data": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "metadata": {
      "type": "object",
      "properties": {
        "processed_at":   {"type": "string"},
        "pages_analyzed": {"type": "integer", "minimum": 0},
        "total_fields":   {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var compiled = jsonschema.MustCompileString("record.schema.json", recordSchema)

// Parse validates raw against the record schema and decodes it.
func Parse(raw []byte) (Record, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return Record{}, fmt.Errorf("record does not match schema: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if rec.Data == nil {
		rec.Data = map[string]string{}
	}
	return rec, nil
}
