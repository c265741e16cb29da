package tagstore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"phototriage/internal/asset"
)

// tagFileSchema constrains the persisted document. A file that does not
// validate is treated exactly like a missing file: the session starts
// with an empty map instead of failing.
const tagFileSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "tags"],
  "properties": {
    "version": { "type": "integer", "minimum": 1 },
    "tags": {
      "type": "object",
      "additionalProperties": { "enum": ["keep", "delete", "unsure"] }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("tagfile.schema.json", tagFileSchema)

// readTagFile loads and validates the tag file at path. It returns
// (nil, nil) when the file does not exist and (nil, err) when it exists
// but cannot be used; callers treat both as an empty map.
func readTagFile(path string) (map[asset.ID]asset.Tag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tag file: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("parse tag file: %w", err)
	}
	if err := compiledSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("validate tag file: %w", err)
	}

	var doc tagFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode tag file: %w", err)
	}
	if doc.Tags == nil {
		doc.Tags = make(map[asset.ID]asset.Tag)
	}
	return doc.Tags, nil
}
