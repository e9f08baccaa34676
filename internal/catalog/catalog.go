// Package catalog loads and validates exercise catalog files.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/fitrack/internal/appstate"
)

// ErrDuplicateID is returned when two catalog entries share an id.
var ErrDuplicateID = errors.New("duplicate exercise id")

const schemaURL = "schema://fitrack/catalog.json"

// catalogSchema accepts either a bare array of exercises or an object with
// an "exercises" array.
const catalogSchema = `{
  "$defs": {
    "exercise": {
      "type": "object",
      "required": ["id", "name", "duration", "calories"],
      "additionalProperties": false,
      "properties": {
        "id":       {"type": "string", "minLength": 1},
        "name":     {"type": "string", "minLength": 1},
        "duration": {"type": "integer", "minimum": 0},
        "calories": {"type": "number", "minimum": 0}
      }
    },
    "list": {"type": "array", "items": {"$ref": "#/$defs/exercise"}}
  },
  "oneOf": [
    {"$ref": "#/$defs/list"},
    {
      "type": "object",
      "required": ["exercises"],
      "additionalProperties": false,
      "properties": {"exercises": {"$ref": "#/$defs/list"}}
    }
  ]
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(catalogSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Parse validates raw catalog JSON and returns its exercises in file order.
func Parse(raw []byte) ([]appstate.Exercise, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	sch, err := schema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}

	var list []appstate.Exercise
	if _, ok := parsed.([]any); ok {
		err = json.Unmarshal(raw, &list)
	} else {
		var doc struct {
			Exercises []appstate.Exercise `json:"exercises"`
		}
		err = json.Unmarshal(raw, &doc)
		list = doc.Exercises
	}
	if err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(list))
	for _, e := range list {
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = true
	}
	if list == nil {
		list = []appstate.Exercise{}
	}
	return list, nil
}

// Load reads and parses the catalog file at path.
func Load(path string) ([]appstate.Exercise, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Default returns the built-in starter catalog.
func Default() []appstate.Exercise {
	return []appstate.Exercise{
		{ID: "crunches", Name: "Crunches", Duration: 30, Calories: 8},
		{ID: "touch-toes", Name: "Touch Toes", Duration: 180, Calories: 15},
		{ID: "side-lunges", Name: "Side Lunges", Duration: 120, Calories: 18},
		{ID: "burpees", Name: "Burpees", Duration: 60, Calories: 8},
	}
}
