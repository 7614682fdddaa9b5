// Authored world file loading — JSON documents validated against an
// embedded schema before the state graph is constructed.
package worldgen

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/emberline/crucible/internal/world"
)

// worldSchema is the structural contract for authored world files. The
// semantic invariants (symmetric adjacency, stock bounds) are enforced by
// world.State.Validate afterwards.
const worldSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["city_name", "seed", "districts"],
  "properties": {
    "city_name": {"type": "string", "minLength": 1},
    "seed": {"type": "integer"},
    "default_focus_id": {"type": "string"},
    "districts": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "population"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "population": {"type": "integer", "minimum": 0},
          "adjacent": {"type": "array", "items": {"type": "string"}},
          "stocks": {
            "type": "object",
            "additionalProperties": {
              "type": "object",
              "required": ["capacity", "current", "regen"],
              "properties": {
                "capacity": {"type": "number", "minimum": 0},
                "current": {"type": "number", "minimum": 0},
                "regen": {"type": "number", "minimum": 0}
              }
            }
          },
          "modifiers": {
            "type": "object",
            "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
          },
          "coord": {
            "type": "object",
            "properties": {
              "x": {"type": "number"},
              "y": {"type": "number"},
              "z": {"type": "number"}
            }
          }
        }
      }
    },
    "factions": {"type": "object"},
    "agents": {"type": "object"},
    "environment": {
      "type": "object",
      "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("world.schema.json", worldSchema)

// Load reads an authored world JSON file, validates it against the
// embedded schema, and constructs a checked world state.
func Load(path string) (*world.State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("world file: %w", err)
	}
	return Parse(raw)
}

// Parse validates and decodes a world document.
func Parse(raw []byte) (*world.State, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("world file: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("world file schema: %w", err)
	}

	var st world.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("world file decode: %w", err)
	}
	if st.Factions == nil {
		st.Factions = make(map[string]*world.Faction)
	}
	if st.Agents == nil {
		st.Agents = make(map[string]*world.Agent)
	}
	for id, f := range st.Factions {
		if f.ID == "" {
			f.ID = id
		}
		if f.Resources == nil {
			f.Resources = make(map[string]float64)
		}
	}
	for id, a := range st.Agents {
		if a.ID == "" {
			a.ID = id
		}
	}

	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("world file: %w", err)
	}
	return &st, nil
}
