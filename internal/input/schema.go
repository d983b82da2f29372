package input

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema only pins the outer structure. Individual profiles and
// answers are checked one by one so a bad record can be skipped on its own.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["profiles"],
  "properties": {
    "profiles": {
      "type": "array",
      "items": { "type": "object" }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

func validateDocument(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
	}

	return nil
}
