package problemgen

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const candidateSchemaURL = "schema://exam-question.json"

// candidateSchemaJSON describes the object providers are asked to return.
const candidateSchemaJSON = `{
	"type": "object",
	"properties": {
		"question": {"type": "string"},
		"solution": {"type": "string"},
		"answer":   {"type": ["string", "number"]},
		"points":   {"type": "integer"},
		"subtopic": {"type": "string"}
	},
	"required": ["question", "solution"]
}`

var candidateSchema = sync.OnceValue(func() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(candidateSchemaJSON))
	if err != nil {
		panic("problemgen: invalid candidate schema: " + err.Error())
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(candidateSchemaURL, doc); err != nil {
		panic("problemgen: add candidate schema: " + err.Error())
	}
	return c.MustCompile(candidateSchemaURL)
})

// SchemaValidator checks the decoded object against the candidate schema.
// It operates on the raw object, so it runs before the Validator chain.
type SchemaValidator struct{}

func (v *SchemaValidator) Name() string { return "schema" }

func (v *SchemaValidator) ValidateObject(obj map[string]any) *ValidationError {
	if err := candidateSchema().Validate(obj); err != nil {
		return &ValidationError{
			Validator: v.Name(),
			Message:   err.Error(),
			Retryable: true,
		}
	}
	return nil
}
