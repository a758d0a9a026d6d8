package gemini

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

func convertSchema(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{Description: schema.Description}
	switch schema.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	case "":
	default:
		return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
	}

	for _, v := range schema.Enum {
		if s, ok := v.(string); ok {
			out.Enum = append(out.Enum, s)
		}
	}
	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for name, prop := range schema.Properties {
			converted, err := convertSchema(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property", goerr.V("property", name))
			}
			out.Properties[name] = converted
		}
	}
	out.Required = schema.Required

	if schema.Items != nil {
		items, err := convertSchema(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items")
		}
		out.Items = items
	}
	return out, nil
}
