// Package schema turns an extraction.Schema into a JSON Schema document for
// the provider and validates what comes back against the same document.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	invjs "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/khoahotran/billing-extractor/internal/application/service"
	"github.com/khoahotran/billing-extractor/internal/domain/extraction"
	"github.com/khoahotran/billing-extractor/pkg/apperror"
)

const resourceName = "extraction.json"

type Codec struct {
	def      extraction.Schema
	raw      json.RawMessage
	compiled *jsonschema.Schema
}

func NewCodec(def extraction.Schema) (*Codec, error) {
	doc, err := Render(def)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema %q: %w", def.Name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resourceName, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to load schema %q: %w", def.Name, err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %q: %w", def.Name, err)
	}

	return &Codec{def: def, raw: raw, compiled: compiled}, nil
}

// Render builds the JSON Schema for def. Every field is required; nullable
// fields accept null through anyOf so strict provider modes keep the key.
func Render(def extraction.Schema) (*invjs.Schema, error) {
	if len(def.Fields) == 0 {
		return nil, fmt.Errorf("schema %q has no fields", def.Name)
	}

	props := invjs.NewProperties()
	required := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		if _, dup := props.Get(f.Name); dup {
			return nil, fmt.Errorf("schema %q declares field %q twice", def.Name, f.Name)
		}
		fs, err := renderField(f)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", def.Name, err)
		}
		props.Set(f.Name, fs)
		required = append(required, f.Name)
	}

	return &invjs.Schema{
		Type:                 "object",
		Description:          def.Description,
		Properties:           props,
		Required:             required,
		AdditionalProperties: invjs.FalseSchema,
	}, nil
}

func renderField(f extraction.Field) (*invjs.Schema, error) {
	var base *invjs.Schema
	switch f.Type {
	case extraction.FieldNumber:
		base = &invjs.Schema{Type: "number"}
	case extraction.FieldString:
		base = &invjs.Schema{Type: "string"}
	case extraction.FieldEnum:
		if len(f.Enum) == 0 {
			return nil, fmt.Errorf("enum field %q has no values", f.Name)
		}
		values := make([]any, len(f.Enum))
		for i, v := range f.Enum {
			values[i] = v
		}
		base = &invjs.Schema{Type: "string", Enum: values}
	default:
		return nil, fmt.Errorf("field %q has unsupported type %q", f.Name, f.Type)
	}

	if !f.Nullable {
		base.Description = f.Description
		return base, nil
	}
	return &invjs.Schema{
		Description: f.Description,
		AnyOf:       []*invjs.Schema{base, {Type: "null"}},
	}, nil
}

func (c *Codec) Definition() extraction.Schema {
	return c.def
}

// JSON returns the rendered schema document.
func (c *Codec) JSON() json.RawMessage {
	return c.raw
}

func (c *Codec) OutputSchema() service.OutputSchema {
	return service.OutputSchema{
		Name:        c.def.Name,
		Description: c.def.Description,
		JSON:        c.raw,
	}
}

// Validate parses model output and checks it against the schema. The returned
// document is normalized JSON.
func (c *Codec) Validate(output []byte) (json.RawMessage, error) {
	doc, err := parseStructuredJSON(string(output))
	if err != nil {
		return nil, apperror.NewSchemaValidation("model output is not valid JSON", err)
	}
	if err := c.compiled.Validate(doc); err != nil {
		return nil, apperror.NewSchemaValidation(fmt.Sprintf("model output violates schema %q", c.def.Name), err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, apperror.NewSchemaValidation("model output could not be normalized", err)
	}
	return normalized, nil
}

// parseStructuredJSON accepts bare JSON as well as JSON wrapped in a markdown
// fence or surrounded by prose.
func parseStructuredJSON(content string) (any, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("empty structured output")
	}

	candidates := []string{content}
	if stripped := stripCodeFences(content); stripped != "" && stripped != content {
		candidates = append(candidates, stripped)
	}
	if extracted := extractObject(content); extracted != "" && extracted != content {
		candidates = append(candidates, extracted)
	}

	var lastErr error
	for _, candidate := range candidates {
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			lastErr = err
			continue
		}
		return parsed, nil
	}
	return nil, lastErr
}

func stripCodeFences(content string) string {
	if !strings.HasPrefix(content, "```") {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return ""
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return ""
	}
	return content[start : end+1]
}
