package plugin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// OptionIssue is one schema violation.
type OptionIssue struct {
	Location string
	Message  string
}

// OptionsError lists every schema violation of a selection's options.
type OptionsError struct {
	Issues []OptionIssue
	Cause  error
}

func (e *OptionsError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		loc := is.Location
		if loc == "" {
			loc = "/"
		}
		parts = append(parts, loc+": "+is.Message)
	}
	return fmt.Sprintf("%v: %s", ErrInvalidOptions, strings.Join(parts, "; "))
}

func (e *OptionsError) Unwrap() error { return ErrInvalidOptions }

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	if schema == nil {
		schema = map[string]any{"type": "object"}
	}
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// validateOptions checks options against a compiled schema. Options are
// round-tripped through JSON so YAML-decoded values have JSON types.
func validateOptions(compiled *jsonschema.Schema, options map[string]any) error {
	if options == nil {
		options = map[string]any{}
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := compiled.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return &OptionsError{Issues: collectIssues(verr), Cause: err}
		}
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return nil
}

func collectIssues(err *jsonschema.ValidationError) []OptionIssue {
	var issues []OptionIssue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, OptionIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

// DecodeOptions copies validated options into a struct with json tags.
func DecodeOptions(options map[string]any, out any) error {
	if len(options) == 0 {
		return nil
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, out)
}
