package adapter

import (
	"fmt"
	"strings"
)

// Field is one named signature field.
type Field struct {
	Name string
	Desc string
}

// Signature declares the input and output fields of a prediction.
type Signature struct {
	Inputs  []Field
	Outputs []Field

	// Instructions is an optional task description included in the
	// system message.
	Instructions string
}

// ParseSignature parses the compact "in1, in2 -> out1, out2" form.
// Field names may carry a description after a colon:
// "question: the user question -> answer".
func ParseSignature(spec string) (Signature, error) {
	parts := strings.Split(spec, "->")
	if len(parts) != 2 {
		return Signature{}, fmt.Errorf("signature %q must have exactly one \"->\"", spec)
	}

	inputs, err := parseFields(parts[0])
	if err != nil {
		return Signature{}, fmt.Errorf("signature %q: %w", spec, err)
	}
	outputs, err := parseFields(parts[1])
	if err != nil {
		return Signature{}, fmt.Errorf("signature %q: %w", spec, err)
	}

	if len(inputs) == 0 || len(outputs) == 0 {
		return Signature{}, fmt.Errorf("signature %q needs at least one input and one output field", spec)
	}

	return Signature{Inputs: inputs, Outputs: outputs}, nil
}

func parseFields(s string) ([]Field, error) {
	var fields []Field
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, desc, _ := strings.Cut(raw, ":")
		name = strings.TrimSpace(name)
		if !validFieldName(name) {
			return nil, fmt.Errorf("invalid field name %q", name)
		}
		fields = append(fields, Field{Name: name, Desc: strings.TrimSpace(desc)})
	}
	return fields, nil
}

// validFieldName accepts identifier-shaped names: letters, digits, and
// underscores, not starting with a digit.
func validFieldName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// OutputNames returns the output field names in order.
func (s Signature) OutputNames() []string {
	names := make([]string, len(s.Outputs))
	for i, f := range s.Outputs {
		names[i] = f.Name
	}
	return names
}
