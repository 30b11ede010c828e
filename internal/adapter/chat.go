package adapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zjrosen/clilm/internal/lm"
)

// CompletedMarker terminates a well-formed completion.
const CompletedMarker = "completed"

// fieldPattern matches "[[ ## name ## ]]" section headers, tolerating
// extra whitespace inside the brackets.
var fieldPattern = regexp.MustCompile(`\[\[\s*##\s*(\w+)\s*##\s*\]\]`)

// ChatAdapter formats signatures into chat messages and parses marked
// completions.
type ChatAdapter struct{}

// NewChatAdapter creates a ChatAdapter.
func NewChatAdapter() *ChatAdapter {
	return &ChatAdapter{}
}

// marker renders a section header for the named field.
func marker(name string) string {
	return "[[ ## " + name + " ## ]]"
}

// Format renders the signature and inputs as chat messages: a system
// message describing the field structure, then a user message carrying
// the input sections.
func (a *ChatAdapter) Format(sig Signature, inputs map[string]string) ([]lm.Message, error) {
	for _, f := range sig.Inputs {
		if _, ok := inputs[f.Name]; !ok {
			return nil, fmt.Errorf("missing input field %q", f.Name)
		}
	}

	return []lm.Message{
		{Role: "system", Content: a.systemMessage(sig)},
		{Role: "user", Content: a.userMessage(sig, inputs)},
	}, nil
}

// systemMessage describes the interaction structure the model must
// follow.
func (a *ChatAdapter) systemMessage(sig Signature) string {
	var b strings.Builder

	b.WriteString("Your input fields are:\n")
	writeFieldList(&b, sig.Inputs)
	b.WriteString("\nYour output fields are:\n")
	writeFieldList(&b, sig.Outputs)

	b.WriteString("\nAll interactions will be structured in the following way, with the appropriate values filled in.\n")
	for _, f := range sig.Inputs {
		fmt.Fprintf(&b, "\n%s\n{%s}\n", marker(f.Name), f.Name)
	}
	for _, f := range sig.Outputs {
		fmt.Fprintf(&b, "\n%s\n{%s}\n", marker(f.Name), f.Name)
	}
	fmt.Fprintf(&b, "\n%s\n", marker(CompletedMarker))

	if sig.Instructions != "" {
		fmt.Fprintf(&b, "\nIn adhering to this structure, your objective is:\n%s\n", sig.Instructions)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeFieldList(b *strings.Builder, fields []Field) {
	for i, f := range fields {
		if f.Desc != "" {
			fmt.Fprintf(b, "%d. `%s`: %s\n", i+1, f.Name, f.Desc)
		} else {
			fmt.Fprintf(b, "%d. `%s`\n", i+1, f.Name)
		}
	}
}

// userMessage carries the input values and the response instruction.
func (a *ChatAdapter) userMessage(sig Signature, inputs map[string]string) string {
	var b strings.Builder

	for _, f := range sig.Inputs {
		fmt.Fprintf(&b, "%s\n%s\n\n", marker(f.Name), inputs[f.Name])
	}

	names := sig.OutputNames()
	fmt.Fprintf(&b,
		"Respond with the corresponding output fields, starting with the field %s,%s and then ending with the marker for %s.",
		marker(names[0]), restMarkers(names[1:]), marker(CompletedMarker))

	return b.String()
}

func restMarkers(names []string) string {
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, " then %s,", marker(name))
	}
	return b.String()
}

// Parse extracts the signature's output fields from a completion. The
// LAST marked section for each field wins. When a field is absent and
// the signature has exactly one output, the whole trimmed completion is
// used as that field's value.
func (a *ChatAdapter) Parse(sig Signature, completion string) (map[string]string, error) {
	sections := splitSections(completion)

	outputs := make(map[string]string, len(sig.Outputs))
	var missing []string
	for _, f := range sig.Outputs {
		value, ok := sections[f.Name]
		if !ok {
			missing = append(missing, f.Name)
			continue
		}
		outputs[f.Name] = value
	}

	if len(missing) > 0 {
		if len(sig.Outputs) == 1 {
			// Unmarked completions from plain-text CLIs still count for
			// single-output signatures.
			outputs[sig.Outputs[0].Name] = strings.TrimSpace(completion)
			return outputs, nil
		}
		return nil, fmt.Errorf("completion missing output fields %v", missing)
	}

	return outputs, nil
}

// splitSections maps each marked field name to its content. Later
// occurrences of the same field overwrite earlier ones.
func splitSections(completion string) map[string]string {
	matches := fieldPattern.FindAllStringSubmatchIndex(completion, -1)
	sections := make(map[string]string, len(matches))

	for i, m := range matches {
		name := completion[m[2]:m[3]]
		if name == CompletedMarker {
			continue
		}
		start := m[1]
		end := len(completion)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections[name] = strings.TrimSpace(completion[start:end])
	}

	return sections
}
