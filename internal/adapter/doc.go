// Package adapter implements the field-marker chat format used to drive
// CLI language models with structured signatures.
//
// A signature names input and output fields ("question -> answer"). The
// adapter renders inputs as marked sections:
//
//	[[ ## question ## ]]
//	What is 2 + 2?
//
// and instructs the model to answer with its own marked sections,
// terminated by [[ ## completed ## ]]. Parsing extracts each output
// field's last-marked section from the completion.
package adapter
