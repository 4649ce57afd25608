// Package transcribe holds the prompts for page-image transcription.
package transcribe

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// SystemPrompt returns the system prompt for page transcription.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt for one page. previousPage carries the
// converted Markdown of the most recent successful page, empty for the first.
func UserPrompt(previousPage string) string {
	var buf bytes.Buffer
	data := struct{ PreviousPage string }{PreviousPage: previousPage}
	if err := userTemplate.Execute(&buf, data); err != nil {
		return userPromptTmpl
	}
	return buf.String()
}
