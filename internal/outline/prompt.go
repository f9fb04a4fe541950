// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/research-writer/internal/llm"
)

const systemPrompt = "You are a blog editor. Create a blog outline and a list of sections based on the topic and research notes."

var userTmpl = template.Must(template.New("outline").Parse(
	`Topic: {{.Topic}}
Guidelines: {{.Guidelines}}
Research Notes: {{.Notes}}

Provide the output in JSON format with two keys: 'outline' (string) and 'sections' (list of strings, being the section titles).`))

func buildPrompt(topic, guidelines, notes string, structured bool) (llm.Prompt, error) {
	var buf bytes.Buffer
	err := userTmpl.Execute(&buf, map[string]string{
		"Topic":      topic,
		"Guidelines": guidelines,
		"Notes":      notes,
	})
	if err != nil {
		return llm.Prompt{}, err
	}
	return llm.Prompt{System: systemPrompt, User: buf.String(), JSON: structured}, nil
}
