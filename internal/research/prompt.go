// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/research-writer/internal/llm"
)

var orchestratorSystemTmpl = template.Must(template.New("orchestrator").Parse(
	`You are a research assistant. Your goal is to gather information based on the following guidelines: {{.Guidelines}}. ` +
		`Current notes: {{.Notes}}. ` +
		`Decide if more research is needed. If yes, output a search query. If enough info is gathered, output 'DONE'.`))

const orchestratorUser = "What should be the next search query? Return ONLY the query or 'DONE'."

const synthesisSystem = "You are a research assistant. Update the research notes with the new search results."

var synthesisUserTmpl = template.Must(template.New("synthesis").Parse(
	`Current Notes: {{.Notes}}

New Search Results for '{{.Query}}':
{{.Results}}

Please synthesize and append relevant information to the notes.`))

func orchestratorPrompt(guidelines, notes string) (llm.Prompt, error) {
	system, err := render(orchestratorSystemTmpl, map[string]string{"Guidelines": guidelines, "Notes": notes})
	if err != nil {
		return llm.Prompt{}, err
	}
	return llm.Prompt{System: system, User: orchestratorUser}, nil
}

func synthesisPrompt(notes, query, results string) (llm.Prompt, error) {
	user, err := render(synthesisUserTmpl, map[string]string{"Notes": notes, "Query": query, "Results": results})
	if err != nil {
		return llm.Prompt{}, err
	}
	return llm.Prompt{System: synthesisSystem, User: user}, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
