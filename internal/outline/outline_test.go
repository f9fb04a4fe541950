// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-writer/internal/llm"
	"github.com/pdiddy/research-writer/pkg/types"
)

// replies returns a model that answers structured and plain prompts
// separately and counts the calls.
func replies(structured, plain string, structuredErr, plainErr error) (llm.Model, *[]llm.Prompt) {
	var calls []llm.Prompt
	return llm.Func(func(_ context.Context, p llm.Prompt) (string, error) {
		calls = append(calls, p)
		if p.JSON {
			return structured, structuredErr
		}
		return plain, plainErr
	}), &calls
}

func titles(r Result) []string { return types.Titles(r.Sections) }

func TestGenerate_Structured(t *testing.T) {
	model, calls := replies(`{"outline":"Intro then depth","sections":["Why Go","Goroutines","Wrap-up"]}`, "", nil, nil)
	g := &Generator{Model: model}

	res, err := g.Generate(context.Background(), "Go", "be brief", "notes")
	require.NoError(t, err)
	assert.Equal(t, "Intro then depth", res.Outline)
	assert.Equal(t, []string{"Why Go", "Goroutines", "Wrap-up"}, titles(res))
	for _, s := range res.Sections {
		assert.Empty(t, s.Content)
	}
	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0].User, "Topic: Go\nGuidelines: be brief\nResearch Notes: notes")
	assert.Equal(t, systemPrompt, (*calls)[0].System)
}

func TestGenerate_StructuredErrorFallsBackToRawJSON(t *testing.T) {
	model, calls := replies("", "```json\n{\"outline\":\"o\",\"sections\":[\"A\",\"B\"]}\n```", errors.New("unsupported"), nil)
	var out bytes.Buffer
	g := &Generator{Model: model, Out: &out}

	res, err := g.Generate(context.Background(), "t", "g", "n")
	require.NoError(t, err)
	assert.Equal(t, "o", res.Outline)
	assert.Equal(t, []string{"A", "B"}, titles(res))
	assert.Len(t, *calls, 2)
	assert.False(t, (*calls)[1].JSON)
	assert.Contains(t, out.String(), "Structured output failed")
}

func TestGenerate_UnparsableStructuredReplyFallsBack(t *testing.T) {
	model, calls := replies("not json", `{"outline":"o2","sections":["X"]}`, nil, nil)
	g := &Generator{Model: model}

	res, err := g.Generate(context.Background(), "t", "g", "n")
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, titles(res))
	assert.Len(t, *calls, 2)
}

func TestGenerate_RawTextFallsBackToDefaults(t *testing.T) {
	model, _ := replies("", "1. Intro\n2. Body", errors.New("unsupported"), nil)
	g := &Generator{Model: model}

	res, err := g.Generate(context.Background(), "t", "g", "n")
	require.NoError(t, err)
	assert.Equal(t, "1. Intro\n2. Body", res.Outline)
	assert.Equal(t, DefaultSections, titles(res))
}

func TestGenerate_EmptySectionListUsesDefaults(t *testing.T) {
	model, _ := replies(`{"outline":"o","sections":[" ", ""]}`, "", nil, nil)
	g := &Generator{Model: model}

	res, err := g.Generate(context.Background(), "t", "g", "n")
	require.NoError(t, err)
	assert.Equal(t, "o", res.Outline)
	assert.Equal(t, DefaultSections, titles(res))
}

func TestGenerate_BlankTitlesDropped(t *testing.T) {
	model, _ := replies(`{"outline":"o","sections":["A","  ","B "]}`, "", nil, nil)
	g := &Generator{Model: model}

	res, err := g.Generate(context.Background(), "t", "g", "n")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, titles(res))
}

func TestGenerate_PlainErrorReturned(t *testing.T) {
	boom := errors.New("down")
	model, _ := replies("", "", errors.New("unsupported"), boom)
	g := &Generator{Model: model}

	_, err := g.Generate(context.Background(), "t", "g", "n")
	assert.ErrorIs(t, err, boom)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
	}{
		{name: "bare", in: `{"outline":"o","sections":["A"]}`, want: []string{"A"}},
		{name: "fenced", in: "```json\n{\"sections\":[\"A\",\"B\"]}\n```", want: []string{"A", "B"}},
		{name: "fence without language", in: "```\n{\"sections\":[\"C\"]}\n```", want: []string{"C"}},
		{name: "surrounding prose", in: "Here you go: {\"sections\":[\"D\"]} enjoy", want: []string{"D"}},
		{name: "no object", in: "Introduction, Body", wantErr: true},
		{name: "broken object", in: `{"sections": [}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Sections)
		})
	}
}
