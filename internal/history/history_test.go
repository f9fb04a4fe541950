// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-writer/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.HistoryConfig{Dir: filepath.Join(t.TempDir(), "history")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(topic, report string, age time.Duration) types.RunRecord {
	return types.RunRecord{
		CreatedAt:  base.Add(-age),
		Topic:      topic,
		Model:      "gemini:gemini-2.0-flash-exp",
		Rounds:     2,
		Approved:   true,
		Guidelines: "keep it practical",
		Notes:      "notes about " + topic,
		Outline:    "three parts",
		Sections: []types.Section{
			{Title: "Introduction", Content: "intro"},
			{Title: "Conclusion", Content: "outro"},
		},
		Report:   report,
		Feedback: []string{"shorter please"},
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	_, err := NewStore(types.HistoryConfig{})
	assert.Error(t, err)
}

func TestNewStoreReopens(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(types.HistoryConfig{Dir: dir})
	require.NoError(t, err)
	_, err = s.Record(context.Background(), record("Go", "# Go", 0))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = NewStore(types.HistoryConfig{Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, dir, s.Dir())
	assert.FileExists(t, filepath.Join(dir, "history.db"))
}

func TestRecordAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	in := record("Go Generics", "# Go Generics\n\n## Introduction\n\nintro\n\n", 0)
	id, err := s.Record(ctx, in)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	in.ID = id
	assert.Equal(t, in, *got)
}

func TestGetNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, topic := range []string{"oldest", "middle", "newest"} {
		_, err := s.Record(ctx, record(topic, "r", time.Duration(3-i)*time.Hour))
		require.NoError(t, err)
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "newest", runs[0].Topic)
	assert.Equal(t, "oldest", runs[2].Topic)
	assert.Equal(t, base.Add(-time.Hour), runs[0].CreatedAt)
	assert.True(t, runs[0].Approved)
	assert.Equal(t, 2, runs[0].Rounds)

	runs, err = s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	goID, err := s.Record(ctx, record("Go Concurrency", "Goroutines and channels make pipelines easy.", time.Hour))
	require.NoError(t, err)
	_, err = s.Record(ctx, record("Rust Ownership", "Borrowing rules prevent data races.", 0))
	require.NoError(t, err)

	runs, err := s.Search(ctx, "channels", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, goID, runs[0].ID)

	runs, err = s.Search(ctx, "rust", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Rust Ownership", runs[0].Topic)

	runs, err = s.Search(ctx, "kotlin", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = s.Search(ctx, "", 0)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Record(ctx, record("Go", "channels", 0))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	runs, err := s.Search(ctx, "channels", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Record(ctx, record("first", "r1", time.Hour))
	require.NoError(t, err)
	_, err = s.Record(ctx, record("second", "r2", 0))
	require.NoError(t, err)

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "history.yaml")
	require.NoError(t, s.ExportYAML(ctx, yamlPath))
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML []types.RunRecord
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 2)
	assert.Equal(t, "second", fromYAML[0].Topic)
	assert.Len(t, fromYAML[0].Sections, 2)

	jsonPath := filepath.Join(dir, "history.json")
	require.NoError(t, s.ExportJSON(ctx, jsonPath))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var fromJSON []types.RunRecord
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Len(t, fromJSON, 2)
	assert.Equal(t, []string{"shorter please"}, fromJSON[1].Feedback)
}

func TestNewRunRecordRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &types.RunState{
		Topic:     "Go",
		Sections:  []types.Section{{Title: "A"}, {Title: "B"}},
		Completed: []types.Section{{Title: "B", Content: "b"}, {Title: "A", Content: "a"}},
		Report:    "# Go",
		Round:     1,
		Approval:  types.ApprovalApprove,
	}
	id, err := s.Record(ctx, types.NewRunRecord(run, "openai:gpt-4o-mini", base))
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []types.Section{{Title: "A", Content: "a"}, {Title: "B", Content: "b"}}, got.Sections)
	assert.Equal(t, "openai:gpt-4o-mini", got.Model)
	assert.Nil(t, got.Feedback)
}
