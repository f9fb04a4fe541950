// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-writer/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes every archived run, newest first, to path.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	records, err := s.records(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every archived run, newest first, to path.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	records, err := s.records(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) records(ctx context.Context) ([]types.RunRecord, error) {
	summaries, err := s.List(ctx, exportLimit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	records := make([]types.RunRecord, 0, len(summaries))
	for _, sum := range summaries {
		rec, err := s.Get(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, nil
}
