// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes a finished run to disk: the full run file as JSON
// or YAML, a SQLite database, and CSV sheets. A run file can be read back
// so reports are re-rendered without re-querying the registry.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trialscope/pkg/types"
)

// WriteRunFile saves res to path. The encoding follows the extension:
// .yaml and .yml write YAML, anything else writes indented JSON.
func WriteRunFile(path string, res *types.RunResult) error {
	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(res)
	} else {
		data, err = json.MarshalIndent(res, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run file: %w", err)
	}
	return nil
}

// ReadRunFile loads a run previously saved with WriteRunFile.
func ReadRunFile(path string) (*types.RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var res types.RunResult
	if isYAML(path) {
		err = yaml.Unmarshal(data, &res)
	} else {
		err = json.Unmarshal(data, &res)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	if res.ResultsByDisease == nil {
		res.ResultsByDisease = map[string]*types.QueryResult{}
	}
	return &res, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
