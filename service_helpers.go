package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type sidekiqJob struct {
	Class string            `json:"class"`
	Args  []json.RawMessage `json:"args"`
	Queue string            `json:"queue"`
}

// parseDatasetID extracts a dataset UUID from a Sidekiq payload argument,
// which must be a JSON string.
func parseDatasetID(raw json.RawMessage) (uuid.UUID, error) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return uuid.Nil, fmt.Errorf("unsupported arg: %s", string(raw))
	}
	if asString == "" {
		return uuid.Nil, fmt.Errorf("empty string")
	}
	id, err := uuid.Parse(asString)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// parseDatasetIDs parses command-line ids, failing on the first bad one.
func parseDatasetIDs(args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, raw := range args {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid dataset id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
