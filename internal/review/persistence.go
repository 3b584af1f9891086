package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Status is the triage decision on a finding.
type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// ReviewState represents persisted review state
type ReviewState struct {
	RunID      string                   `json:"run_id"`
	ReviewedAt string                   `json:"reviewed_at"`
	Reviewer   string                   `json:"reviewer,omitempty"`
	Findings   map[string]FindingReview `json:"findings"`
}

// FindingReview represents review status for a single finding
type FindingReview struct {
	Status Status `json:"status"`
}

// SaveReviewState writes the model's triage to path, creating its
// directory.
func SaveReviewState(m *Model, path string) error {
	state := ReviewState{
		RunID:      m.opts.RunID,
		ReviewedAt: time.Now().UTC().Format(time.RFC3339),
		Reviewer:   m.opts.Reviewer,
		Findings:   make(map[string]FindingReview, len(m.status)),
	}
	for id, st := range m.status {
		state.Findings[id] = FindingReview{Status: st}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating review directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadReviewState loads review state from a JSON file
func LoadReviewState(path string) (*ReviewState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state ReviewState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing review state %s: %w", path, err)
	}
	return &state, nil
}
