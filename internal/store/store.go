// Package store persists check runs: the SARIF log of each run and the
// gate verdict reached on it.
package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/chris-regnier/warden/internal/sarif"
)

// ErrNotFound is returned when a run or its verdict does not exist.
var ErrNotFound = errors.New("not found")

// Decisions a gate can reach.
const (
	DecisionPass   = "pass"
	DecisionReview = "review"
	DecisionReject = "reject"
)

type Verdict struct {
	Decision         string                 `json:"decision"`
	Reason           string                 `json:"reason"`
	RelevantFindings []sarif.Result         `json:"relevant_findings,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Store keeps runs addressed by the id WriteSARIF returns. List returns
// ids newest first.
type Store interface {
	WriteSARIF(ctx context.Context, doc *sarif.Log) (string, error)
	WriteVerdict(ctx context.Context, runID string, verdict *Verdict) error
	ReadSARIF(ctx context.Context, id string) (*sarif.Log, error)
	ReadVerdict(ctx context.Context, runID string) (*Verdict, error)
	List(ctx context.Context) ([]string, error)
}

// newRunID returns a sortable id: a UTC timestamp and a random suffix.
func newRunID() string {
	b := make([]byte, 3)
	rand.Read(b)
	ts := time.Now().UTC().Format("2006-01-02T15-04-05.000Z")
	return fmt.Sprintf("%s-%s", ts, hex.EncodeToString(b))
}

func resultCount(doc *sarif.Log) int {
	return len(doc.Results())
}
