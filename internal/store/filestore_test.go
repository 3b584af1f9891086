package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/warden/internal/sarif"
	"github.com/chris-regnier/warden/internal/violation"
)

func sampleLog() *sarif.Log {
	return sarif.NewAssembler("test").
		AddFile("A.java", violation.List{{Line: 4, Severity: violation.SeverityError, Message: "Empty catch block.", Source: "EmptyCatchBlock"}}).
		Build()
}

// storeContract exercises behaviour every Store must share.
func storeContract(t *testing.T, s Store) {
	ctx := context.Background()

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	id, err := s.WriteSARIF(ctx, sampleLog())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	loaded, err := s.ReadSARIF(ctx, id)
	require.NoError(t, err)
	require.Len(t, loaded.Results(), 1)
	assert.Equal(t, "EmptyCatchBlock", loaded.Results()[0].RuleID)

	_, err = s.ReadVerdict(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.WriteVerdict(ctx, id, &Verdict{Decision: DecisionReject, Reason: "1 error"}))
	v, err := s.ReadVerdict(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DecisionReject, v.Decision)

	require.NoError(t, s.WriteVerdict(ctx, id, &Verdict{Decision: DecisionReview}))
	v, err = s.ReadVerdict(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DecisionReview, v.Decision, "verdicts are overwritten")

	assert.ErrorIs(t, s.WriteVerdict(ctx, "missing", &Verdict{Decision: DecisionPass}), ErrNotFound)
	_, err = s.ReadSARIF(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	second, err := s.WriteSARIF(ctx, sarif.NewLog(sarif.ToolName, "test"))
	require.NoError(t, err)
	ids, err = s.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{id, second}, ids)
}

func TestFileStore(t *testing.T) {
	storeContract(t, NewFileStore(filepath.Join(t.TempDir(), "runs")))
}

func TestFileStore_ListMissingDir(t *testing.T) {
	ids, err := NewFileStore(filepath.Join(t.TempDir(), "nope")).List(context.Background())
	require.NoError(t, err)
	assert.Nil(t, ids)
}
