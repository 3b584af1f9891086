package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/warden/internal/sarif"
)

var storeTracer = otel.Tracer("github.com/chris-regnier/warden/internal/store")

var _ Store = (*FileStore)(nil)

// FileStore keeps each run in its own directory holding sarif.json and,
// once gated, verdict.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) resultDir(id string) string {
	return filepath.Join(s.dir, id)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (s *FileStore) WriteSARIF(ctx context.Context, doc *sarif.Log) (string, error) {
	_, span := storeTracer.Start(ctx, "write sarif")
	defer span.End()

	id := newRunID()
	dir := s.resultDir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fail(span, err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fail(span, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sarif.json"), data, 0644); err != nil {
		return "", fail(span, err)
	}

	span.SetAttributes(
		attribute.String("warden.store.id", id),
		attribute.Int("warden.store.result_count", resultCount(doc)),
	)
	return id, nil
}

func (s *FileStore) WriteVerdict(ctx context.Context, runID string, verdict *Verdict) error {
	_, span := storeTracer.Start(ctx, "write verdict")
	defer span.End()

	dir := s.resultDir(runID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fail(span, fmt.Errorf("run %s: %w", runID, ErrNotFound))
		}
		return fail(span, err)
	}
	data, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return fail(span, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "verdict.json"), data, 0644); err != nil {
		return fail(span, err)
	}

	span.SetAttributes(
		attribute.String("warden.store.id", runID),
		attribute.String("warden.decision", verdict.Decision),
	)
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *FileStore) ReadSARIF(ctx context.Context, id string) (*sarif.Log, error) {
	var log sarif.Log
	if err := readJSON(filepath.Join(s.resultDir(id), "sarif.json"), &log); err != nil {
		return nil, fmt.Errorf("reading run %s: %w", id, err)
	}
	return &log, nil
}

func (s *FileStore) ReadVerdict(ctx context.Context, runID string) (*Verdict, error) {
	var v Verdict
	if err := readJSON(filepath.Join(s.resultDir(runID), "verdict.json"), &v); err != nil {
		return nil, fmt.Errorf("reading verdict %s: %w", runID, err)
	}
	return &v, nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}
