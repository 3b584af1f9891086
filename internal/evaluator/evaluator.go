// Package evaluator runs a rego gate over a SARIF log and turns the
// outcome into a verdict.
package evaluator

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/chris-regnier/warden/internal/sarif"
	"github.com/chris-regnier/warden/internal/store"
)

//go:embed default.rego
var defaultPolicy string

// Query is the rule every gate policy must define.
const Query = "data.warden.gate.decision"

type Evaluator struct {
	query rego.PreparedEvalQuery
}

// NewEvaluator creates an evaluator. If policyDir is empty or holds no
// .rego files, the embedded default gate is used; otherwise every .rego
// file in it is loaded and the default is not.
func NewEvaluator(policyDir string) (*Evaluator, error) {
	ctx := context.Background()

	modules, err := loadPolicies(policyDir)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		modules = []func(*rego.Rego){rego.Module("default.rego", defaultPolicy)}
	}

	query, err := rego.New(append([]func(*rego.Rego){rego.Query(Query)}, modules...)...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing rego query: %w", err)
	}
	return &Evaluator{query: query}, nil
}

func loadPolicies(dir string) ([]func(*rego.Rego), error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading policy dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".rego") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var modules []func(*rego.Rego)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading policy %s: %w", name, err)
		}
		modules = append(modules, rego.Module(name, string(data)))
	}
	return modules, nil
}

// Evaluate runs the gate. A policy that yields no string decision counts
// as "review".
func (e *Evaluator) Evaluate(ctx context.Context, log *sarif.Log) (*store.Verdict, error) {
	data, err := json.Marshal(log)
	if err != nil {
		return nil, err
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("evaluating rego: %w", err)
	}

	decision := store.DecisionReview
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		if d, ok := results[0].Expressions[0].Value.(string); ok {
			decision = d
		}
	}

	levels := make(map[string]int)
	var relevant []sarif.Result
	for _, r := range log.Results() {
		levels[r.Level]++
		if decision == store.DecisionReject && r.Level == "error" {
			relevant = append(relevant, r)
		} else if decision == store.DecisionReview && (r.Level == "warning" || r.Level == "error") {
			relevant = append(relevant, r)
		}
	}

	return &store.Verdict{
		Decision: decision,
		Reason: fmt.Sprintf("Decision: %s based on %d findings (%d errors, %d warnings)",
			decision, len(log.Results()), levels["error"], levels["warning"]),
		RelevantFindings: relevant,
		Metadata: map[string]interface{}{
			"errors":   levels["error"],
			"warnings": levels["warning"],
			"notes":    levels["note"],
		},
	}, nil
}
