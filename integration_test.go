package warden_test

import (
	"context"
	"testing"

	"github.com/chris-regnier/warden/internal/cache"
	"github.com/chris-regnier/warden/internal/config"
	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/evaluator"
	"github.com/chris-regnier/warden/internal/module"
	"github.com/chris-regnier/warden/internal/rules"
	"github.com/chris-regnier/warden/internal/sarif"
	"github.com/chris-regnier/warden/internal/store"
)

const source = `class Shop {
    int total(int[] prices, boolean member) {
        int sum = 0;
        for (int p : prices) {
            sum += p;
        }
        if (member && sum > 100) {
            sum -= 10;
        }
        System.out.println(sum);
        return sum;
    }
}
`

const tree = `
name: Checker
children:
  - name: TreeWalker
    children:
      - name: CyclomaticComplexity
        properties:
          max: 10
      - name: NPathComplexity
        properties:
          max: 2
          severity: warning
  - name: RegexpSingleline
    id: no-console
    properties:
      format: System\.(out|err)\.print
      severity: info
`

func TestFullPipeline(t *testing.T) {
	ctx := context.Background()

	// 1. Config
	cfg := config.SystemDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	// 2. Modules
	root, err := module.Parse([]byte(tree))
	if err != nil {
		t.Fatal(err)
	}
	eng, err := engine.New(root, engine.DefaultRegistry(),
		engine.WithCache(cache.NewMemoryCache()))
	if err != nil {
		t.Fatal(err)
	}

	// 3. Check
	results, err := eng.ProcessAll(ctx, []engine.File{{Path: "Shop.java", Text: source}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || len(results[0].Violations) != 2 {
		t.Fatalf("expected 2 violations, got %+v", results)
	}
	if got := results[0].Violations[0].Source; got != "NPathComplexity" {
		t.Errorf("expected NPathComplexity first, got %s", got)
	}

	// 4. Assemble SARIF
	rs, err := rules.DefaultRules()
	if err != nil {
		t.Fatal(err)
	}
	sarifLog := sarif.Assemble(results, sarif.Descriptors(eng.Modules(), rs), "files", "test")
	if len(sarifLog.Results()) != 2 {
		t.Fatalf("expected 2 SARIF results, got %d", len(sarifLog.Results()))
	}

	// 5. Store
	fs := store.NewFileStore(t.TempDir())
	id, err := fs.WriteSARIF(ctx, sarifLog)
	if err != nil {
		t.Fatal(err)
	}

	// 6. Evaluate
	eval, err := evaluator.NewEvaluator("")
	if err != nil {
		t.Fatal(err)
	}
	verdict, err := eval.Evaluate(ctx, sarifLog)
	if err != nil {
		t.Fatal(err)
	}
	if verdict.Decision != store.DecisionReview {
		t.Errorf("expected 'review' for a warning-level result, got %q", verdict.Decision)
	}

	// 7. Store verdict
	if err := fs.WriteVerdict(ctx, id, verdict); err != nil {
		t.Fatal(err)
	}

	// 8. Verify storage round-trip
	loaded, err := fs.ReadVerdict(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Decision != store.DecisionReview {
		t.Errorf("expected stored verdict 'review', got %q", loaded.Decision)
	}
}
