package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chris-regnier/warden/internal/engine"
	"github.com/chris-regnier/warden/internal/evaluator"
	"github.com/chris-regnier/warden/internal/input"
	"github.com/chris-regnier/warden/internal/metrics"
	"github.com/chris-regnier/warden/internal/output"
	"github.com/chris-regnier/warden/internal/sarif"
	"github.com/chris-regnier/warden/internal/store"
)

var checkTracer = otel.Tracer("github.com/chris-regnier/warden/cmd/warden/check")

type checkOptions struct {
	config  string
	format  string
	out     string
	store   string
	gate    string
	cache   string
	noCache bool
	diff    string
	metrics string
}

func newCheckCmd(g *globalOptions) *cobra.Command {
	o := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Check Java sources and gate the result",
		Long: `Check the named files and directories (default: the project directory)
with the configured module tree, store the SARIF log and the gate verdict,
and print a report.

Exits 1 when any error-severity violation is found or the gate rejects.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, g, o, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.config, "config", "", "Module tree YAML (default: built-in checks and rule pack)")
	f.StringVarP(&o.format, "format", "f", "", "Report format: plain, json, sarif, markdown, pretty")
	f.StringVar(&o.out, "out", "", "Where runs are stored (directory for file, database for sqlite)")
	f.StringVar(&o.store, "store", "", "Run store backend: file or sqlite")
	f.StringVar(&o.gate, "gate", "", "Directory of Rego gate policies (default: built-in gate)")
	f.StringVar(&o.cache, "cache", "", "Result cache directory")
	f.BoolVar(&o.noCache, "no-cache", false, "Do not read or write cached results")
	f.StringVar(&o.diff, "diff", "", "Only check files changed in this unified diff (- for stdin)")
	f.StringVar(&o.metrics, "metrics", "", "Write run statistics as JSON to this file")
	return cmd
}

func (o *checkOptions) apply(s *session) {
	if o.config != "" {
		s.cfg.Modules = absFlag(o.config)
	}
	if o.format != "" {
		s.cfg.Format = o.format
	}
	if o.store != "" {
		s.cfg.Store.Backend = o.store
	}
	if o.out != "" {
		s.cfg.Store.Path = absFlag(o.out)
	}
	if o.gate != "" {
		s.cfg.GateDir = absFlag(o.gate)
	}
	if o.cache != "" {
		s.cfg.CacheDir = absFlag(o.cache)
	}
	if o.noCache {
		s.cfg.CacheDir = ""
		s.cfg.RemoteCache.URL = ""
	}
}

// targets returns the paths to check and the SARIF input scope they form.
func (o *checkOptions) targets(cmd *cobra.Command, s *session, args []string) ([]string, string, error) {
	if o.diff != "" {
		var data []byte
		var err error
		if o.diff == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(o.diff)
		}
		if err != nil {
			return nil, "", fmt.Errorf("reading diff: %w", err)
		}
		var paths []string
		for _, p := range input.ChangedPaths(string(data)) {
			paths = append(paths, filepath.Join(s.dir, p))
		}
		return paths, "diff", nil
	}
	if len(args) == 0 {
		return []string{s.dir}, "directory", nil
	}
	return args, "files", nil
}

func runCheck(cmd *cobra.Command, g *globalOptions, o *checkOptions, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := g.open(cmd)
	if err != nil {
		return err
	}
	o.apply(s)
	if err := s.validate(); err != nil {
		return err
	}

	stopTelemetry, err := s.startTelemetry(ctx)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	ctx, span := checkTracer.Start(ctx, "check")
	defer span.End()
	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	collector := metrics.NewCollector()
	eng, rs, err := s.buildEngine(s.resultCache(), collector)
	if err != nil {
		return fail(err)
	}

	paths, scope, err := o.targets(cmd, s, args)
	if err != nil {
		return fail(err)
	}
	files, err := input.NewHandler(eng.Accepts, s.logger).Collect(paths)
	if err != nil {
		return fail(fmt.Errorf("reading input: %w", err))
	}
	s.logger.Info("checking", "files", len(files), "scope", scope)

	results, err := eng.ProcessAll(ctx, files)
	if err != nil {
		return fail(fmt.Errorf("checking: %w", err))
	}

	sarifLog := sarif.NewAssembler(version).
		AddRules(sarif.Descriptors(eng.Modules(), rs)).
		AddResults(results).
		WithInputScope(scope).
		WithFingerprint(eng.Fingerprint()).
		Build()

	verdict, runID, err := gate(ctx, s, sarifLog)
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(
		attribute.String("warden.run_id", runID),
		attribute.String("warden.decision", verdict.Decision),
		attribute.Int("warden.files", len(files)),
	)
	s.logger.Info("run stored", "id", runID, "decision", verdict.Decision)

	stats := collector.GetStats()
	if o.metrics != "" {
		if err := metrics.NewExporter(collector).ExportStatsJSON(o.metrics); err != nil {
			return fail(fmt.Errorf("writing metrics: %w", err))
		}
	}

	sources := make(map[string]string, len(files))
	for _, f := range files {
		sources[f.Path] = f.Text
	}
	report := &output.AnalysisOutput{
		Results:  results,
		SARIFLog: sarifLog,
		Verdict:  verdict,
		Stats:    &stats,
		Sources:  sources,
	}
	if err := writeReport(cmd.OutOrStdout(), s.cfg.Format, report); err != nil {
		return fail(err)
	}

	if failed(results, verdict) {
		return errCheckFailed
	}
	return nil
}

// gate stores the run, evaluates the gate policies on it and stores the
// verdict next to it.
func gate(ctx context.Context, s *session, sarifLog *sarif.Log) (*store.Verdict, string, error) {
	st, closeStore, err := s.openStore()
	if err != nil {
		return nil, "", err
	}
	defer closeStore()

	runID, err := st.WriteSARIF(ctx, sarifLog)
	if err != nil {
		return nil, "", fmt.Errorf("storing SARIF: %w", err)
	}
	eval, err := evaluator.NewEvaluator(s.resolve(s.cfg.GateDir))
	if err != nil {
		return nil, "", fmt.Errorf("creating evaluator: %w", err)
	}
	verdict, err := eval.Evaluate(ctx, sarifLog)
	if err != nil {
		return nil, "", fmt.Errorf("evaluating: %w", err)
	}
	if err := st.WriteVerdict(ctx, runID, verdict); err != nil {
		return nil, "", fmt.Errorf("storing verdict: %w", err)
	}
	return verdict, runID, nil
}

func writeReport(w io.Writer, format string, report *output.AnalysisOutput) error {
	format = output.ResolveFormat(format, isTerminal(w))
	f, err := output.NewFormatter(format)
	if err != nil {
		return err
	}
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func failed(results []engine.Result, verdict *store.Verdict) bool {
	return output.Summarize(results).Errors > 0 || verdict.Decision == store.DecisionReject
}
