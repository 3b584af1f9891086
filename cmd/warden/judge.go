package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chris-regnier/warden/internal/evaluator"
)

var judgeTracer = otel.Tracer("github.com/chris-regnier/warden/cmd/warden/judge")

func newJudgeCmd(g *globalOptions) *cobra.Command {
	var runID, gateDir string
	cmd := &cobra.Command{
		Use:   "judge",
		Short: "Re-evaluate a stored run with the gate policies",
		Long:  `Evaluate a previously stored run with the current Rego gate and store the new verdict. By default evaluates the most recent run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJudge(cmd, g, runID, gateDir)
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run id to evaluate (default: most recent)")
	cmd.Flags().StringVar(&gateDir, "gate", "", "Directory of Rego gate policies")
	return cmd
}

func runJudge(cmd *cobra.Command, g *globalOptions, runID, gateDir string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := g.open(cmd)
	if err != nil {
		return err
	}
	if gateDir != "" {
		s.cfg.GateDir = absFlag(gateDir)
	}
	if err := s.validate(); err != nil {
		return err
	}
	stopTelemetry, err := s.startTelemetry(ctx)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	st, closeStore, err := s.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if runID == "" {
		if runID, err = s.latestRun(ctx, st); err != nil {
			return err
		}
	}

	ctx, span := judgeTracer.Start(ctx, "judge",
		trace.WithAttributes(attribute.String("warden.run_id", runID)),
	)
	defer span.End()
	fail := func(err error) error {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	sarifLog, err := st.ReadSARIF(ctx, runID)
	if err != nil {
		return fail(fmt.Errorf("reading SARIF for %s: %w", runID, err))
	}
	eval, err := evaluator.NewEvaluator(s.resolve(s.cfg.GateDir))
	if err != nil {
		return fail(fmt.Errorf("creating evaluator: %w", err))
	}
	verdict, err := eval.Evaluate(ctx, sarifLog)
	if err != nil {
		return fail(fmt.Errorf("evaluating: %w", err))
	}
	if err := st.WriteVerdict(ctx, runID, verdict); err != nil {
		return fail(fmt.Errorf("storing verdict: %w", err))
	}
	span.SetAttributes(attribute.String("warden.decision", verdict.Decision))

	out, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
