package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/warden/internal/cache"
	"github.com/chris-regnier/warden/internal/metrics"
	"github.com/chris-regnier/warden/internal/server"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var addr, token string
	var cacheSize int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the check API and a shared result cache over HTTP",
		Long: `Serve POST /v1/check, GET /v1/modules, GET /v1/stats and GET /healthz,
plus /v1/cache endpoints other warden instances can use as their remote cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := g.open(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				s.cfg.Server.Addr = addr
			}
			if err := s.validate(); err != nil {
				return err
			}
			stopTelemetry, err := s.startTelemetry(ctx)
			if err != nil {
				return err
			}
			defer stopTelemetry()

			shared := cache.NewMemoryCache(cache.WithMaxSize(cacheSize))
			collector := metrics.NewCollector()
			eng, rs, err := s.buildEngine(shared, collector)
			if err != nil {
				return err
			}

			srv := server.New(eng,
				server.WithCache(shared),
				server.WithCollector(collector),
				server.WithRules(rs),
				server.WithToken(token),
				server.WithVersion(version),
				server.WithLogger(s.logger),
			)
			return srv.ListenAndServe(ctx, s.cfg.Server.Addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:8765)")
	cmd.Flags().StringVar(&token, "token", "", "Require this bearer token on /v1 routes")
	cmd.Flags().IntVar(&cacheSize, "cache-size", 10000, "Maximum number of cached file results")
	return cmd
}
