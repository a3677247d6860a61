// Package httpd implements the httpd command, which serves the curator HTTP API.
package httpd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/curator/cmd/common"
	"github.com/jonesrussell/north-cloud/curator/internal/api"
	"github.com/jonesrussell/north-cloud/curator/internal/logger"
	"github.com/jonesrussell/north-cloud/curator/internal/session"
)

// Command returns the httpd command.
func Command(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the curator HTTP API",
		Long: `Httpd serves scan, scrape, analyze, search and hunt over HTTP, plus /health
and Prometheus /metrics. Sessions are kept in Redis when redis.address is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.RunWithPipeline(cmd, func(deps *common.CommandDeps, p *common.Pipeline) error {
				return serve(cmd, deps, p, version)
			})
		},
	}
}

func serve(cmd *cobra.Command, deps *common.CommandDeps, p *common.Pipeline, version string) error {
	log := deps.Logger
	cfg := deps.Config

	store, err := session.Open(cfg.Redis, log)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Warn("Session store close failed", logger.Error(closeErr))
		}
	}()

	cfg.Server.ServiceVersion = version

	handler := api.NewHandler(api.Deps{
		Scanner:  p.Scanner,
		Scraper:  p.Extractor,
		Analyzer: p.Analyzer,
		Curator:  p.Curator,
		Sessions: store,
		Gatherer: p.Registry,
		Logger:   log,
	}, cfg.Server)

	server := api.NewServer(cfg.Server, log, handler.Register)
	return server.RunWithGracefulShutdown(cmd.Context())
}
