// Package cmd wires the curator command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/curator/cmd/analyze"
	"github.com/jonesrussell/north-cloud/curator/cmd/common"
	"github.com/jonesrussell/north-cloud/curator/cmd/httpd"
	"github.com/jonesrussell/north-cloud/curator/cmd/hunt"
	"github.com/jonesrussell/north-cloud/curator/cmd/scan"
	"github.com/jonesrussell/north-cloud/curator/cmd/scrape"
	"github.com/jonesrussell/north-cloud/curator/cmd/search"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "curator",
		Short: "Discover, extract and analyze news articles",
		Long: `Curator scans news hub pages for headlines, extracts article content with a
plain fetch or a headless browser, and uses an LLM to group, select and analyze
stories. Configuration comes from config.yaml, .env files and CURATOR_* variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String(common.FlagConfig, "",
		"config file (default is ./config.yaml or ./config/config.yaml)")
	root.PersistentFlags().Bool(common.FlagDebug, false, "enable debug logging")
	root.PersistentFlags().Bool(common.FlagJSON, false, "print raw JSON instead of tables")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "curator version %s\n", Version)
		},
	})

	root.AddCommand(scan.Command())
	root.AddCommand(scrape.Command())
	root.AddCommand(analyze.Command())
	root.AddCommand(search.Command())
	root.AddCommand(hunt.Command())
	root.AddCommand(httpd.Command(Version))

	return root
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand().ExecuteContext(ctx)
}
