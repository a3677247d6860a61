// Package hunt implements the hunt command: discover hubs for a category,
// pick the best headline, extract and analyze it.
package hunt

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/curator/cmd/analyze"
	"github.com/jonesrussell/north-cloud/curator/cmd/common"
	"github.com/jonesrussell/north-cloud/curator/cmd/scrape"
	"github.com/jonesrussell/north-cloud/curator/internal/curation"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
)

// Command returns the hunt command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hunt <category>",
		Short: "Find, extract and analyze the best current article for a category",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	cmd.Flags().StringP("instruction", "i", "", "editorial instruction for hub discovery and selection")
	cmd.Flags().StringSliceP("exclude", "x", nil, "article URL to exclude (repeatable)")
	cmd.Flags().StringP("strategy", "s", string(extractor.StrategySmart), "extraction strategy")
	common.AddCredentialFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	req := curation.HuntRequest{Category: args[0], Credentials: common.Credentials(cmd)}
	req.Instruction, _ = cmd.Flags().GetString("instruction")
	req.ExcludeURLs, _ = cmd.Flags().GetStringSlice("exclude")
	strategy, _ := cmd.Flags().GetString("strategy")
	req.Strategy = extractor.ParseStrategy(strategy)

	return common.RunWithPipeline(cmd, func(_ *common.CommandDeps, p *common.Pipeline) error {
		res, err := p.Curator.Hunt(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("hunt: %w", err)
		}

		out := cmd.OutOrStdout()
		if common.WantsJSON(cmd) {
			return common.PrintJSON(out, res)
		}
		render(out, res)
		return nil
	})
}

func render(w io.Writer, res *curation.HuntResult) {
	j := res.Journey
	fmt.Fprintf(w, "Hubs: %s\n", strings.Join(j.Hubs, ", "))
	fmt.Fprintf(w, "Headlines considered: %d\n", j.HeadlineCount)
	if len(j.Fallbacks) > 0 {
		fmt.Fprintf(w, "Fallbacks: %s\n", strings.Join(j.Fallbacks, ", "))
	}
	fmt.Fprintln(w)

	if res.Article == nil {
		fmt.Fprintln(w, "Every headline was excluded; nothing to extract.")
		return
	}
	scrape.RenderArticle(w, res.Article)
	fmt.Fprintln(w)
	analyze.RenderAnalysis(w, res.Analysis)
}
