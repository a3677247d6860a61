// Package analyze implements the analyze command: extract an article and
// list the people, organizations and media it mentions.
package analyze

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/curator/cmd/common"
	"github.com/jonesrussell/north-cloud/curator/cmd/scrape"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
)

// Command returns the analyze command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <article-url>",
		Short: "Extract an article and analyze its entities",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	cmd.Flags().StringP("strategy", "s", string(extractor.StrategySmart), "extraction strategy")
	cmd.Flags().StringP("instruction", "i", "", "editorial instruction for the analysis")
	common.AddCredentialFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	strategy, _ := cmd.Flags().GetString("strategy")
	instruction, _ := cmd.Flags().GetString("instruction")

	return common.RunWithPipeline(cmd, func(_ *common.CommandDeps, p *common.Pipeline) error {
		ctx := cmd.Context()
		res := p.Extractor.Scrape(ctx, args[0], extractor.Options{
			Strategy:    extractor.ParseStrategy(strategy),
			Instruction: instruction,
		})
		if res == nil || res.Article == nil {
			return fmt.Errorf("%s: %w", args[0], scrape.ErrExtractionFailed)
		}

		analysis, err := p.Analyzer.Analyze(ctx, res.Article, instruction, common.Credentials(cmd))
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		out := cmd.OutOrStdout()
		if common.WantsJSON(cmd) {
			return common.PrintJSON(out, map[string]any{"article": res.Article, "analysis": analysis})
		}
		fmt.Fprintf(out, "%s\n%s\n\n", res.Article.Title, res.Article.URL)
		RenderAnalysis(out, analysis)
		return nil
	})
}

// RenderAnalysis prints an entity extraction as a table.
func RenderAnalysis(w io.Writer, e *domain.EntityExtraction) {
	if e == nil {
		fmt.Fprintln(w, "No analysis available.")
		return
	}
	t := common.NewTable(w, table.Row{"Field", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: common.DefaultTableWidth}})
	t.AppendRows([]table.Row{
		{"Summary", common.OrNA(e.Summary)},
		{"People", common.OrNA(strings.Join(e.People, ", "))},
		{"Organizations", common.OrNA(strings.Join(e.Organizations, ", "))},
		{"Media", common.OrNA(strings.Join(e.Media, ", "))},
		{"Sentiment", common.OrNA(e.Sentiment)},
		{"Topics", common.OrNA(strings.Join(e.Topics, ", "))},
	})
	t.Render()
}
