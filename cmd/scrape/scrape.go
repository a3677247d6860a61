// Package scrape implements the scrape command, which extracts one article.
package scrape

import (
	"errors"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/curator/cmd/common"
	"github.com/jonesrussell/north-cloud/curator/internal/domain"
	"github.com/jonesrussell/north-cloud/curator/internal/extractor"
)

// TextPreviewLength bounds the article text printed in table mode.
const TextPreviewLength = 1500

// ErrExtractionFailed is returned when no strategy produced readable content.
var ErrExtractionFailed = errors.New("extraction failed")

// Command returns the scrape command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape <article-url>",
		Short: "Extract the main content of an article",
		Long: `Scrape extracts the readable body of an article page.

Strategies:
  smart         plain fetch, then headless browser when the text is thin (default)
  fetch-only    plain fetch only
  browser-only  headless browser only`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}
	cmd.Flags().StringP("strategy", "s", string(extractor.StrategySmart), "extraction strategy")
	cmd.Flags().StringP("instruction", "i", "", "free-text instruction recorded with the request")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	strategy, _ := cmd.Flags().GetString("strategy")
	instruction, _ := cmd.Flags().GetString("instruction")

	return common.RunWithPipeline(cmd, func(_ *common.CommandDeps, p *common.Pipeline) error {
		res := p.Extractor.Scrape(cmd.Context(), args[0], extractor.Options{
			Strategy:    extractor.ParseStrategy(strategy),
			Instruction: instruction,
		})
		if res == nil || res.Article == nil {
			return fmt.Errorf("%s: %w", args[0], ErrExtractionFailed)
		}

		if common.WantsJSON(cmd) {
			return common.PrintJSON(cmd.OutOrStdout(), res.Article)
		}
		RenderArticle(cmd.OutOrStdout(), res.Article)
		return nil
	})
}

// RenderArticle prints article metadata as a table followed by a text preview.
func RenderArticle(w io.Writer, a *domain.ScrapedArticle) {
	t := common.NewTable(w, table.Row{"Field", "Value"})
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: common.DefaultTableWidth}})
	t.AppendRows([]table.Row{
		{"Title", common.OrNA(a.Title)},
		{"URL", a.URL},
		{"Byline", common.OrNA(a.Byline)},
		{"Site", common.OrNA(a.SiteName)},
		{"Language", common.OrNA(a.Lang)},
		{"Length", a.Length},
		{"Excerpt", common.OrNA(a.Excerpt)},
	})
	t.Render()

	fmt.Fprintf(w, "\n%s\n", common.Truncate(a.TextContent, TextPreviewLength))
}
