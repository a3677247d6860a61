// Package scan implements the scan command, which lists headlines on a hub page.
package scan

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/curator/cmd/common"
)

const titleWidth = 70

// ErrNoHeadlines is returned when the hub yields nothing usable.
var ErrNoHeadlines = errors.New("no headlines found")

// Command returns the scan command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <hub-url>",
		Short: "List article headlines found on a hub page",
		Long: `Scan fetches a section or front page (falling back to a headless browser when
the page is thin) and lists up to 30 article headlines with their images.

Examples:
  curator scan https://apnews.com/hub/world-news
  curator scan --json https://www.reuters.com/world/`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	return common.RunWithPipeline(cmd, func(_ *common.CommandDeps, p *common.Pipeline) error {
		res := p.Scanner.Scan(cmd.Context(), args[0])
		if res == nil {
			return fmt.Errorf("%s: %w", args[0], ErrNoHeadlines)
		}

		out := cmd.OutOrStdout()
		if common.WantsJSON(cmd) {
			return common.PrintJSON(out, res)
		}

		t := common.NewTable(out, table.Row{"#", "Title", "URL", "Image"})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, WidthMax: titleWidth},
			{Number: 3, WidthMax: common.DefaultTableWidth / 3},
			{Number: 4, WidthMax: common.DefaultTableWidth / 4},
		})
		for i, h := range res.Headlines {
			t.AppendRow(table.Row{i + 1, h.Title, h.URL, common.OrNA(h.Image)})
		}
		t.AppendFooter(table.Row{"Total", len(res.Headlines), res.Source, ""})
		t.Render()
		return nil
	})
}
