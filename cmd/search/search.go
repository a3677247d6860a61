// Package search implements the search command, which groups current
// headlines into topics.
package search

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/curator/cmd/common"
	"github.com/jonesrussell/north-cloud/curator/internal/curation"
)

const titleWidth = 60

// Command returns the search command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Group current headlines into topics",
		Long: `Search scans the hubs configured for a category (or the hubs given with --hub),
drops excluded URLs and asks the LLM to group the headlines into topics. Without a
usable provider it falls back to matching the query against headline titles.

Examples:
  curator search "election" --category world
  curator search --hub https://apnews.com/hub/technology --basic`,
		Args: cobra.MaximumNArgs(1),
		RunE: run,
	}
	cmd.Flags().StringP("category", "c", "", "hub catalog category")
	cmd.Flags().StringSlice("hub", nil, "hub URL to scan (repeatable, overrides the category)")
	cmd.Flags().StringSliceP("exclude", "x", nil, "article URL to exclude (repeatable)")
	cmd.Flags().StringP("instruction", "i", "", "editorial instruction for grouping")
	cmd.Flags().Bool("basic", false, "skip the LLM and match the query against titles")
	common.AddCredentialFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	req := curation.SearchRequest{Credentials: common.Credentials(cmd)}
	if len(args) == 1 {
		req.Query = args[0]
	}
	req.Category, _ = cmd.Flags().GetString("category")
	req.Hubs, _ = cmd.Flags().GetStringSlice("hub")
	req.ExcludeURLs, _ = cmd.Flags().GetStringSlice("exclude")
	req.Instruction, _ = cmd.Flags().GetString("instruction")
	req.Basic, _ = cmd.Flags().GetBool("basic")

	return common.RunWithPipeline(cmd, func(_ *common.CommandDeps, p *common.Pipeline) error {
		res, err := p.Curator.Search(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		out := cmd.OutOrStdout()
		if common.WantsJSON(cmd) {
			return common.PrintJSON(out, res)
		}
		RenderTopics(out, res, req.Query)
		return nil
	})
}

// RenderTopics prints one row per topic with its lead source.
func RenderTopics(w io.Writer, res *curation.SearchResult, query string) {
	if len(res.Results) == 0 {
		fmt.Fprintln(w, "No topics found.")
		return
	}

	t := common.NewTable(w, table.Row{"#", "Topic", "Title", "Sources", "Lead URL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: titleWidth},
		{Number: 5, WidthMax: common.DefaultTableWidth / 3},
	})
	for i, topic := range res.Results {
		lead := ""
		if len(topic.Sources) > 0 {
			lead = topic.Sources[0].URL
		}
		t.AppendRow(table.Row{i + 1, topic.Topic, topic.SyntheticTitle, len(topic.Sources), common.OrNA(lead)})
	}
	t.AppendFooter(table.Row{"Total", len(res.Results), "Query: " + common.OrNA(query), "", ""})
	t.Render()
}
