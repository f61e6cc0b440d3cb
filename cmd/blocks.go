// File: cmd/blocks.go
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
	"github.com/xkilldash9x/pagescope-cli/internal/browser"
	"github.com/xkilldash9x/pagescope-cli/internal/observability"
	"github.com/xkilldash9x/pagescope-cli/internal/service"
)

// blockReport is one top-level result block in the JSON output.
type blockReport struct {
	Role     string        `json:"role"`
	Name     string        `json:"name,omitempty"`
	Children []blockReport `json:"children,omitempty"`
}

func newBlocksCommand() *cobra.Command {
	var headerLabel string

	blocksCmd := &cobra.Command{
		Use:   "blocks <url>",
		Short: "Group a results page into logical blocks",
		Long: `Blocks navigates to the URL, locates the results region announced by the
header label, and prints one block per logical result. Each block is the
accessibility subtree a human would perceive as a single entry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			url := args[0]

			if headerLabel == "" {
				headerLabel = cfg.Extractor.HeaderLabel
			}

			session, err := browser.NewSession(ctx, cfg.Browser, logger)
			if err != nil {
				return err
			}
			defer session.Close()

			model := service.New(session, cfg.Extractor, nil, logger)

			if err := session.Navigate(ctx, url); err != nil {
				return err
			}

			nodes, err := model.ExtractBlocks(ctx, headerLabel)
			if err != nil {
				return err
			}

			reports := make([]blockReport, 0, len(nodes))
			for _, node := range nodes {
				reports = append(reports, toBlockReport(node))
			}
			return encodeTo(os.Stdout, reports)
		},
	}

	blocksCmd.Flags().StringVar(&headerLabel, "header", "", "header text announcing the results region (defaults to extractor.header_label)")

	return blocksCmd
}

// toBlockReport converts an accessibility subtree into the printable shape.
// Iterative to keep deep trees off the call stack.
func toBlockReport(root *schemas.AccessibilityNode) blockReport {
	out := blockReport{Role: root.Role, Name: root.Name}

	type frame struct {
		node   *schemas.AccessibilityNode
		report *blockReport
	}
	stack := []frame{{node: root, report: &out}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		f.report.Children = make([]blockReport, len(f.node.Children))
		for i, child := range f.node.Children {
			f.report.Children[i] = blockReport{Role: child.Role, Name: child.Name}
			stack = append(stack, frame{node: child, report: &f.report.Children[i]})
		}
		if len(f.node.Children) == 0 {
			f.report.Children = nil
		}
	}
	return out
}
