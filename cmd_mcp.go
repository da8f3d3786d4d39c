package main

import (
	"github.com/spf13/cobra"

	sheetApp "charsheet/internal/app"
)

// mcpCmd serves the sheet to AI agents on stdin/stdout.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the sheet over MCP on stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout against the same
storage the editor uses. Destructive tools (remove_block, reset_sheet) wait
for the editor window to approve them unless mcp.auto_approve is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sheetApp.ServeMCP(cfgPath)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
