package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	sheetApp "charsheet/internal/app"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the sheet as a versioned JSON snapshot (stdout when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := sheetApp.OpenHeadless(cmd.Context(), cfgPath)
		if err != nil {
			return err
		}
		defer closeFn()

		data, err := a.ExportJSON()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), data)
			return err
		}
		return os.WriteFile(args[0], []byte(data), 0o644)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the sheet with a JSON snapshot",
	Long: `Replaces the current sheet with the snapshot in file. Snapshots from
older versions are migrated. A file that does not decode leaves the sheet
untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		a, closeFn, err := sheetApp.OpenHeadless(cmd.Context(), cfgPath)
		if err != nil {
			return err
		}
		defer closeFn()
		return a.ImportJSON(string(data))
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}
