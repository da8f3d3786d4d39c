package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	sheetApp "charsheet/internal/app"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "List, take and restore saved copies of the sheet",
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := sheetApp.OpenHeadless(cmd.Context(), cfgPath)
		if err != nil {
			return err
		}
		defer closeFn()

		backups, err := a.ListBackups()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tBYTES")
		for _, b := range backups {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", b.ID, b.CreatedAt.Local().Format(time.DateTime), b.Size)
		}
		return tw.Flush()
	},
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Back up the sheet now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := sheetApp.OpenHeadless(cmd.Context(), cfgPath)
		if err != nil {
			return err
		}
		defer closeFn()

		b, err := a.CreateBackup()
		if err != nil {
			return err
		}
		if b == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "unchanged since the last backup")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), b.ID)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Make a backup the current sheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := sheetApp.OpenHeadless(cmd.Context(), cfgPath)
		if err != nil {
			return err
		}
		defer closeFn()
		return a.RestoreBackup(args[0])
	},
}

func init() {
	backupCmd.AddCommand(backupListCmd, backupCreateCmd, backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}
