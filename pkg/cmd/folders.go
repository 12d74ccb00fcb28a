package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/app"
)

var (
	foldersCmd = &cobra.Command{
		Use:   "folders",
		Short: "Folder hierarchy maintenance",
	}

	foldersRepairCmd = &cobra.Command{
		Use:   "repair-paths",
		Short: "recompute materialized paths from the parent chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd.Context(), func(ctx context.Context, core *app.Core) error {
				fixed, err := core.Folders.RepairPaths(ctx)
				if err != nil {
					return err
				}

				printf(cmd, "repaired %d folder path(s)\n", fixed)

				return nil
			})
		},
	}
)

func registerFolderCommands() {
	rootCmd.AddCommand(foldersCmd)
	foldersCmd.AddCommand(foldersRepairCmd)
}
