package cmd

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/app"
)

var (
	unlockBy string

	storageCmd = &cobra.Command{
		Use:   "storage",
		Short: "Object storage configuration commands",
	}

	storageStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "print the stored configuration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd.Context(), func(ctx context.Context, core *app.Core) error {
				st, err := core.Storage.Status(ctx)
				if err != nil {
					return err
				}

				return printJSON(cmd, st)
			})
		},
	}

	storageTestCmd = &cobra.Command{
		Use:   "test",
		Short: "test the stored configuration against the bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd.Context(), func(ctx context.Context, core *app.Core) error {
				result, err := core.Storage.Test(ctx, nil)
				if err != nil {
					return err
				}

				if err := printJSON(cmd, result); err != nil {
					return err
				}

				if !result.Success {
					return fmt.Errorf("connection test failed: %s", result.Message)
				}

				return nil
			})
		},
	}

	// 运维解锁，等价于 DELETE /api/storage/lock.
	storageUnlockCmd = &cobra.Command{
		Use:   "unlock",
		Short: "remove the configuration lock so storage can be reconfigured",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(cmd.Context(), func(ctx context.Context, core *app.Core) error {
				if err := core.Storage.RemoveLock(ctx, unlockBy); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "Storage configuration unlocked")

				return nil
			})
		},
	}
)

// printJSON 以缩进 JSON 输出，字段顺序与 encoding/json 一致.
func printJSON(cmd *cobra.Command, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	return nil
}

// registerStorageCommands 注册存储配置相关命令.
func registerStorageCommands() {
	storageUnlockCmd.Flags().StringVar(&unlockBy, "by", "cli", "operator recorded in the unlock event")

	rootCmd.AddCommand(storageCmd)
	storageCmd.AddCommand(storageStatusCmd)
	storageCmd.AddCommand(storageTestCmd)
	storageCmd.AddCommand(storageUnlockCmd)
}
