// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/app"
	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/log"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:          configs.AppName,
		Short:        "Document library backend with locked object storage and presigned uploads",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode (overrides server.debug)")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerEventsCommands()
	registerStorageCommands()
	registerVaultCommands()
	registerFolderCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig 读取配置并初始化日志，只有需要配置的子命令才调用.
func loadConfig() (*configs.AppConfig, error) {
	if err := configs.InitConfig(configPath); err != nil {
		return nil, err
	}

	cfg := configs.GetConfig()
	if debug {
		cfg.Server.Debug = true
		cfg.Log.Level = "debug"
	}

	log.Init()

	return cfg, nil
}

// withCore 加载配置并打开数据与领域层，执行 fn 后关闭.
func withCore(ctx context.Context, fn func(ctx context.Context, core *app.Core) error) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	core, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := core.Close(); cerr != nil {
			log.Logger().Warn().Err(cerr).Msg("close resources")
		}
	}()

	return fn(ctx, core)
}

func printf(cmd *cobra.Command, format string, a ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, a...)
}
