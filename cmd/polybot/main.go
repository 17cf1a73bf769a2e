// Package main is the entry point for the polybot CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/polybotservice/polybot/internal/bot"
	"github.com/polybotservice/polybot/internal/config"
	"github.com/polybotservice/polybot/internal/core"
	"github.com/polybotservice/polybot/pkg/app"
	"github.com/spf13/cobra"

	// Modules register themselves from init.
	_ "github.com/polybotservice/polybot/internal/gateway"
	_ "github.com/polybotservice/polybot/modules/channel/telegram"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "polybot",
		Short:         "A Telegram bot that filters photos",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd(), transformCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and compiled modules",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "polybot %s (commit: %s, built: %s)\n", version, commit, date)
			fmt.Fprintln(out, "\nCompiled modules:")
			for _, ns := range []string{"bot", "channel", "gateway"} {
				for _, mod := range core.GetModulesByNamespace(ns) {
					fmt.Fprintf(out, "  %-18s %s\n", mod.ID, ns)
				}
			}
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start polybot with all configured modules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := runParams(cmd)
			if underServiceManager() {
				return runAsService(params)
			}
			return app.Run(cmd.Context(), params)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	cmd.Flags().String("log-level", "", "Override log.level (debug, info, warn, error)")
	cmd.Flags().String("data-dir", "", "Directory for downloaded and generated photos")
	return cmd
}

func runParams(cmd *cobra.Command) app.RunParams {
	cfgPath, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	return app.RunParams{
		ConfigPath: cfgPath,
		LogLevel:   level,
		DataDir:    dataDir,
		Version:    version,
		Commit:     commit,
		Date:       date,
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(configCheckCmd(), configInitCmd())
	return cmd
}

func configCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration and provision every module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := checkConfig(args[0], cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK (%d modules)\n", len(ids))
			for _, id := range ids {
				fmt.Fprintf(out, "  %s\n", id)
			}
			return nil
		},
	}
}

// checkConfig loads, validates and provisions the configuration at path
// without starting anything.
func checkConfig(path string, logOut io.Writer) ([]string, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg, bot.ModuleID); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	appCtx := core.NewAppContext(logger, app.DefaultDataDir()).WithModuleConfigs(cfg.Modules)
	application, err := app.Build(appCtx, cfg, logger)
	if err != nil {
		return nil, err
	}
	application.Stop()
	return config.Resolve(cfg), nil
}
