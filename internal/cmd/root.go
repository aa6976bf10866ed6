package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/vlist/internal/config"
	"github.com/charmbracelet/vlist/internal/log"
	"github.com/spf13/cobra"
)

var version = "devel"

func init() {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}

	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().String("config", "", "Config file merged over the global and project configs")
}

var rootCmd = &cobra.Command{
	Use:   "vlist",
	Short: "Virtual scrolling for lists of variable height items",
	Long: heredoc.Doc(`
		vlist lays out very long lists whose items have different heights.
		Only the items near the viewport are rendered and measured; every
		other item is positioned from an estimate until it scrolls into view.
	`),
	Example: heredoc.Doc(`
		# Browse ten thousand generated items
		vlist demo --items 10000

		# Print one frame of the list without a terminal UI
		vlist render --items 500 --offset 120 --height 20

		# Show which items a 500px viewport at 750px needs
		vlist range --items 100 --offset 750 --height 500 --format json

		# Hammer the frame scheduler for five seconds
		vlist simulate --duration 5s
	`),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := fang.Execute(ctx, rootCmd, fang.WithVersion(version)); err != nil {
		cancel()
		os.Exit(1)
	}
}

// setupApp loads the configuration for the working directory selected by the
// global flags and starts file logging.
func setupApp(cmd *cobra.Command) (*config.Config, error) {
	isDebug, _ := cmd.Flags().GetBool("debug")
	extra, _ := cmd.Flags().GetString("config")

	cwd, err := resolveCwd(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cwd, extra, isDebug)
	if err != nil {
		return nil, err
	}
	log.Setup(cfg.LogFile(), cfg.Options.Debug)
	return cfg, nil
}

func resolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", cwd, err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("working directory %s does not exist", cwd)
	}
	return abs, nil
}
