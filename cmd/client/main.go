package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/urpagin/wallsync/internal/client/config"
	"github.com/urpagin/wallsync/internal/client/sync"
	"github.com/urpagin/wallsync/internal/version"
)

// exit codes for scripted callers (cron, systemd timers)
const (
	exitOK      = 0
	exitError   = 1
	exitPartial = 2
)

// set by commands instead of calling os.Exit, so deferred cleanup runs
var exitCode = exitOK

func exitCodeFor(r *sync.Result) int {
	if r.Converged() {
		return exitOK
	}
	return exitPartial
}

var (
	home, _ = os.UserHomeDir()

	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:     "wallsync",
	Short:   "WallSync client",
	Long:    "Mirrors the server's wallpaper collection into a local directory.",
	Version: version.Detailed(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags()
		if err != nil {
			return err
		}
		cmd.SilenceUsage = true

		engine, err := sync.NewEngine(cfg)
		if err != nil {
			return err
		}
		defer engine.Close()

		result, err := engine.Run(cmd.Context())
		if err != nil {
			if errors.Is(err, sync.ErrAlreadyRunning) {
				fmt.Println(red("another wallsync is already syncing this directory"))
			}
			return err
		}

		printResult(cfg.Dir, result)
		exitCode = exitCodeFor(result)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("server", "s", "", "WallSync server URL")
	rootCmd.PersistentFlags().StringP("dir", "d", config.DefaultDir, "Local mirror directory")
	rootCmd.PersistentFlags().StringP("user", "u", "", "Basic auth user for the edge proxy")
	rootCmd.PersistentFlags().StringP("password", "p", "", "Basic auth password for the edge proxy")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "WallSync config file")
}

func main() {
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		exitCode = exitError
	}
	os.Exit(exitCode)
}

func loadConfig(cmd *cobra.Command) error {
	if cmd.Flag("config").Changed {
		viper.SetConfigFile(cmd.Flag("config").Value.String())
	} else {
		viper.AddConfigPath(filepath.Join(home, ".wallsync"))
		viper.AddConfigPath(filepath.Join(home, ".config", "wallsync"))
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read %q: %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("server_url", cmd.Flags().Lookup("server"))
	viper.BindPFlag("dir", cmd.Flags().Lookup("dir"))
	viper.BindPFlag("user", cmd.Flags().Lookup("user"))
	viper.BindPFlag("password", cmd.Flags().Lookup("password"))

	viper.SetEnvPrefix("WALLSYNC")
	viper.AutomaticEnv()

	return nil
}

// configFromFlags builds and validates the effective config after viper has
// merged file, env and flag values.
func configFromFlags() (*config.Config, error) {
	cfg := &config.Config{
		Path:      viper.ConfigFileUsed(),
		ServerURL: viper.GetString("server_url"),
		Dir:       viper.GetString("dir"),
		User:      viper.GetString("user"),
		Password:  viper.GetString("password"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printResult(dir string, r *sync.Result) {
	if r.Failed > 0 {
		fmt.Printf("%s %d of %d transfers failed\n", red("partial sync:"), r.Failed, r.Fetched+r.Removed+r.Failed)
		for _, recErr := range r.Errors {
			fmt.Printf("  %s %v\n", red("!"), recErr)
		}
		return
	}
	fmt.Printf("%s %s (fetched %d, removed %d, skipped %d)\n",
		green("in sync:"), cyan(dir), r.Fetched, r.Removed, r.Skipped)
}
