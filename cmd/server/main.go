package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/urpagin/wallsync/internal/server"
	"github.com/urpagin/wallsync/internal/version"
)

func main() {
	// .env is optional, env vars override it either way
	godotenv.Load()

	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stdout.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:     "wallsync-server",
		Short:   "WallSync image server",
		Version: version.Detailed(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			config := &server.Config{
				HTTP: server.HTTPConfig{
					Addr:     viper.GetString("addr"),
					CertFile: viper.GetString("cert_file"),
					KeyFile:  viper.GetString("key_file"),
				},
				ImageDir:       viper.GetString("image_dir"),
				DBPath:         viper.GetString("db_path"),
				MaxUploadBytes: viper.GetInt64("max_upload_bytes"),
				UploadRate:     viper.GetString("upload_rate"),
			}
			if config.DBPath == "" {
				// dotfiles are invisible to the startup reindex
				config.DBPath = filepath.Join(config.ImageDir, ".wallsync.db")
			}

			slog.Info(version.DetailedWithApp())

			s, err := server.New(config)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			return s.Start(cmd.Context())
		},
	}

	flags := rootCmd.Flags()
	flags.SortFlags = false
	flags.StringP("bind", "b", server.DefaultAddr, "Address to bind the server")
	flags.StringP("dir", "d", server.DefaultImageDir, "Directory holding the image bytes")
	flags.String("db", "", "Path to the index database (default <dir>/.wallsync.db)")
	flags.StringP("cert", "c", "", "Path to the TLS certificate file")
	flags.StringP("key", "k", "", "Path to the TLS key file")
	flags.Int64("max-upload", server.DefaultMaxUploadBytes, "Maximum accepted upload size in bytes")
	flags.String("upload-rate", server.DefaultUploadRate, "Per-IP rate limit for uploads and deletes")

	viper.BindPFlag("addr", flags.Lookup("bind"))
	viper.BindPFlag("image_dir", flags.Lookup("dir"))
	viper.BindPFlag("db_path", flags.Lookup("db"))
	viper.BindPFlag("cert_file", flags.Lookup("cert"))
	viper.BindPFlag("key_file", flags.Lookup("key"))
	viper.BindPFlag("max_upload_bytes", flags.Lookup("max-upload"))
	viper.BindPFlag("upload_rate", flags.Lookup("upload-rate"))
	viper.SetEnvPrefix("WALLSYNC")
	viper.AutomaticEnv()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
