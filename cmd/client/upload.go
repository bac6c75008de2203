package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/urpagin/wallsync/internal/sdk"
)

func init() {
	rootCmd.AddCommand(newUploadCmd())
}

func newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload one or more images to the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSDKClient()
			if err != nil {
				return err
			}
			defer client.Close()
			cmd.SilenceUsage = true

			var failed int
			for _, path := range args {
				rec, err := client.Upload(cmd.Context(), path)
				if err != nil {
					fmt.Printf("%s %s: %v\n", red("!"), path, err)
					failed++
					continue
				}
				fmt.Printf("%s %s as %s (%s)\n", green("uploaded"), path, cyan(rec.ID), humanize.Bytes(uint64(rec.Size)))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(args))
			}
			return nil
		},
	}
}

func newSDKClient() (*sdk.Client, error) {
	cfg, err := configFromFlags()
	if err != nil {
		return nil, err
	}

	var opts []sdk.Option
	if cfg.User != "" {
		opts = append(opts, sdk.WithBasicAuth(cfg.User, cfg.Password))
	}
	return sdk.New(cfg.ServerURL, opts...)
}
