package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urpagin/wallsync/internal/client/config"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the current flags as a config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			path := config.DefaultConfigPath
			if cmd.Flag("config").Changed {
				path, _ = cmd.Flags().GetString("config")
			}

			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("%s %s\n", green("config written:"), cyan(path))
			return nil
		},
	}
}
