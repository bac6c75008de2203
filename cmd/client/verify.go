package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urpagin/wallsync/internal/client/sync"
)

func init() {
	rootCmd.AddCommand(newVerifyCmd())
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Re-hash the local mirror and report corrupted files",
		Args:  cobra.NoArgs,
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

			bad, err := engine.Verify(cmd.Context())
			if err != nil {
				return err
			}

			if len(bad) == 0 {
				fmt.Printf("%s %s\n", green("mirror intact:"), cyan(cfg.Dir))
				return nil
			}

			for _, recErr := range bad {
				fmt.Printf("%s %v\n", red("!"), recErr)
			}
			fmt.Println("run a sync to repair")
			exitCode = exitPartial
			return nil
		},
	}
}
