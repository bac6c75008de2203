package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/urpagin/wallsync/internal/sdk"
)

func init() {
	rootCmd.AddCommand(newRemoveCmd())
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID...",
		Aliases: []string{"rm"},
		Short:   "Remove images from the server by id",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSDKClient()
			if err != nil {
				return err
			}
			defer client.Close()
			cmd.SilenceUsage = true

			var failed int
			for _, id := range args {
				err := client.Delete(cmd.Context(), id)
				switch {
				case errors.Is(err, sdk.ErrNotFound):
					fmt.Printf("%s %s: no such image\n", red("!"), id)
					failed++
				case err != nil:
					fmt.Printf("%s %s: %v\n", red("!"), id, err)
					failed++
				default:
					fmt.Printf("%s %s\n", green("removed"), cyan(id))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d removals failed", failed, len(args))
			}
			return nil
		},
	}
}
