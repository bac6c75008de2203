package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newListCmd())
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the server's catalog",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newSDKClient()
			if err != nil {
				return err
			}
			defer client.Close()
			cmd.SilenceUsage = true

			catalog, err := client.Catalog(cmd.Context())
			if err != nil {
				return err
			}

			var total uint64
			for _, rec := range catalog {
				fmt.Printf("%s  %s  %s\n", rec.Digest[:12], humanize.Bytes(uint64(rec.Size)), cyan(rec.ID))
				total += uint64(rec.Size)
			}
			fmt.Printf("%d images, %s\n", len(catalog), humanize.Bytes(total))
			return nil
		},
	}
}
