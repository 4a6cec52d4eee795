package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Statistics cache commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "purge",
		Short:       "Delete every cached statistics entry",
		Annotations: online(),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backendFrom(cmd)
			if err != nil {
				return err
			}
			removed, err := b.Stats.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d cache entries\n", removed)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:         "info",
		Short:       "Show statistics cache usage",
		Annotations: online(),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backendFrom(cmd)
			if err != nil {
				return err
			}
			info, err := b.Stats.Info(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "keys:    %d\n", info.Keys)
			fmt.Fprintf(w, "pattern: %s\n", info.Pattern)
			fmt.Fprintf(w, "ttl:     %s\n", info.TTL)
			return nil
		},
	})
	return cmd
}
