package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type backendKey struct{}

const needsBackend = "backend"

// online marks a leaf command as requiring database and redis access.
func online() map[string]string {
	return map[string]string{needsBackend: "true"}
}

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "ufscctl",
		Short:         "UFSC Gestion operator tool",
		Long:          `Inspect statistics, manage the statistics cache, audit trail and accounts of the UFSC licence backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[needsBackend] != "true" {
				return nil
			}
			b, err := open(cmd.Context())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), backendKey{}, b))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if b, ok := cmd.Context().Value(backendKey{}).(*backend); ok {
				return b.Close()
			}
			return nil
		},
	}
	root.SetContext(context.Background())

	root.AddCommand(newStatsCmd())
	root.AddCommand(newCacheCmd())
	root.AddCommand(newAuditCmd())
	root.AddCommand(newUsersCmd())
	return root
}

func backendFrom(cmd *cobra.Command) (*backend, error) {
	b, ok := cmd.Context().Value(backendKey{}).(*backend)
	if !ok || b == nil {
		return nil, fmt.Errorf("backend not connected")
	}
	return b, nil
}
