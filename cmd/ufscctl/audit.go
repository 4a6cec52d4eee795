package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	"github.com/ufsc-france/gestion-backend/pkg/pagination"
)

const defaultAuditDays = 365

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail commands",
	}

	var days int
	cleanup := &cobra.Command{
		Use:         "cleanup",
		Short:       "Delete audit entries older than --days",
		Annotations: online(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			b, err := backendFrom(cmd)
			if err != nil {
				return err
			}
			deleted, err := b.Audit.Cleanup(cmd.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d audit entries older than %d days\n", deleted, days)
			return nil
		},
	}
	cleanup.Flags().IntVar(&days, "days", defaultAuditDays, "retention in days")

	statsCmd := &cobra.Command{
		Use:         "stats",
		Short:       "Count audit entries by action",
		Annotations: online(),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backendFrom(cmd)
			if err != nil {
				return err
			}
			st, err := b.Audit.Stats(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(st.ByAction)+1)
			for _, ac := range st.ByAction {
				rows = append(rows, []string{ac.Action.String(), strconv.FormatInt(ac.Count, 10)})
			}
			rows = append(rows, []string{"TOTAL", strconv.FormatInt(st.Total, 10)})
			return writeRows(cmd.OutOrStdout(), formatTable, []string{"action", "count"}, rows)
		},
	}

	var (
		limit  int
		action string
	)
	list := &cobra.Command{
		Use:         "list",
		Short:       "List recent audit entries",
		Annotations: online(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 || limit > pagination.MaxLimit {
				return fmt.Errorf("--limit must be between 1 and %d", pagination.MaxLimit)
			}
			b, err := backendFrom(cmd)
			if err != nil {
				return err
			}
			page, err := b.Audit.List(cmd.Context(), audit.ListFilter{
				Action: enums.AuditAction(action),
				Params: pagination.Params{Limit: limit},
			})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Items))
			for _, rec := range page.Items {
				rows = append(rows, []string{
					rec.CreatedAt.UTC().Format(time.RFC3339),
					rec.Action.String(),
					string(rec.EntityType),
					deref(rec.EntityID),
					uuidOrEmpty(rec.ActorID),
				})
			}
			return writeRows(cmd.OutOrStdout(), formatTable, []string{"created_at", "action", "entity", "entity_id", "actor"}, rows)
		},
	}
	list.Flags().IntVar(&limit, "limit", pagination.DefaultLimit, "number of entries")
	list.Flags().StringVar(&action, "action", "", "filter by action, e.g. licence.validated")

	cmd.AddCommand(cleanup, statsCmd, list)
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func uuidOrEmpty(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
