package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ufsc-france/gestion-backend/internal/stats"
	"github.com/ufsc-france/gestion-backend/pkg/season"
)

var countsHeader = []string{"total", "valide", "en_attente", "refuse", "other", "included", "paid"}

func countsRow(c stats.Counts) []string {
	return []string{
		strconv.Itoa(c.Total), strconv.Itoa(c.Valid), strconv.Itoa(c.Pending),
		strconv.Itoa(c.Refused), strconv.Itoa(c.Other), strconv.Itoa(c.Included), strconv.Itoa(c.Paid),
	}
}

func newStatsCmd() *cobra.Command {
	var (
		clubID    string
		seasonArg string
		format    string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show licence statistics",
		Long:  `Show licence counts for one club, or the federation overview when --club-id is omitted.`,
		Example: `  ufscctl stats --season 2025-2026
  ufscctl stats --club-id 3f0c... --format json`,
		Annotations: online(),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := parseFormat(format)
			if err != nil {
				return err
			}
			b, err := backendFrom(cmd)
			if err != nil {
				return err
			}
			label, err := resolveSeason(cmd.Context(), b.Seasons, seasonArg)
			if err != nil {
				return err
			}

			if strings.TrimSpace(clubID) != "" {
				id, err := uuid.Parse(strings.TrimSpace(clubID))
				if err != nil {
					return fmt.Errorf("invalid --club-id: %w", err)
				}
				res, err := b.Stats.ClubStats(cmd.Context(), id, label)
				if err != nil {
					return err
				}
				if out == formatJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				header := append([]string{"club_id", "season"}, countsHeader...)
				header = append(header, "quota_total", "quota_used", "quota_remaining")
				row := append([]string{res.ClubID.String(), res.Season}, countsRow(res.Licences)...)
				row = append(row, strconv.Itoa(res.Quota.Total), strconv.Itoa(res.Quota.Used), strconv.Itoa(res.Quota.Remaining))
				return writeRows(cmd.OutOrStdout(), out, header, [][]string{row})
			}

			overview, err := b.Stats.Overview(cmd.Context(), label)
			if err != nil {
				return err
			}
			if out == formatJSON {
				return writeJSON(cmd.OutOrStdout(), overview)
			}
			header := append([]string{"club_id", "name", "region"}, countsHeader...)
			rows := make([][]string, 0, len(overview.Clubs)+1)
			for _, c := range overview.Clubs {
				rows = append(rows, append([]string{c.ClubID.String(), c.Name, c.Region}, countsRow(c.Licences)...))
			}
			rows = append(rows, append([]string{"", "TOTAL", ""}, countsRow(overview.Totals)...))
			return writeRows(cmd.OutOrStdout(), out, header, rows)
		},
	}
	cmd.Flags().StringVar(&clubID, "club-id", "", "club to report on")
	cmd.Flags().StringVar(&seasonArg, "season", "", "season label YYYY-YYYY (defaults to the current season)")
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table, json or csv")
	return cmd
}

func resolveSeason(ctx context.Context, seasons seasonOps, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if !season.Valid(raw) {
			return "", fmt.Errorf("invalid --season %q, expected YYYY-YYYY", raw)
		}
		return raw, nil
	}
	current, err := seasons.CurrentSeason(ctx)
	if err != nil {
		return "", err
	}
	return current.String(), nil
}
