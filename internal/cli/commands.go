package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ecotrack/internal/app"
	"ecotrack/models"
	"ecotrack/services"
)

// NewResetPeriodsCommand zeroes weekly and monthly points whose period rolled over.
func NewResetPeriodsCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-periods",
		Short: "Reset weekly and monthly points at period boundaries",
		Long: `Zero weeklyPoints and monthlyPoints for every user whose last reset
predates the current period under the configured reset policy.
Total points are never changed. Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, rootOpts, open, func(ctx context.Context, svc *app.Services) error {
				report, err := svc.Resetter.Reset(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "reset periods", err)
				}
				out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return out.Write(report, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "policy %s: weekly reset for %d users, monthly reset for %d users\n",
						report.Policy, report.WeeklyReset, report.MonthlyReset)
					return err
				})
			})
		},
	}
}

// NewLeaderboardCommand prints the ranking for a period.
func NewLeaderboardCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard <weekly|monthly|allTime>",
		Short: "Print the leaderboard for a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := services.ParsePeriod(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid period", err)
			}
			return withServices(cmd, rootOpts, open, func(ctx context.Context, svc *app.Services) error {
				board, err := svc.Leaderboards.Rank(ctx, period, limit, "")
				if err != nil {
					return WrapExitError(ExitFailure, "compute leaderboard", err)
				}
				out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return out.Write(board, func(w io.Writer) error {
					return writeBoard(w, board)
				})
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (default from config)")
	return cmd
}

func writeBoard(w io.Writer, board *models.Leaderboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "RANK\tNAME\tTOTAL\tSCORE\n")
	for _, e := range board.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.0f\n", e.Rank, e.DisplayName, e.WindowTotal, e.Score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d ranked (%s)\n", len(board.Entries), board.TotalRanked, board.Period)
	return err
}

// NewRecomputeBadgesCommand re-evaluates the badge catalog for one user.
func NewRecomputeBadgesCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-badges <userId>",
		Short: "Evaluate badges for a user and store newly earned ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID := args[0]
			return withServices(cmd, rootOpts, open, func(ctx context.Context, svc *app.Services) error {
				awarded, err := svc.Engagement.RefreshBadges(ctx, userID)
				if err != nil {
					return WrapExitError(ExitFailure, "recompute badges", err)
				}
				out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return out.Write(awarded, func(w io.Writer) error {
					if len(awarded) == 0 {
						_, err := fmt.Fprintf(w, "%s: no new badges\n", userID)
						return err
					}
					for _, b := range awarded {
						if _, err := fmt.Fprintf(w, "%s: awarded %s (%s)\n", userID, b.ID, b.Title); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
}
