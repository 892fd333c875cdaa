package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	environment "paywall-bot/internal/env"
	"paywall-bot/internal/stories/subs"
)

const timeLayout = time.RFC3339

func grantCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <user_id> [days]",
		Short: "Grant or overwrite a subscription (default APPROVAL_DEFAULT_DAYS)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			store, err := environment.OpenStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			days := store.Approval.DefaultDays
			if len(args) == 2 {
				if days, err = parseDays(args[1], store.Approval.MaxDays); err != nil {
					return err
				}
			}

			sub, err := store.Subscriptions.Grant(cmd.Context(), userID, days)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "granted %d until %s\n", sub.UserID, sub.ExpiresAt.Format(timeLayout))
			return nil
		},
	}
}

func revokeCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <user_id>",
		Short: "Delete a subscription record (no-op if absent)",
		Long: `Delete a subscription record. The user is not removed from the channel,
use /revoke in the bot for that.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			store, err := environment.OpenStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Subscriptions.Revoke(cmd.Context(), userID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d\n", userID)
			return nil
		},
	}
}

func expiredCmd(dbPath *string) *cobra.Command {
	var (
		asOf   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "expired",
		Short: "List subscriptions expired as of now or --as-of",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()
			if asOf != "" {
				parsed, err := time.Parse(timeLayout, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				at = parsed
			}

			store, err := environment.OpenStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.Subscriptions.ListExpiredSubscriptions(cmd.Context(), at)
			if err != nil {
				return err
			}

			return printSubscriptions(cmd.OutOrStdout(), list, asJSON)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "reference time in RFC3339")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func listCmd(dbPath *string) *cobra.Command {
	var (
		limit  int
		offset int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all subscription records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := environment.OpenStore(cmd.Context(), *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.Subscriptions.ListSubscriptions(cmd.Context(), subs.ListCriteria{
				Limit:  limit,
				Offset: offset,
			})
			if err != nil {
				return err
			}

			return printSubscriptions(cmd.OutOrStdout(), list, asJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (0 = all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip the first N results")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

type subscriptionView struct {
	UserID    int64  `json:"user_id"`
	ExpiresAt string `json:"expires_at"`
}

func printSubscriptions(w io.Writer, list []*subs.Subscription, asJSON bool) error {
	views := make([]subscriptionView, 0, len(list))
	for _, s := range list {
		views = append(views, subscriptionView{UserID: s.UserID, ExpiresAt: s.ExpiresAt.Format(timeLayout)})
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER_ID\tEXPIRES_AT")
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\n", v.UserID, v.ExpiresAt)
	}
	return tw.Flush()
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}

// parseDays accepts an integer in [1, maxDays], the same bound /approve uses.
func parseDays(s string, maxDays int) (int, error) {
	days, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid days %q", s)
	}
	if days < 1 || days > maxDays {
		return 0, fmt.Errorf("days must be between 1 and %d, got %d", maxDays, days)
	}
	return days, nil
}
