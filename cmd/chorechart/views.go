package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorechart/internal/chore"
	"github.com/dukerupert/chorechart/internal/recurrence"
	"github.com/dukerupert/chorechart/internal/render"
)

const dateLayout = "2006-01-02"

func parseDateFlag(name, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}

func newWeekCmd(c *cli) *cobra.Command {
	var start string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print the weekly agenda",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			now := time.Now()
			from, err := parseDateFlag("start", start, now)
			if err != nil {
				return err
			}
			week, err := a.Service.Week(ctx, from)
			if err != nil {
				return err
			}
			return render.Week(cmd.OutOrStdout(), week, now)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "any date in the week to show (YYYY-MM-DD, default today)")
	return cmd
}

func newListCmd(c *cli) *cobra.Command {
	var opts chore.ListOptions
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one-time chores and this week's recurring chores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Status = chore.Status(status)
			switch opts.Status {
			case "", chore.StatusPending, chore.StatusCompleted, chore.StatusOverdue:
			default:
				return fmt.Errorf("--status must be pending, completed or overdue")
			}

			ctx := context.Background()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			chores, err := a.Service.List(ctx, opts)
			if err != nil {
				return err
			}
			return render.List(cmd.OutOrStdout(), chores)
		},
	}
	cmd.Flags().StringVar(&opts.Assignee, "assignee", "", "only chores assigned to this team member id")
	cmd.Flags().StringVar(&status, "status", "", "pending, completed or overdue")
	return cmd
}

func newHistoryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show completed chores, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.Service.History(ctx)
			if err != nil {
				return err
			}
			return render.History(cmd.OutOrStdout(), entries)
		},
	}
}

// newPreviewCmd needs no database: it only builds a rule and expands it.
func newPreviewCmd(c *cli) *cobra.Command {
	var preset, hhmm, date, cronExpr string
	var count int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the next occurrences of a recurrence rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseDateFlag("date", date, time.Now())
			if err != nil {
				return err
			}
			var describer recurrence.Describer
			if d, err := recurrence.NewCronDescriber(); err == nil {
				describer = d
			} else {
				c.logger.Warn("cron descriptions unavailable", "error", err)
			}
			b := recurrence.NewBuilder(describer)
			rule := b.CreateRule(recurrence.Preset(preset), hhmm, ref, cronExpr)
			if rule.Cron == "" {
				return fmt.Errorf("no cron expression for preset %q", preset)
			}
			return render.Preview(cmd.OutOrStdout(), rule, b.Preview(rule, count))
		},
	}
	f := cmd.Flags()
	f.StringVar(&preset, "preset", string(recurrence.PresetWeekly), "daily, weekly, weekdays, biweekly, monthly, first-weekday, last-weekday or custom")
	f.StringVar(&hhmm, "time", "09:00", "time of day (HH:MM)")
	f.StringVar(&date, "date", "", "reference date whose weekday or day of month seeds the preset (default today)")
	f.StringVar(&cronExpr, "cron", "", "cron expression for the custom preset")
	f.IntVar(&count, "count", recurrence.DefaultPreviewCount, "number of occurrences to show")
	return cmd
}
