package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/chorechart/internal/backup"
	"github.com/dukerupert/chorechart/internal/store"
)

func newExportCmd(c *cli) *cobra.Command {
	var out, passphrase string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every collection to a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.Transfer.Export(ctx)
			if err != nil {
				return err
			}
			data, err := store.MarshalSnapshot(snap)
			if err != nil {
				return err
			}

			if out == "" {
				out = store.ExportFilename(time.Now())
				if passphrase != "" {
					out += ".enc"
				}
			}
			if passphrase != "" {
				if data, err = backup.Encrypt(data, passphrase); err != nil {
					return err
				}
			}
			if err := os.WriteFile(out, data, 0600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default chores-backup-<date>.json)")
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "encrypt the snapshot with this passphrase")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace collections with those found in a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			if passphrase != "" {
				if data, err = backup.Decrypt(data, passphrase); err != nil {
					return err
				}
			}

			ctx := context.Background()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			applied, err := a.Transfer.Import(ctx, data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", joinKeys(applied))
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "decrypt an encrypted snapshot")
	return cmd
}

func newResetCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data and start over",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes every team member, chore and completion; rerun with --yes")
			}
			ctx := context.Background()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Transfer.Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newBackupCmd(c *cli) *cobra.Command {
	var passphrase string
	var pruneDays int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Upload an encrypted snapshot to S3-compatible storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			record, err := a.Backup.RunNow(ctx, c.passphrase(passphrase))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d bytes)\n", record.ObjectKey, record.SizeBytes)

			if pruneDays > 0 {
				removed, err := a.Backup.Cleanup(ctx, pruneDays)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backups older than %d days\n", removed, pruneDays)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "encryption passphrase (default CHORECHART_BACKUP_PASSPHRASE)")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "afterwards delete backups older than this many days")
	return cmd
}

func newBackupsCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List recorded backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.Backup.List(ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tSIZE\tKEY")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), r.Status, r.SizeBytes, r.ObjectKey)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of backups to show")
	return cmd
}

func newRestoreCmd(c *cli) *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "restore ID|KEY",
		Short: "Download, decrypt and import a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			applied, err := a.Backup.Restore(ctx, args[0], c.passphrase(passphrase))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", joinKeys(applied))
			return nil
		},
	}
	cmd.Flags().StringVar(&passphrase, "passphrase", "", "decryption passphrase (default CHORECHART_BACKUP_PASSPHRASE)")
	return cmd
}

func joinKeys(keys []store.Key) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
