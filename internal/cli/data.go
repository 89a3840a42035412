package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mmynk/techdoc/internal/repository"
	"github.com/mmynk/techdoc/internal/seed"
	"github.com/mmynk/techdoc/internal/transfer"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add sample clients and jobs to an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(func(repo *repository.Repository) error {
				res, err := seed.IfEmpty(cmd.Context(), repo, a.now())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if res.Clients == 0 {
					_, _ = fmt.Fprintln(out, "Store already has clients; nothing seeded.")
					return nil
				}
				_, _ = fmt.Fprintf(out, "Seeded %d clients and %d jobs.\n", res.Clients, res.Jobs)
				return nil
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every job and client to a JSON file",
		Long: `Write a snapshot of every job, client and the settings, attachments
included, to a JSON file. The default name carries today's date, e.g.
techdoc-export-2024-03-15.json. Use --output - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(func(repo *repository.Repository) error {
				t := transfer.New(repo, transfer.WithClock(a.now))

				if output == "-" {
					_, err := t.WriteExport(cmd.Context(), cmd.OutOrStdout())
					return err
				}
				path := output
				if path == "" {
					path = transfer.ExportFilename(a.now())
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				snap, err := t.WriteExport(cmd.Context(), f)
				if cerr := f.Close(); err == nil && cerr != nil {
					err = fmt.Errorf("failed to write export file: %w", cerr)
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d jobs and %d clients to %s\n", len(snap.Jobs), len(snap.Clients), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default techdoc-export-<date>.json)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge jobs and clients from an export file",
		Long: `Merge the jobs and clients of an export file into the store. Records
whose id already exists are skipped, so importing the same file twice
changes nothing. Settings in the file are ignored. Use - to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			return a.withRepo(func(repo *repository.Repository) error {
				res, err := transfer.New(repo).Import(cmd.Context(), r)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d jobs and %d of %d clients (%d skipped).\n",
					res.JobsAdded, res.JobsReceived, res.ClientsAdded, res.ClientsReceived, res.Skipped())
				return nil
			})
		},
	}
}

func newUsageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show how much of the store is in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(func(repo *repository.Repository) error {
				ctx := cmd.Context()
				used, err := repo.Store().Usage(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				quota := a.cfg.Store.QuotaBytes
				if quota > 0 {
					pct := min(used*100/quota, 100)
					_, _ = fmt.Fprintf(out, "%s of %s used (%d%%)\n", humanize.IBytes(uint64(used)), humanize.IBytes(uint64(quota)), pct)
				} else {
					_, _ = fmt.Fprintf(out, "%s used\n", humanize.IBytes(uint64(used)))
				}
				_, _ = fmt.Fprintf(out, "%d jobs, %d clients\n", len(repo.Jobs.List(ctx)), len(repo.Clients.List(ctx)))
				return nil
			})
		},
	}
}

func newWipeCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every job, client, setting and attachment",
		Long:  `Delete all stored data. This cannot be undone; export first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && !confirm(cmd, "Delete ALL jobs, clients and settings? This cannot be undone.") {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			return a.withRepo(func(repo *repository.Repository) error {
				if err := repo.Store().ClearAll(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "All data cleared.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks a yes/no question on the command's input. Anything but y or
// yes declines.
func confirm(cmd *cobra.Command, question string) bool {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
