package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/repository"
)

func newClientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Inspect clients",
	}

	var asJSON bool
	list := &cobra.Command{
		Use:     "list",
		Short:   "List clients, newest first",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRepo(func(repo *repository.Repository) error {
				clients := repo.Clients.List(cmd.Context())
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, clients)
				}
				if len(clients) == 0 {
					_, _ = fmt.Fprintln(out, "No clients yet.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "NAME\tCONTACT\tPHONE\tADDRESS\tTAGS")
				for _, c := range clients {
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Contact, c.Phone, c.FullAddress(), strings.Join(c.Tags, ", "))
				}
				return w.Flush()
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "output as JSON")

	cmd.AddCommand(list)
	return cmd
}

func newJobsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect jobs",
	}

	var (
		asJSON   bool
		status   string
		clientID string
	)
	list := &cobra.Command{
		Use:     "list",
		Short:   "List jobs, newest first",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if status != "" && !models.Status(status).Valid() {
				return fmt.Errorf("invalid status %q", status)
			}

			return a.withRepo(func(repo *repository.Repository) error {
				ctx := cmd.Context()
				var jobs []models.Job
				if clientID != "" {
					jobs = repo.Jobs.ForClient(ctx, clientID)
				} else {
					jobs = repo.Jobs.List(ctx)
				}
				if status != "" {
					filtered := jobs[:0]
					for _, j := range jobs {
						if j.Status == models.Status(status) {
							filtered = append(filtered, j)
						}
					}
					jobs = filtered
				}

				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, jobs)
				}
				if len(jobs) == 0 {
					_, _ = fmt.Fprintln(out, "No jobs found.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(w, "NUMBER\tDATE\tSTATUS\tCLIENT\tCHECKLIST\tPHOTOS\tTYPES")
				for _, j := range jobs {
					done, total := j.ChecklistProgress()
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
						j.JobNumber, j.Date, j.Status.Label(), j.ClientName, done, total, len(j.Photos), strings.Join(j.JobTypes, ", "))
				}
				return w.Flush()
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	list.Flags().StringVar(&status, "status", "", "only jobs with this status (pending, in-progress, completed, cancelled)")
	list.Flags().StringVar(&clientID, "client", "", "only jobs for this client id")

	cmd.AddCommand(list)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
