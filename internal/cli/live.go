package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmynk/techdoc/internal/models"
	"github.com/mmynk/techdoc/internal/repository"
	"github.com/mmynk/techdoc/internal/session"
)

// Each invocation is its own process, so every live command takes the job
// (its id or job number) and enters it before acting. Entering is idempotent
// once the time in is stamped.

func newLiveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "Work a job on site",
		Long: `Live commands stamp the arrival time on first entry, then save every
change immediately. <job> is a job id or a job number such as JOB-0042.`,
	}

	cmd.AddCommand(
		newLiveEnterCmd(a),
		newLiveToggleCmd(a),
		newLivePhotoCmd(a),
		newLiveNotesCmd(a),
		newLiveCompleteCmd(a),
		newLiveWatchCmd(a),
	)
	return cmd
}

func newLiveEnterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enter <job>",
		Short: "Start (or resume) a job and show its state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLive(cmd.Context(), args[0], func(s *session.Session, now func() string) error {
				job, err := s.Job(cmd.Context())
				if err != nil {
					return err
				}
				printJob(cmd.OutOrStdout(), job, now())
				return nil
			})
		},
	}
}

func newLiveToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <job> <item>",
		Short: "Tick or untick checklist item <item> (1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid checklist item %q", args[1])
			}
			return a.withLive(cmd.Context(), args[0], func(s *session.Session, _ func() string) error {
				job, err := s.ToggleChecklistItem(cmd.Context(), n-1)
				if err != nil {
					return err
				}
				item := job.Checklist[n-1]
				done, total := job.ChecklistProgress()
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d/%d done)\n", checkbox(item.Checked), item.Label, done, total)
				return nil
			})
		},
	}
}

func newLivePhotoCmd(a *app) *cobra.Command {
	var remove int

	cmd := &cobra.Command{
		Use:   "photo <job> [file...]",
		Short: "Attach photos to a job, or remove one with --remove",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove == 0 && len(args) < 2 {
				return fmt.Errorf("no photo files given")
			}
			photos := make([]models.Attachment, 0, len(args)-1)
			for _, path := range args[1:] {
				p, err := photoFromFile(path)
				if err != nil {
					return err
				}
				photos = append(photos, p)
			}

			return a.withLive(cmd.Context(), args[0], func(s *session.Session, _ func() string) error {
				out := cmd.OutOrStdout()
				if remove > 0 {
					job, err := s.RemovePhoto(cmd.Context(), remove-1)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(out, "Photo removed; %d left.\n", len(job.Photos))
					return nil
				}
				job, err := s.AddPhoto(cmd.Context(), photos...)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%d photo(s) added; %d on the job.\n", len(photos), len(job.Photos))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&remove, "remove", 0, "remove photo number `n` (1-based) instead of adding")
	return cmd
}

func newLiveNotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <job> <text...>",
		Short: "Replace the job notes",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLive(cmd.Context(), args[0], func(s *session.Session, _ func() string) error {
				if _, err := s.SaveNotes(cmd.Context(), strings.Join(args[1:], " ")); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Notes saved.")
				return nil
			})
		},
	}
}

func newLiveCompleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "complete <job>",
		Short: "Mark the job completed, recording time out and duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLive(cmd.Context(), args[0], func(s *session.Session, _ func() string) error {
				job, err := s.Complete(cmd.Context(), func(job *models.Job) bool {
					if yes {
						return true
					}
					done, total := job.ChecklistProgress()
					return confirm(cmd, fmt.Sprintf("Complete %s with %d/%d checklist items done?", job.JobNumber, done, total))
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s completed at %s after %s.\n", job.JobNumber, job.TimeOut, job.Duration)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newLiveWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job>",
		Short: "Show the on-site clock until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			display := func(elapsed string) {
				_, _ = fmt.Fprintf(out, "\r%s", elapsed)
			}
			return a.withLive(ctx, args[0], func(s *session.Session, _ func() string) error {
				job, err := s.Job(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%s %s since %s\n", job.JobNumber, job.ClientName, job.TimeIn)
				<-ctx.Done()
				_, _ = fmt.Fprintln(out)
				return nil
			}, session.WithDisplay(display))
		},
	}
}

// withLive enters the job ref names and runs fn on its session. The session
// is left afterwards unless fn completed it.
func (a *app) withLive(ctx context.Context, ref string, fn func(s *session.Session, clock func() string) error, opts ...session.Option) error {
	return a.withRepo(func(repo *repository.Repository) error {
		id, err := resolveJob(ctx, repo, ref)
		if err != nil {
			return err
		}

		ctl := session.NewController(repo.Jobs, opts...)
		s, err := ctl.Enter(ctx, id)
		if err != nil {
			return err
		}
		defer func() {
			if !s.Closed() {
				s.Exit()
			}
		}()

		return fn(s, func() string { return session.FormatClock(s.Elapsed(ctl.Now())) })
	})
}

// resolveJob accepts a job id or a job number, case-insensitively.
func resolveJob(ctx context.Context, repo *repository.Repository, ref string) (string, error) {
	if job, ok := repo.Jobs.GetByID(ctx, ref); ok {
		return job.ID, nil
	}
	for _, j := range repo.Jobs.List(ctx) {
		if strings.EqualFold(j.JobNumber, ref) {
			return j.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", session.ErrJobNotFound, ref)
}

// photoFromFile reads a photo into an attachment carrying a data URL.
func photoFromFile(path string) (models.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("failed to read photo: %w", err)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return models.Attachment{}, fmt.Errorf("%s is not an image (%s)", path, mime)
	}
	return models.Attachment{
		Name:     filepath.Base(path),
		Size:     int64(len(data)),
		MimeType: mime,
		Data:     "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}, nil
}

func printJob(w io.Writer, job *models.Job, elapsed string) {
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n", job.JobNumber, job.ClientName, job.Status.Label())
	_, _ = fmt.Fprintf(w, "On site since %s (%s)\n", job.TimeIn, elapsed)
	if job.ClientAddress != "" {
		_, _ = fmt.Fprintln(w, job.ClientAddress)
	}
	done, total := job.ChecklistProgress()
	_, _ = fmt.Fprintf(w, "\nChecklist %d/%d\n", done, total)
	for i, item := range job.Checklist {
		_, _ = fmt.Fprintf(w, "%2d. %s %s\n", i+1, checkbox(item.Checked), item.Label)
	}
	_, _ = fmt.Fprintf(w, "\nPhotos: %d\n", len(job.Photos))
	if job.Notes != "" {
		_, _ = fmt.Fprintf(w, "Notes: %s\n", job.Notes)
	}
}

func checkbox(checked bool) string {
	if checked {
		return "[x]"
	}
	return "[ ]"
}
