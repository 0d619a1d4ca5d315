package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/salesdesk-backend/internal/app"
	"github.com/heartmarshall/salesdesk-backend/internal/config"
	"github.com/heartmarshall/salesdesk-backend/internal/docstore"
	"github.com/heartmarshall/salesdesk-backend/internal/domain"
	"github.com/heartmarshall/salesdesk-backend/internal/mirror"
	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
	"github.com/heartmarshall/salesdesk-backend/internal/service/quote"
)

// DueOptions narrows the reminder listing.
type DueOptions struct {
	Seller uuid.UUID
	At     time.Time
	Loc    *time.Location
}

// DueCmd returns the due command.
func DueCmd() *cobra.Command {
	var (
		seller string
		at     string
		wait   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List quotes whose follow-up is due today or overdue",
		Long: `List pending quotes with a reminder due today or overdue, oldest reminder
first. Days are counted in the configured follow-up timezone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := app.NewLogger(cfg.Log)

			opts := DueOptions{At: time.Now(), Loc: cfg.FollowUp.Location}
			if s := strings.TrimSpace(seller); s != "" {
				if opts.Seller, err = uuid.Parse(s); err != nil {
					return fmt.Errorf("--seller: %w", err)
				}
			}
			if at != "" {
				day, err := time.ParseInLocation(time.DateOnly, at, opts.Loc)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				opts.At = day
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()

			backend, err := app.OpenBackend(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer backend.Close()

			return RunDue(ctx, cmd.OutOrStdout(), backend.Store, opts)
		},
	}

	cmd.Flags().StringVar(&seller, "seller", "", "only quotes of this seller id")
	cmd.Flags().StringVar(&at, "at", "", "evaluate as of this day (YYYY-MM-DD) instead of today")
	cmd.Flags().DurationVar(&wait, "timeout", 30*time.Second, "how long to wait for the store")
	return cmd
}

// RunDue loads the quotes through a mirror and prints the due reminders.
func RunDue(ctx context.Context, w io.Writer, src mirror.CollectionSource, opts DueOptions) error {
	quotes, err := loadQuotes(ctx, src, opts.Seller)
	if err != nil {
		return err
	}
	printReminders(w, quote.Reminders(quotes, opts.At, opts.Loc, opts.Seller))
	return nil
}

// loadQuotes waits for the first complete snapshot of the quotes collection.
func loadQuotes(ctx context.Context, src mirror.CollectionSource, seller uuid.UUID) ([]domain.Quote, error) {
	m := mirror.NewCollection(src, quote.Decode)
	defer m.Close()

	ready := make(chan mirror.State[domain.Quote], 1)
	stop := m.OnChange(func(s mirror.State[domain.Quote]) {
		if s.Loading {
			return
		}
		select {
		case ready <- s:
		default:
		}
	})
	defer stop()

	q := docstore.CollectionQuery(domain.CollectionQuotes)
	if seller != uuid.Nil {
		q = q.Where(domain.QuoteFieldSellerID, docstore.OpEqual, seller.String())
	}
	m.SetQuery(&q)

	select {
	case s := <-ready:
		if s.Err != nil {
			return nil, s.Err
		}
		return s.Records, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("load quotes: %w", ctx.Err())
	}
}

var (
	overdueColor  = color.New(color.FgRed, color.Bold)
	dueTodayColor = color.New(color.FgYellow)
	dimColor      = color.New(color.Faint)
)

func printReminders(w io.Writer, reminders []quote.Reminder) {
	if len(reminders) == 0 {
		fmt.Fprintln(w, "No follow-ups due.")
		return
	}

	for _, r := range reminders {
		status := dueTodayColor.Sprint("DUE TODAY")
		if r.Status == followup.StatusOverdue {
			status = overdueColor.Sprint("OVERDUE  ")
		}
		fmt.Fprintf(w, "%s  %s  %-24s %12.2f  %s\n",
			status,
			r.Quote.FollowUpDate.Format(time.DateOnly),
			r.Quote.Client,
			r.Quote.Amount,
			dimColor.Sprintf("%s, %d days pending, id %s", sellerLabel(r.Quote), r.DaysPending, r.Quote.ID),
		)
	}
	fmt.Fprintf(w, "\n%d follow-up(s) due\n", len(reminders))
}

func sellerLabel(q domain.Quote) string {
	if q.Seller != "" {
		return q.Seller
	}
	return q.SellerID.String()
}
