package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docrender/internal/config"
	"git.home.luguber.info/inful/docrender/internal/eventstore"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
)

// EventsCmd implements the 'events' command.
type EventsCmd struct {
	Pass     string `arg:"" optional:"" help:"Show the events of one pass"`
	Limit    int    `short:"n" help:"Number of passes to list" default:"20"`
	Gaps     bool   `help:"List the unresolved link targets recorded across passes"`
	Document string `short:"d" help:"With --gaps, only gaps of this source document"`
}

func (e *EventsCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if e.Gaps {
		return RunGaps(context.Background(), cfg, e.Document, os.Stdout)
	}
	return RunEvents(context.Background(), cfg, e.Pass, e.Limit, os.Stdout)
}

func openEventStore(cfg *config.Config) (*eventstore.SQLiteStore, error) {
	if cfg.Events.Path == "" {
		return nil, errors.ConfigError("events.path is not configured").Build()
	}
	return eventstore.NewSQLiteStore(cfg.Events.Path)
}

// RunGaps lists stored resolution gaps, optionally for one document.
func RunGaps(ctx context.Context, cfg *config.Config, document string, out io.Writer) error {
	store, err := openEventStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	gaps, err := store.Gaps(ctx, document)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DOCUMENT\tTARGET\tPASS\tRECORDED")
	for _, g := range gaps {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", g.Document, g.Target, g.PassID, g.Timestamp.Format(time.RFC3339))
	}
	return tw.Flush()
}

// RunEvents lists the most recent passes, or the event log of one pass.
func RunEvents(ctx context.Context, cfg *config.Config, passID string, limit int, out io.Writer) error {
	store, err := openEventStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if passID != "" {
		evs, err := store.GetByPassID(ctx, passID)
		if err != nil {
			return err
		}
		if len(evs) == 0 {
			return errors.NotFoundError("no events for pass").WithContext("pass_id", passID).Build()
		}
		for _, ev := range evs {
			_, _ = fmt.Fprintf(out, "%s  %-16s  %s\n", ev.Timestamp().Format(time.RFC3339), ev.Type(), ev.Payload())
		}
		return nil
	}

	projection := eventstore.NewPassHistoryProjection(store, limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PASS\tSTARTED\tSTATUS\tFORMAT\tWRITTEN\tGAPS\tDURATION")
	for _, s := range projection.History() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			s.PassID, s.StartedAt.Format(time.RFC3339), s.Status, s.Format,
			len(s.Written), s.Documents, len(s.Gaps), s.Duration.Round(time.Millisecond))
	}
	return tw.Flush()
}
