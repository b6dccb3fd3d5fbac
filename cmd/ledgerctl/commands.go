package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campreg/ledger"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/types"
)

type command func(ctx context.Context, l *ledger.Ledger, args []string) error

var commands = map[string]command{
	"migrate":       migrateCmd,
	"history":       historyCmd,
	"override":      actionCmd(ledger.ActionPriceOverride),
	"pay":           actionCmd(ledger.ActionPayment),
	"import-legacy": importCmd,
}

// idList collects repeated -participant flags.
type idList []ledger.ParticipantID

func (l *idList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}

func (l *idList) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		pid, err := ledger.ParseParticipantID(strings.TrimSpace(part))
		if err != nil {
			return err
		}
		*l = append(*l, pid)
	}
	return nil
}

func migrateCmd(_ context.Context, _ *ledger.Ledger, _ []string) error {
	// Start already migrated the store.
	slog.Info("store migrated")
	return nil
}

func historyCmd(ctx context.Context, l *ledger.Ledger, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	var participants idList
	fs.Var(&participants, "participant", "participant id (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(participants) == 0 {
		return errors.New("history: -participant is required")
	}

	history, err := l.GetPaymentHistory(ctx, participants...)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tPARTICIPANT\tKIND\tVALUE\tBY\tDESCRIPTION")
	for _, e := range history {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.ParticipantID, e.Kind, l.Format(e.Value), e.CreatedBy, e.Description)
	}
	for _, pid := range participants {
		paid := history.ForParticipant(pid).PaidSum()
		fmt.Fprintf(w, "\t%s\tpaid sum\t%s\t\t\n", pid, l.Format(paid))
	}
	return w.Flush()
}

func actionCmd(code ledger.ActionCode) command {
	return func(ctx context.Context, l *ledger.Ledger, args []string) error {
		fs := flag.NewFlagSet(string(code), flag.ContinueOnError)
		var participants idList
		fs.Var(&participants, "participant", "participant id (repeatable)")
		cents := fs.Int64("cents", 0, "amount in cents")
		amount := fs.String("amount", "", "amount in major units, e.g. 51.00 (overrides -cents)")
		description := fs.String("description", "", "description stored with the event")
		actor := fs.String("actor", os.Getenv("LEDGER_ACTOR"), "acting user id")
		if err := fs.Parse(args); err != nil {
			return err
		}

		value := types.Cents(*cents)
		if *amount != "" {
			d, err := decimal.NewFromString(*amount)
			if err != nil {
				return fmt.Errorf("%s: invalid -amount: %w", code, err)
			}
			if value, err = types.ParseMajor(d); err != nil {
				return fmt.Errorf("%s: invalid -amount: %w", code, err)
			}
		}

		var actorID ledger.UserID
		if *actor != "" {
			parsed, err := ledger.ParseUserID(*actor)
			if err != nil {
				return fmt.Errorf("%s: invalid -actor: %w", code, err)
			}
			actorID = parsed
		}

		subjects := make([]*participant.Participant, len(participants))
		for i, pid := range participants {
			subjects[i] = &participant.Participant{ID: pid}
		}

		events, err := l.Apply(ctx, ledger.Action{
			Code:         code,
			Participants: subjects,
			Cents:        value,
			Description:  *description,
			Actor:        actorID,
		})
		if err != nil {
			return err
		}
		for _, e := range events {
			fmt.Printf("%s\t%s\t%s\t%s\n", e.ID, e.ParticipantID, e.Kind, l.Format(e.Value))
		}
		return nil
	}
}

func importCmd(ctx context.Context, l *ledger.Ledger, args []string) error {
	fs := flag.NewFlagSet("import-legacy", flag.ContinueOnError)
	file := fs.String("file", "", "legacy CSV export")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("import-legacy: -file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	events, err := readLegacy(f)
	if err != nil {
		return err
	}
	if err := l.ImportEvents(ctx, events); err != nil {
		var invalid ledger.MultiError
		if errors.As(err, &invalid) {
			for _, rowErr := range invalid.Errors {
				slog.Error("rejected legacy row", "error", rowErr)
			}
			return fmt.Errorf("import-legacy: %d invalid rows, first: %w", len(invalid.Errors), invalid.First())
		}
		return err
	}
	slog.Info("legacy events imported", "file", *file, "count", len(events))
	return nil
}
