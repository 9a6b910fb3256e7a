// trackctl is a small terminal client for driving a tracking session
// against a running server: start, tap-log, inspect, end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fieldtrack/tracker-go/internal/model"
	"github.com/fieldtrack/tracker-go/internal/tracker"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	server := flag.String("server", "http://localhost:8080", "server base URL")
	token := flag.String("token", os.Getenv("TRACKER_TOKEN"), "account token")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	if *token == "" {
		fmt.Fprintln(os.Stderr, "missing token: pass -token or set TRACKER_TOKEN")
		os.Exit(2)
	}

	t := tracker.New(tracker.NewClient(*server, *token))
	defer t.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, t, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, t *tracker.Tracker, args []string) error {
	switch args[0] {
	case "start":
		fs := flag.NewFlagSet("start", flag.ExitOnError)
		goal := fs.Int("goal", 0, "approach goal for this session")
		location := fs.String("location", "", "where the session takes place")
		fs.Parse(args[1:])

		params := tracker.StartParams{}
		if *goal > 0 {
			params.Goal = goal
		}
		if *location != "" {
			params.Location = location
		}

		err := t.Start(ctx, params)
		var found *tracker.ActiveSessionFoundError
		if errors.As(err, &found) {
			fmt.Printf("active session %s already exists (started %s)\n",
				found.Existing.Session.ID, found.Existing.Session.StartedAt.Format(time.RFC3339))
			fmt.Println("resume it with `trackctl resume` or abandon it with `trackctl abandon`")
			return nil
		}
		if err != nil {
			return err
		}
		return printStatus(t)

	case "resume":
		if err := t.Resume(ctx); err != nil {
			return err
		}
		return printStatus(t)

	case "abandon":
		if err := t.Resume(ctx); err != nil {
			return err
		}
		snap := t.Snapshot()
		return t.Abandon(ctx, snap.Session.ID)

	case "log":
		fs := flag.NewFlagSet("log", flag.ExitOnError)
		outcome := fs.String("outcome", "", "outcome (blowout|short|good|number|instadate)")
		mood := fs.Int("mood", 0, "mood 1-5")
		note := fs.String("note", "", "free-text note")
		fs.Parse(args[1:])

		if err := t.Resume(ctx); err != nil {
			return err
		}

		data := tracker.ApproachData{}
		if *outcome != "" {
			o := model.Outcome(*outcome)
			data.Outcome = &o
		}
		if *mood > 0 {
			data.Mood = mood
		}
		if *note != "" {
			data.Note = note
		}

		if err := t.AddApproach(ctx, data); err != nil {
			return err
		}
		return printStatus(t)

	case "status":
		if err := t.Resume(ctx); err != nil {
			if errors.Is(err, tracker.ErrNoSession) {
				fmt.Println("no active session")
				return nil
			}
			return err
		}
		return printStatus(t)

	case "end":
		if err := t.Resume(ctx); err != nil {
			return err
		}
		t.OnSessionEnd(func(s model.SessionSummary) {
			fmt.Printf("session ended: %d approaches in %s\n",
				s.Count, (time.Duration(s.DurationSeconds) * time.Second).String())
		})
		return t.End(ctx)

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printStatus(t *tracker.Tracker) error {
	snap := t.Snapshot()
	if snap.Session == nil {
		fmt.Println("no session")
		return nil
	}

	fmt.Printf("session %s [%s]\n", snap.Session.ID, snap.State)
	if snap.Stats != nil {
		fmt.Printf("  duration  %s\n", snap.Stats.SessionDuration)
		fmt.Printf("  per hour  %.1f\n", snap.Stats.ApproachesPerHour)
		fmt.Printf("  progress  %d", snap.Stats.Goal.Current)
		if snap.Stats.Goal.Target != nil {
			fmt.Printf("/%d (%d%%)", *snap.Stats.Goal.Target, snap.Stats.Goal.Percentage)
		}
		fmt.Println()
	}
	if snap.Err != "" {
		fmt.Printf("  error     %s\n", snap.Err)
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: trackctl [-server URL] [-token TOKEN] <command>

commands:
  start [-goal N] [-location WHERE]   start a new session
  resume                              adopt the active session
  abandon                             abandon the active session
  log [-outcome O] [-mood N] [-note S]  log one approach
  status                              show the active session
  end                                 end the active session`)
}
