package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/conorfennell/flashmind/internal/domain"
	"github.com/conorfennell/flashmind/internal/session"
	"github.com/conorfennell/flashmind/internal/source"
	"github.com/conorfennell/flashmind/internal/srs"
	"github.com/conorfennell/flashmind/internal/stats"
	"github.com/conorfennell/flashmind/internal/store"
)

func (a *app) checkDeck() error {
	if a.deckID == "" {
		return nil
	}
	_, err := a.lib.Deck(a.deckID)
	return err
}

func (a *app) due() error {
	if err := a.checkDeck(); err != nil {
		return err
	}
	cards := srs.Due(a.lib.Cards(), a.deckID, domain.Now())
	if len(cards) == 0 {
		fmt.Fprintln(a.stdout, "All caught up! Nothing is due.")
		return nil
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDECK\tSTATE\tDUE\tFRONT")
	for _, c := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.DeckID, c.State, c.DueDate.Format(time.DateTime), oneLine(c.Front))
	}
	return tw.Flush()
}

// review runs an interactive session: Enter reveals the back, 1-4 grades,
// q quits. Grades already given are kept when quitting early.
func (a *app) review() error {
	if err := a.checkDeck(); err != nil {
		return err
	}
	sess := session.Start(a.lib, a.deckID)
	if sess.Finished() {
		fmt.Fprintln(a.stdout, "All caught up! Nothing is due.")
		return nil
	}

	in := bufio.NewScanner(a.stdin)
	read := func() (string, bool) {
		if !in.Scan() {
			return "", false
		}
		return strings.TrimSpace(in.Text()), true
	}

	for {
		card, ok := sess.Current()
		if !ok {
			break
		}
		reviewed, total := sess.Progress()
		fmt.Fprintf(a.stdout, "\n[%d/%d] %s\n(Enter to show answer, q to quit) ", reviewed+1, total, card.Front)
		line, ok := read()
		if !ok || line == "q" {
			fmt.Fprintln(a.stdout)
			return nil
		}
		fmt.Fprintf(a.stdout, "%s\n", card.Back)

		for {
			fmt.Fprint(a.stdout, "Grade: 1 again, 2 hard, 3 good, 4 easy > ")
			line, ok = read()
			if !ok || line == "q" {
				fmt.Fprintln(a.stdout)
				return nil
			}
			g, err := domain.ParseGrade(line)
			if err != nil {
				continue
			}
			out, err := sess.Submit(g)
			if err != nil {
				return err
			}
			switch {
			case out.Skipped:
				fmt.Fprintln(a.stdout, "Card was deleted; skipped.")
			case out.Requeued:
				fmt.Fprintln(a.stdout, "Card will come back later in this session.")
			default:
				fmt.Fprintf(a.stdout, "Next review in %d day(s).\n", out.Card.Interval)
			}
			break
		}
	}

	reviewed, _ := sess.Progress()
	fmt.Fprintf(a.stdout, "\nSession complete: %d review(s).\n", reviewed)
	return nil
}

func (a *app) importSource(ctx context.Context, deckID, location string) error {
	im := source.NewImporter(a.lib, a.cfg.Sources.ReposDir, a.logger)
	report, err := im.Import(ctx, deckID, location)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Found %d cards in %d files: %d added, %d skipped, %d errors.\n",
		report.Parsed, report.Files, report.Added, report.Skipped, len(report.Errors))
	for _, e := range report.Errors {
		fmt.Fprintf(a.stdout, "- %s\n", e)
	}
	return nil
}

func (a *app) export(dir string) error {
	path, err := store.Export(a.lib.Snapshot(), dir, domain.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Backup written to %s\n", path)
	return nil
}

func (a *app) stats() error {
	s := stats.Summarize(a.lib.Snapshot(), domain.Now(), stats.DefaultDays)
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total reviews\t%d\n", s.TotalReviews)
	fmt.Fprintf(tw, "Due now\t%d\n", s.Due)
	fmt.Fprintf(tw, "Learning\t%d\n", s.Learning)
	fmt.Fprintf(tw, "Young\t%d\n", s.Young)
	fmt.Fprintf(tw, "Mature\t%d\n", s.Mature)
	fmt.Fprintf(tw, "Today\t%d / %d\n", s.Today, s.DailyTarget)
	for _, d := range s.Daily {
		fmt.Fprintf(tw, "  %s\t%d\n", d.Date, d.Count)
	}
	return tw.Flush()
}

func (a *app) decks() error {
	doc := a.lib.Snapshot()
	if len(doc.Decks) == 0 {
		fmt.Fprintln(a.stdout, "No decks yet.")
		return nil
	}
	now := domain.Now()
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNEW\tLEARNING\tREVIEW\tDUE\tPROGRESS")
	for _, d := range doc.Decks {
		c := stats.CountDeck(doc.Cards, d.ID, now)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%.0f%%\n", d.ID, d.Name, c.New, c.Learning, c.Review, c.Due, c.Progress)
	}
	return tw.Flush()
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 60 {
		return string(r[:57]) + "..."
	}
	return s
}
