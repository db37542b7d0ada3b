package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/pflag"

	"github.com/conorfennell/flashmind/internal/config"
	"github.com/conorfennell/flashmind/internal/library"
	"github.com/conorfennell/flashmind/internal/store"
)

const usage = `Usage: flashmind [flags] <command> [args]

Commands:
  serve                       run the HTTP API and the source watcher (default)
  due                         list the cards due now
  review                      review due cards in the terminal
  import <deck-id> <location> import markdown cards from a path or git URL
  export [dir]                write a dated backup of the collection
  stats                       show review statistics
  decks                       list decks with their card counts

Flags:
`

// errUsage is returned for a bad command line; the usage text is already
// printed.
var errUsage = errors.New("invalid usage")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, pflag.ErrHelp) {
			slog.Error("flashmind failed", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	lib    *library.Library
	logger *slog.Logger
	deckID string
	stdin  io.Reader
	stdout io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("flashmind", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	deckID := fs.StringP("deck", "d", "", "restrict due and review to one deck")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, stderr)
	slog.SetDefault(logger)

	command, rest := "serve", []string(nil)
	if fs.NArg() > 0 {
		command, rest = fs.Arg(0), fs.Args()[1:]
	}

	backend, err := store.Open(cfg.Storage.Backend, cfg.Storage.Path, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	a := &app{
		cfg:    cfg,
		lib:    library.Open(ctx, backend, logger),
		logger: logger,
		deckID: *deckID,
		stdin:  stdin,
		stdout: stdout,
	}

	switch command {
	case "serve":
		return a.serve(ctx)
	case "due":
		return a.due()
	case "review":
		return a.review()
	case "import":
		if len(rest) != 2 {
			fs.Usage()
			return errUsage
		}
		return a.importSource(ctx, rest[0], rest[1])
	case "export":
		dir := cfg.Storage.ExportDir
		if len(rest) > 0 {
			dir = rest[0]
		}
		return a.export(dir)
	case "stats":
		return a.stats()
	case "decks":
		return a.decks()
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		fs.Usage()
		return errUsage
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == config.FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
