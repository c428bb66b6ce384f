// Command chains prints the reconstructed shot and goal chains stored in a
// rinkline database file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/okian/rinkline/internal/adapters/repository"
	service "github.com/okian/rinkline/internal/app"
	"github.com/okian/rinkline/internal/config"
	"github.com/okian/rinkline/internal/domain/types"
	"github.com/okian/rinkline/pkg/logger"
)

// errUsage reports invalid command line arguments.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			os.Stderr.WriteString("chains: " + err.Error() + "\n")
		}
		stop()
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("chains", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		dbPath    = fs.String("db", cfg.DBPath, "SQLite database holding the event pool")
		games     = fs.String("games", "", "Comma separated game ids; empty analyses every stored game")
		format    = fs.String("format", "text", "Output format: text or json")
		maxLength = fs.Int("max-length", cfg.MaxChainLength, "Chain length cap, terminal event included")
		maxPool   = fs.Int("max-pool", cfg.MaxPoolSize, "Events read back per game")
		list      = fs.Bool("list", false, "Only list stored game ids")
		verbose   = fs.Bool("verbose", false, "Log at debug level")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "text" && *format != "json" {
		return fmt.Errorf("%w: unknown format %q", errUsage, *format)
	}

	if err := logger.Init(logger.WithWriter(stderr)); err != nil {
		return err
	}
	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		_ = logger.SetLevelString("info")
	}

	if _, err := os.Stat(*dbPath); err != nil {
		return fmt.Errorf("open %s: %w", *dbPath, err)
	}
	store, err := repository.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := service.New(
		service.WithStore(store),
		service.WithMaxChainLength(*maxLength),
		service.WithMaxPoolSize(*maxPool),
		service.WithAnalysisWorkers(cfg.AnalysisWorkers),
		service.WithLogger(logger.Get().Named("chains")),
	)

	if *list {
		ids, err := svc.Games(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(stdout, id)
		}
		return nil
	}

	res, err := svc.AnalyzeGames(ctx, splitIDs(*games))
	if err != nil {
		return err
	}
	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string][]types.GameChains{"games": res})
	}
	return writeText(stdout, res)
}

func splitIDs(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// writeText prints one block per game: a summary line and a row per chain.
func writeText(w io.Writer, games []types.GameChains) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, g := range games {
		fmt.Fprintf(tw, "game %s\tpool=%d\tchains=%d\tshots=%d\tgoals=%d\tavg_length=%.2f",
			g.GameID, g.PoolSize, g.Summary.Chains, g.Summary.Shots, g.Summary.Goals, g.Summary.AverageLength)
		if g.Truncated {
			fmt.Fprint(tw, "\ttruncated")
		}
		fmt.Fprintln(tw)
		for _, c := range g.Chains {
			plays := make([]string, 0, len(c.Events))
			for _, e := range c.Events {
				plays = append(plays, string(e.Type))
			}
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\t%s\n",
				c.TerminalKey, c.TerminalType, c.Length, c.Stop, strings.Join(plays, " > "))
		}
	}
	return tw.Flush()
}
