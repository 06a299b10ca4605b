package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/campscout/campscout/internal/availability"
	"github.com/campscout/campscout/internal/db"
	"github.com/campscout/campscout/internal/directory"
	"github.com/campscout/campscout/internal/providers"
	"github.com/campscout/campscout/internal/search"
)

const providerName = "recreation_gov"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	provRegistry := providers.NewRegistry()
	provRegistry.Register(providerName, providers.NewRecreationGov())

	var store *db.Store
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		var err error
		store, err = db.Open(dbPath)
		if err != nil {
			slog.Error("open db failed", slog.String("path", dbPath), slog.Any("err", err))
			os.Exit(1)
		}
		defer store.Close()
	}
	dir := directory.New(store, provRegistry, providerName)

	switch os.Args[1] {
	case "search":
		handleSearch(ctx, provRegistry)
	case "availability":
		handleAvailability(ctx, provRegistry, dir)
	case "rec-areas":
		handleRecAreas(ctx, provRegistry)
	case "sync":
		handleSync(ctx, dir)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: campscout <command> [options]

commands:
  search        --location <text> [--state XX] [--rec-area id,id] [--limit n]
  availability  --campground <id> --start YYYY-MM-DD --end YYYY-MM-DD [--nights n]
  rec-areas     --query <text> [--state XX]
  sync          [--schedule <cron spec>]

env:
  DB_PATH    optional DuckDB path for the campground directory
  LOG_LEVEL  set to "debug" for verbose logging`)
}

// argValue scans os.Args for "--name value".
func argValue(name string) string {
	for i, arg := range os.Args {
		if arg == "--"+name && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
	}
	return ""
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Error("encode failed", slog.Any("err", err))
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func handleSearch(ctx context.Context, reg *providers.Registry) {
	q := search.Query{
		Location: argValue("location"),
		State:    argValue("state"),
	}
	if ra := argValue("rec-area"); ra != "" {
		for _, id := range strings.Split(ra, ",") {
			if id = strings.TrimSpace(id); id != "" {
				q.RecAreaIDs = append(q.RecAreaIDs, id)
			}
		}
	}
	if lim := argValue("limit"); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil {
			slog.Error("invalid --limit", slog.String("value", lim))
			os.Exit(2)
		}
		q.Limit = n
	}

	svc := search.NewService(reg, providerName)
	printJSON(svc.Search(ctx, q))
}

func handleAvailability(ctx context.Context, reg *providers.Registry, dir *directory.Directory) {
	q := availability.Query{
		CampgroundID: argValue("campground"),
		StartDate:    argValue("start"),
		EndDate:      argValue("end"),
		Nights:       1,
	}
	if q.CampgroundID == "" {
		slog.Error("--campground required")
		os.Exit(2)
	}
	if n := argValue("nights"); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil {
			slog.Error("invalid --nights", slog.String("value", n))
			os.Exit(2)
		}
		q.Nights = v
	}

	checker := availability.NewChecker(reg, providerName, dir)
	report, err := checker.Check(ctx, q)
	if err != nil {
		if errors.Is(err, availability.ErrValidation) {
			slog.Error("invalid query", slog.Any("err", err))
			os.Exit(2)
		}
		slog.Error("availability check failed", slog.Any("err", err))
		os.Exit(1)
	}
	printJSON(report)
}

func handleRecAreas(ctx context.Context, reg *providers.Registry) {
	query := argValue("query")
	if query == "" {
		slog.Error("--query required")
		os.Exit(2)
	}
	svc := search.NewService(reg, providerName)
	resp, err := svc.SearchRecAreas(ctx, query, argValue("state"))
	if err != nil {
		slog.Error("rec area search failed", slog.Any("err", err))
		os.Exit(1)
	}
	printJSON(resp)
}

func handleSync(ctx context.Context, dir *directory.Directory) {
	if spec := argValue("schedule"); spec != "" {
		if err := dir.RunScheduledSync(ctx, spec); err != nil {
			slog.Error("scheduled sync failed", slog.Any("err", err))
			os.Exit(1)
		}
		return
	}
	count, err := dir.SyncCampgrounds(ctx)
	if err != nil {
		slog.Error("campground sync failed", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("campground sync completed", slog.Int("count", count))
}
