package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/estlink/crmbridge-backend/internal/app"
	"github.com/estlink/crmbridge-backend/internal/vectorsync"
)

func main() {
	_ = godotenv.Load()

	entities := flag.String("entities", "", "comma-separated entity types to sync (default all)")
	project := flag.Bool("project", true, "project synced data into the vector store")
	loop := flag.Bool("loop", false, "keep running, re-projecting on the configured interval")
	interval := flag.Duration("interval", 0, "re-projection interval for -loop (default PROJECTION_INTERVAL)")
	flag.Parse()

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	counts, err := runSync(ctx, a, *entities)
	if err != nil {
		a.Log.Error("sync run failed", "error", err)
		os.Exit(1)
	}
	for entity, n := range counts {
		a.Log.Info("entity synced", "entity_type", entity, "records", n)
	}

	if !*project {
		return
	}

	if err := a.SchemaProjector.Project(ctx); err != nil {
		a.Log.Error("schema projection failed", "error", err)
		os.Exit(1)
	}

	if *loop {
		scheduler := a.Scheduler
		if *interval > 0 {
			scheduler = vectorsync.NewScheduler(a.Projector, *interval, a.Log)
		}
		// Blocks until SIGINT/SIGTERM; projects immediately, then on the
		// interval.
		scheduler.Run(ctx)
		return
	}

	n, err := a.Projector.ProjectAll(ctx)
	if err != nil {
		a.Log.Error("projection failed", "documents_written", n, "error", err)
		os.Exit(1)
	}
	a.Log.Info("projection finished", "documents_written", n)
}

func runSync(ctx context.Context, a *app.App, entities string) (map[string]int, error) {
	if strings.TrimSpace(entities) == "" {
		return a.Runner.RunAll(ctx)
	}
	var selected []string
	for _, e := range strings.Split(entities, ",") {
		if e = strings.TrimSpace(e); e != "" {
			selected = append(selected, e)
		}
	}
	return a.Runner.RunEntities(ctx, selected)
}
