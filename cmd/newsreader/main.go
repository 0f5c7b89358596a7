// Package main is a terminal news reader driven by the proxy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mkovalev/newsstand/internal/clock/system"
	"github.com/mkovalev/newsstand/internal/feed"
	"github.com/mkovalev/newsstand/internal/logging"
)

func main() {
	server := flag.String("server", "http://localhost:3001", "News proxy base URL")
	query := flag.String("query", "technology", "Search term")
	pages := flag.Int("pages", 3, "Pages to load")
	sourceName := flag.String("source", "", "Only show articles from this source")
	star := flag.String("star", "", "Comma-separated article URLs to mark as favorites")
	development := flag.Bool("dev", false, "Verbose logging")
	flag.Parse()

	logger, err := logging.New(*development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := feed.NewHTTPSource(*server, 15*time.Second, system.New())
	orchestrator := feed.NewOrchestrator(source, logger.Named("feed"))
	trigger := feed.NewScrollTrigger(orchestrator)
	favorites := feed.NewFavorites()

	if err := orchestrator.Search(ctx, *query); err != nil {
		logger.Warn("initial search failed", zap.Error(err))
	}
	if *sourceName != "" {
		if err := orchestrator.SetFilters(ctx, feed.FilterPatch{SourceName: sourceName}); err != nil {
			logger.Warn("filter refetch failed", zap.Error(err))
		}
	}

	// Simulate scrolling: each rendered page arms the trigger on its last
	// item and the sentinel fires once as it would on screen.
	for i := 1; i < *pages; i++ {
		state := orchestrator.State()
		if !state.HasMore || len(state.Articles) == 0 {
			break
		}
		trigger.Rearm(state.Articles[len(state.Articles)-1].ID)
		if err := trigger.SentinelVisible(ctx); err != nil {
			logger.Warn("load more failed", zap.Error(err))
			break
		}
	}

	state := orchestrator.State()
	if *star != "" {
		starred := make(map[string]struct{})
		for _, u := range strings.Split(*star, ",") {
			starred[strings.TrimSpace(u)] = struct{}{}
		}
		for _, a := range state.Articles {
			if _, ok := starred[a.URL]; ok {
				favorites.Toggle(a)
			}
		}
	}
	if state.Err != "" {
		fmt.Fprintln(os.Stderr, state.Err)
	}
	fmt.Printf("%q: %d of %d articles\n\n", *query, len(state.Articles), state.TotalResults)
	for i, a := range state.Articles {
		marker := " "
		if favorites.IsFavorite(a) {
			marker = "*"
		}
		fmt.Printf("%s %3d. %s\n", marker, i+1, a.Title)
		fmt.Printf("       %s | %s\n", a.SourceName, a.PublishedAt.Format("2006-01-02 15:04"))
		fmt.Printf("       %s\n\n", a.URL)
	}
}
