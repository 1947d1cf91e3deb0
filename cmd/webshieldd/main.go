package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shadowglass/webshield/internal/shield/common/clock"
	"github.com/shadowglass/webshield/internal/shield/common/log"
	"github.com/shadowglass/webshield/internal/shield/config"
	"github.com/shadowglass/webshield/internal/shield/domain"
	"github.com/shadowglass/webshield/internal/shield/gateways/fetch"
	"github.com/shadowglass/webshield/internal/shield/repos/filterstore"
	"github.com/shadowglass/webshield/internal/shield/repos/filterstore/bolt"
	"github.com/shadowglass/webshield/internal/shield/repos/verdictcache"
	"github.com/shadowglass/webshield/internal/shield/services/classifier"
	"github.com/shadowglass/webshield/internal/shield/services/navpolicy"
)

const (
	version = "0.1.0-dev"
	appName = "webshieldd"
)

// Application holds the wired filtering engine. It reads URLs from stdin
// (one per line, optionally "sub <url> <top-level-url>" for sub-frame
// requests) and prints the policy decision for each, refreshing filter
// lists in the background — a debugging surface for blocklists.
type Application struct {
	config     *config.AppConfig
	store      *filterstore.Store
	classifier *classifier.Classifier
	policy     *navpolicy.Policy
	meta       filterstore.MetaStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"cache_size": cfg.CacheSize,
		"cache_file": cfg.CacheFile,
		"sources":    cfg.Sources,
	}, "Starting webshield engine")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Engine failed")
	}

	log.Info(nil, "webshield engine stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	cacheSize := cfg.CacheSize
	if cfg.DisableCache {
		cacheSize = 0
	}
	cache, err := verdictcache.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create verdict cache: %w", err)
	}

	var meta filterstore.MetaStore = filterstore.NopMetaStore{}
	if cfg.MetaDB != "" {
		meta, err = bolt.New(cfg.MetaDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open source metadata store: %w", err)
		}
	}

	store := filterstore.New(filterstore.Options{
		Sources:      cfg.Sources,
		CachePath:    cfg.CacheFile,
		TTL:          time.Duration(cfg.CacheTTLHours) * time.Hour,
		FetchTimeout: time.Duration(cfg.FetchTimeoutSeconds) * time.Second,
		Fetcher:      fetch.New(time.Duration(cfg.FetchTimeoutSeconds) * time.Second),
		Meta:         meta,
		Clock:        clk,
		Logger:       logger,
	})

	cls := classifier.New(classifier.Options{
		Cache:     cache,
		Overrides: cfg.Overrides,
		Logger:    logger,
	})

	policy := navpolicy.New(cls, navpolicy.Config{
		PseudoWhitelist: []string{"about:blank"},
		UpgradeHTTPS:    cfg.UpgradeHTTPS,
	}, logger)

	return &Application{
		config:     cfg,
		store:      store,
		classifier: cls,
		policy:     policy,
		meta:       meta,
	}, nil
}

// Run drives the owner loop: it is the single goroutine that swaps the
// active filter list, so the classifier needs no locking.
func (app *Application) Run(ctx context.Context) error {
	if list, err := app.store.Load(ctx); err != nil {
		return fmt.Errorf("initial filter load failed: %w", err)
	} else if list != nil {
		app.classifier.ReplaceList(list)
	}

	ttl := time.Duration(app.config.CacheTTLHours) * time.Hour
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	lines := readStdin(ctx)

	for {
		select {
		case <-ctx.Done():
			if err := app.meta.Close(); err != nil {
				log.Warn(map[string]any{"error": err.Error()}, "Error closing metadata store")
			}
			return nil
		case list := <-app.store.Updates():
			app.classifier.ReplaceList(list)
		case <-ticker.C:
			app.store.Refresh(ctx)
		case line, ok := <-lines:
			if !ok {
				lines = nil // stdin closed; keep serving refreshes
				continue
			}
			req := parseRequest(line)
			fmt.Printf("%s\t%s\n", app.policy.Decide(req), req.URL)
		}
	}
}

// parseRequest turns one stdin line into a NavigationRequest. Formats:
//
//	<url>
//	sub <url> <top-level-url>
func parseRequest(line string) domain.NavigationRequest {
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[0] == "sub" {
		return domain.NavigationRequest{URL: fields[1], Frame: domain.FrameSub, TopLevelURL: fields[2]}
	}
	if len(fields) >= 1 {
		return domain.NavigationRequest{URL: fields[0], Frame: domain.FrameMain}
	}
	return domain.NavigationRequest{}
}

// readStdin feeds stdin lines to the owner loop without blocking it.
func readStdin(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
