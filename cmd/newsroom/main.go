// Command newsroom runs the Newsroom chyron engine: one shared lane
// manager, a Chyron/Producer pair per configured story, and an optional
// metrics listener. Grounded on cli/cmd/ariadne/main.go and root main.go —
// stdlib flag, signal-driven graceful shutdown, and an optional metrics
// HTTP server gated behind -enable-metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/b0bh00d/Newsroom-sub000/internal/chyron"
	"github.com/b0bh00d/Newsroom-sub000/internal/events"
	"github.com/b0bh00d/Newsroom-sub000/internal/geometry"
	"github.com/b0bh00d/Newsroom-sub000/internal/lane"
	"github.com/b0bh00d/Newsroom-sub000/internal/newsroomerr"
	"github.com/b0bh00d/Newsroom-sub000/internal/poller"
	"github.com/b0bh00d/Newsroom-sub000/internal/producer"
	"github.com/b0bh00d/Newsroom-sub000/internal/reporter"
	"github.com/b0bh00d/Newsroom-sub000/internal/reporter/localreporter"
	"github.com/b0bh00d/Newsroom-sub000/internal/reporter/restreporter"
	"github.com/b0bh00d/Newsroom-sub000/internal/settings"
	"github.com/b0bh00d/Newsroom-sub000/internal/singleton"
	"github.com/b0bh00d/Newsroom-sub000/internal/story"
	"github.com/b0bh00d/Newsroom-sub000/internal/telemetry/logging"
	"github.com/b0bh00d/Newsroom-sub000/internal/telemetry/metrics"
)

func main() {
	var (
		localStories   string
		restTarget     string
		restProject    string
		restBuilder    string
		settingsPath   string
		lockDir        string
		displayW       int
		displayH       int
		laneHeight     int
		pollTimeout    time.Duration
		metricsAddr    string
		enableMetrics  bool
		showVersion    bool
	)

	flag.StringVar(&localStories, "local", "", "Comma separated story=path pairs watched as local file stories")
	flag.StringVar(&restTarget, "rest-target", "", "TeamCity 9 base URL for a shared REST poller (optional)")
	flag.StringVar(&restProject, "rest-project", "", "Project id for -rest-target")
	flag.StringVar(&restBuilder, "rest-builder", "", "Builder id for -rest-target (empty = all builders)")
	flag.StringVar(&settingsPath, "settings", "newsroom.yaml", "Path to the persisted settings document")
	flag.StringVar(&lockDir, "lock-dir", os.TempDir(), "Directory for the single-instance lock file")
	flag.IntVar(&displayW, "display-width", 1920, "Target display width in pixels")
	flag.IntVar(&displayH, "display-height", 1080, "Target display height in pixels")
	flag.IntVar(&laneHeight, "lane-height", 60, "Height in pixels of one lane")
	flag.DurationVar(&pollTimeout, "poll-interval", 10*time.Second, "REST poller interval")
	flag.StringVar(&metricsAddr, "metrics", "", "Expose Prometheus metrics on address (e.g. :9090)")
	flag.BoolVar(&enableMetrics, "enable-metrics", false, "Enable the metrics provider (required to serve -metrics)")
	flag.BoolVar(&showVersion, "version", false, "Show version / build info")
	flag.Parse()

	if showVersion {
		fmt.Println("newsroom CLI - chyron engine")
		return
	}

	guard, acquired, err := singleton.TryAcquire(lockDir, "newsroom")
	if err != nil {
		log.Fatalf("acquire single-instance lock: %v", err)
	}
	if !acquired {
		fmt.Println("another newsroom instance is already running")
		os.Exit(1)
	}
	defer func() { _ = guard.Release() }()

	store, err := settings.Open(settingsPath)
	if err != nil {
		log.Fatalf("open settings: %v", err)
	}

	var provider metrics.Provider = metrics.NewNoopProvider()
	var promProvider *metrics.PrometheusProvider
	if enableMetrics {
		promProvider = metrics.NewPrometheusProvider(metrics.PrometheusProviderOptions{})
		provider = promProvider
	}

	logger := logging.New(slog.Default())
	bus := events.NewBus(provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Println("signal received; shutting down")
		cancel()
		<-sigCh
		log.Println("second signal received; forcing exit")
		os.Exit(1)
	}()

	if metricsAddr != "" && promProvider != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promProvider.MetricsHandler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		go func() {
			log.Printf("metrics listening on %s", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	display := geometry.Rect{X: 0, Y: 0, W: displayW, H: displayH}
	lanes := lane.New(display, laneHeight)
	registry := poller.NewRegistry()
	styles := producer.NewStyleList("")

	var producers []*producer.Producer

	// Stories persisted by a previous run come first, then any added on the
	// command line for this session.
	for _, info := range story.LoadAll(store.Document()) {
		rep, err := reporterForBeat(info, registry, pollTimeout)
		if err != nil {
			log.Printf("story %s: %v, skipping", info.Identity, err)
			continue
		}
		rep.Unsecure(info.Parameters)
		if !rep.SetRequirements(info.Parameters) {
			log.Printf("story %s: %v, skipping", info.Identity, newsroomerr.ErrMissingRequiredField)
			continue
		}
		producers = append(producers, buildStory(info.Identity, info.Chyron, rep, lanes, bus, logger, provider, styles))
	}

	taken := func(identity string) bool {
		for _, p := range producers {
			if p.Story() == identity {
				return true
			}
		}
		return false
	}

	for name, path := range parsePairs(localStories) {
		if resolved := story.ResolveIdentityCollision(name, taken); resolved != name {
			log.Printf("story %s: %v, continuing as %s", name, newsroomerr.ErrStoryIdentityCollision, resolved)
			name = resolved
		}
		rep := localreporter.New(path, localreporter.TriggerNewContent)
		producers = append(producers, buildStory(name, chyron.DefaultSettings(name), rep, lanes, bus, logger, provider, styles))
	}

	if restTarget != "" && restProject != "" {
		rep := restreporter.New(registry, restTarget, pollTimeout, http.DefaultClient)
		rep.SetRequirements(map[string]string{"project*": restProject, "builder": restBuilder, "password*": ""})
		producers = append(producers, buildStory(restProject, chyron.DefaultSettings(restProject), rep, lanes, bus, logger, provider, styles))
	}

	if len(producers) == 0 {
		fmt.Println("No stories configured. Use -local story=path[,story=path...] or -rest-target with -rest-project.")
		os.Exit(1)
	}

	for _, p := range producers {
		if err := p.StartCoveringStory(ctx); err != nil {
			log.Printf("%v", err)
		}
	}

	<-ctx.Done()
	for _, p := range producers {
		p.StopCoveringStory()
	}
	if err := store.Save(); err != nil {
		log.Printf("save settings: %v", err)
	}
}

// reporterForBeat constructs the Reporter a persisted story's beat calls
// for. The REST beat expects a "target" parameter carrying the endpoint.
func reporterForBeat(info *story.Info, registry *poller.Registry, pollTimeout time.Duration) (reporter.Reporter, error) {
	switch info.Beat {
	case "REST":
		target := info.Parameters["target"]
		if target == "" {
			return nil, fmt.Errorf("%w: REST story has no target parameter", newsroomerr.ErrMissingRequiredField)
		}
		return restreporter.New(registry, target, pollTimeout, http.DefaultClient), nil
	case "Local", "":
		return localreporter.New(info.Identity, localreporter.TriggerNewContent), nil
	default:
		return nil, fmt.Errorf("%w: %q", newsroomerr.ErrNoReportersForBeat, info.Beat)
	}
}

// buildStory wires one Reporter into a fresh Chyron/Producer pair sharing
// the process-wide LaneManager, event bus, logger, and metrics provider.
func buildStory(name string, cset chyron.Settings, rep reporter.Reporter, lanes *lane.Manager, bus events.Bus, logger logging.Logger, provider metrics.Provider, styles *producer.StyleList) *producer.Producer {
	c, err := chyron.New(cset, lanes, bus, logger, provider)
	if err != nil {
		log.Fatalf("story %s: create chyron: %v", name, err)
	}
	c.Display()
	rep.SetStory(name)
	p := producer.New(name, rep, c, styles, cset.LimitContent, cset.LimitContentTo)
	return p
}

// parsePairs splits a comma separated list of key=value pairs, e.g.
// "build=./build.log,deploy=./deploy.log", into a map.
func parsePairs(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}
