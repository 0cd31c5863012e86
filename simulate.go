package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"bookingtrack/api/config"
	"bookingtrack/api/database"
	"bookingtrack/api/sink"
	"bookingtrack/api/store"
	"bookingtrack/api/tracker"
)

var (
	simStore    string
	simBoltPath string
	simSink     string
	simScript   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a browsing script through the tracking engine",
	Long: `Drive one tracking engine, standing in for a browser profile, from a
script read from --script or stdin. One command per line:

  nav <path[?query]>     route change, e.g. nav /book?utm_source=google
  booking <teamMemberId> booking created
  verify                 verification required
  register ok|fail       registration outcome
  advance <duration>     move the engine clock forward, e.g. advance 3h
  identity               print visitor, session and attribution

Blank lines and lines starting with # are ignored.

Examples:
  bookingtrack simulate --store bolt --bolt-path profile.db < visit.txt
  bookingtrack simulate --sink http --script funnel.txt
  bookingtrack simulate --sink store --store redis < visit.txt`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simStore, "store", "memory", "key-value backend: memory, bolt, redis or postgres")
	simulateCmd.Flags().StringVar(&simBoltPath, "bolt-path", "bookingtrack-profile.db", "bbolt file for --store bolt")
	simulateCmd.Flags().StringVar(&simSink, "sink", "log", "event sink: log, http or store (ClickHouse)")
	simulateCmd.Flags().StringVar(&simScript, "script", "", "script file (default stdin)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	policy, err := tracker.PolicyFromConfig(cfg.Tracking)
	if err != nil {
		return err
	}

	kv, closeKV, err := openKVStore(cfg, simStore, simBoltPath)
	if err != nil {
		return err
	}
	defer closeKV()

	eventSink, queued, closeSink, err := openSink(cfg, simSink)
	if err != nil {
		return err
	}
	defer closeSink()

	in := cmd.InOrStdin()
	if simScript != "" {
		f, err := os.Open(simScript)
		if err != nil {
			return fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		in = f
	}

	clock := &simClock{}
	engine := tracker.NewEngine(kv, eventSink, policy, tracker.WithClock(clock.Now))
	runErr := runScript(engine, clock, in, cmd.OutOrStdout())

	if queued != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Sink.Timeout+cfg.Sink.FlushInterval)
		defer cancel()
		if err := queued.Close(ctx); err != nil {
			log.Printf("ERROR: %s sink did not drain: %v", simSink, err)
		}
		log.Printf("%s sink delivered=%d failed=%d", simSink, queued.Delivered(), queued.Failed())
	}
	if engine.StorageDegraded() {
		log.Printf("Storage backend %q failed during the run; state was kept in memory only", simStore)
	}
	return runErr
}

// queuedSink delivers from a background buffer and must be drained on exit.
type queuedSink interface {
	tracker.Sink
	Close(ctx context.Context) error
	Delivered() int64
	Failed() int64
}

// openSink returns the engine sink for name, the same sink as a queuedSink
// when it buffers, and a func that releases its connection.
func openSink(cfg *config.Config, name string) (tracker.Sink, queuedSink, func(), error) {
	switch name {
	case "log":
		return sink.LogSink{}, nil, func() {}, nil
	case "http":
		s := sink.NewHTTPSink(cfg.Sink)
		return s, s, func() {}, nil
	case "store":
		chClient, err := database.NewClickHouseDB(cfg.ClickHouse)
		if err != nil {
			return nil, nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := chClient.EnsureTrackingSchema(ctx); err != nil {
			chClient.Close()
			return nil, nil, nil, err
		}
		s := sink.NewStoreSink(store.NewAnalyticsStore(chClient), cfg.Sink)
		return s, s, chClient.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown sink %q", name)
	}
}

// openKVStore returns the namespaced store for backend and a func that
// releases its connection.
func openKVStore(cfg *config.Config, backend, boltPath string) (store.KeyValueStore, func(), error) {
	ns := cfg.Tracking.StorageNamespace

	switch backend {
	case "memory":
		return store.NewMemoryKVStore(), func() {}, nil
	case "bolt":
		client, err := database.OpenBolt(boltPath)
		if err != nil {
			return nil, nil, err
		}
		kv, err := store.NewBoltKVStore(client.DB, ns)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return kv, client.Close, nil
	case "redis":
		client, err := database.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisKVStore(client.Client, ns, cfg.Redis.Timeout), client.Close, nil
	case "postgres":
		client, err := database.NewPostgresDB(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.EnsureKVSchema(ctx); err != nil {
			client.Close()
			return nil, nil, err
		}
		return store.NewPostgresKVStore(client.DB, ns, 5*time.Second), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", backend)
	}
}

// simClock is wall time shifted by the script's advance commands.
type simClock struct {
	mu     sync.Mutex
	offset time.Duration
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Now().Add(c.offset)
}

func (c *simClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.offset += d
	c.mu.Unlock()
}

func runScript(engine *tracker.Engine, clock *simClock, in io.Reader, out io.Writer) error {
	nav := engine.NewNavigationTracker()

	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		verb, rest := fields[0], fields[1:]
		switch verb {
		case "nav":
			if len(rest) != 1 {
				return fmt.Errorf("line %d: nav takes one path", lineNo)
			}
			path, rawQuery, _ := strings.Cut(rest[0], "?")
			if !nav.OnNavigationChanged(path, rawQuery) {
				fmt.Fprintf(out, "nav %s: same page, skipped\n", path)
			}
		case "booking":
			if len(rest) != 1 {
				return fmt.Errorf("line %d: booking takes a team member id", lineNo)
			}
			engine.TrackBookingCreated(rest[0])
		case "verify":
			engine.TrackVerificationRequired()
		case "register":
			if len(rest) != 1 || (rest[0] != "ok" && rest[0] != "fail") {
				return fmt.Errorf("line %d: register takes ok or fail", lineNo)
			}
			engine.TrackRegistration(rest[0] == "ok")
		case "advance":
			if len(rest) != 1 {
				return fmt.Errorf("line %d: advance takes a duration", lineNo)
			}
			d, err := time.ParseDuration(rest[0])
			if err != nil || d < 0 {
				return fmt.Errorf("line %d: invalid duration %q", lineNo, rest[0])
			}
			clock.Advance(d)
		case "identity":
			id := engine.Identity()
			fmt.Fprintf(out, "visitor=%s session=%s started=%s source=%s\n",
				id.VisitorID, id.Session.SessionID, id.Session.StartedAt.Format(time.RFC3339), id.Attribution.Source)
		default:
			return fmt.Errorf("line %d: unknown command %q", lineNo, verb)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return nil
}
