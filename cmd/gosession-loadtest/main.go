package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"
)

type options struct {
	sessions    int
	concurrency int
	ops         int
	redisAddr   string
	shards      int
	prefix      string
	serializer  string
	logLevel    string
	logJSON     bool
}

var (
	opts    options
	rootCmd = &cobra.Command{
		Use:          "gosession-loadtest",
		Short:        "Drive load and commit traffic through a session manager",
		Long:         `Seeds sessions into Redis (or in-process miniredis shards) and measures Load and Load+Commit latency.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
)

func init() {
	f := rootCmd.Flags()
	f.IntVar(&opts.sessions, "sessions", 100000, "number of sessions to seed")
	f.IntVar(&opts.concurrency, "concurrency", 256, "number of concurrent workers")
	f.IntVar(&opts.ops, "ops", 200000, "operations per phase (load + commit)")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	f.IntVar(&opts.shards, "shards", 1, "number of miniredis shards when no redis address is given")
	f.StringVar(&opts.prefix, "prefix", "sess", "session key prefix")
	f.StringVar(&opts.serializer, "serializer", "json", "token serializer: json or msgpack")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.BoolVarP(&opts.logJSON, "log-json", "j", false, "log as JSON")
}

func main() {
	if _, err := maxprocs.Set(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var errBadFlags = errors.New("sessions, concurrency, ops, and shards must be > 0")

func run(ctx context.Context, o options) error {
	level, err := logging.ParseLogLevel(o.logLevel)
	logger := logging.New(os.Stderr, level, o.logJSON)
	if err != nil {
		logger.Warn("invalid log level", slog.Any("error", err))
	}

	if o.sessions <= 0 || o.concurrency <= 0 || o.ops <= 0 || o.shards <= 0 {
		return errBadFlags
	}

	addr := o.redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	cfg := goSession.DefaultConfig()
	cfg.Session.KeyPrefix = o.prefix
	cfg.Codec.Serializer = o.serializer
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	if addr == "" {
		for i := 0; i < o.shards; i++ {
			mr, err := miniredis.Run()
			if err != nil {
				return fmt.Errorf("start miniredis: %w", err)
			}
			defer mr.Close()
			cfg.Storage.Shards = append(cfg.Storage.Shards, goSession.ShardConfig{Weight: 1, Addr: mr.Addr(), Timeout: time.Second})
		}
		logger.Info("using miniredis", slog.Int("shards", o.shards))
	} else {
		cfg.Storage.Shards = []goSession.ShardConfig{{Weight: 1, Addr: addr, Timeout: time.Second}}
		logger.Info("using redis", slog.String("addr", addr))
	}

	m, err := goSession.New().WithConfig(cfg).WithLogger(logger).Build()
	if err != nil {
		return fmt.Errorf("build session manager: %w", err)
	}
	defer m.Close()

	keys := make([]string, o.sessions)
	logger.Info("seeding sessions", slog.Int("count", o.sessions))
	startSeed := time.Now()
	for i := range keys {
		sess, _ := m.Load(ctx, "")
		sess.Set("user_id", fmt.Sprintf("u-%d", i))
		sess.Set("last_seen", time.Now().Unix())
		act, err := m.Commit(ctx, sess, true, false)
		if err != nil {
			return fmt.Errorf("seed commit: %w", err)
		}
		keys[i] = act.Key
	}
	logger.Info("seeded", slog.Duration("took", time.Since(startSeed).Round(time.Millisecond)))

	loadStats, err := runPhase(ctx, o.ops, o.concurrency, 7919, func(ctx context.Context, r *rand.Rand) error {
		_, err := m.Load(ctx, keys[r.Intn(len(keys))])
		return err
	})
	if err != nil {
		return fmt.Errorf("load phase: %w", err)
	}
	commitStats, err := runPhase(ctx, o.ops, o.concurrency, 6151, func(ctx context.Context, r *rand.Rand) error {
		sess, err := m.Load(ctx, keys[r.Intn(len(keys))])
		if err != nil {
			return err
		}
		sess.Set("last_seen", time.Now().Unix())
		_, err = m.Commit(ctx, sess, true, true)
		return err
	})
	if err != nil {
		return fmt.Errorf("commit phase: %w", err)
	}

	fmt.Println("---- results ----")
	printStats("load", loadStats)
	printStats("load+commit", commitStats)

	snap := m.MetricsSnapshot()
	fmt.Printf("loaded=%d missing=%d updated=%d transport_failures=%d\n",
		snap.Counters[goSession.MetricSessionLoaded],
		snap.Counters[goSession.MetricSessionMissing],
		snap.Counters[goSession.MetricSessionUpdated],
		snap.Counters[goSession.MetricTransportFailure],
	)
	return nil
}

// runPhase spreads ops over concurrency workers. Failed ops are counted, not fatal;
// the phase stops early only when ctx is cancelled.
func runPhase(ctx context.Context, ops, concurrency int, seedStride int64, op func(context.Context, *rand.Rand) error) (phaseStats, error) {
	var (
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)*seedStride))
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return nil
				}
				t0 := time.Now()
				err := op(gctx, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		})
	}
	err := g.Wait()
	return computeStats(time.Since(start), latencies, failures), err
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
