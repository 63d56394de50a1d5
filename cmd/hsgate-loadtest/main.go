// Command hsgate-loadtest measures token throughput and latency under
// concurrency. Issue and Verify phases call the jwt package directly; the
// validate phase goes through an Engine, and the optional login phase
// exercises argon2 plus the Redis login limiter.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/hsgate/hsgate"
	"github.com/hsgate/hsgate/jwt"
	otelexport "github.com/hsgate/hsgate/metrics/export/otel"
)

const loadtestPassword = "loadtest-password-123"

func main() {
	var (
		tokens      = flag.Int("tokens", 10000, "number of distinct tokens to pre-issue")
		users       = flag.Int("users", 64, "number of configured users for the login phase")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (issue, verify, validate)")
		loginOps    = flag.Int("login-ops", 0, "login operations; 0 skips the login phase")
		tamperPct   = flag.Int("tamper-pct", 0, "percentage of verify calls made with a tampered token")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "hlt", "login limiter key prefix")
	)
	flag.Parse()

	if *tokens <= 0 || *users <= 0 || *concurrency <= 0 || *ops <= 0 || *loginOps < 0 {
		fmt.Fprintln(os.Stderr, "tokens, users, concurrency, and ops must be > 0")
		os.Exit(2)
	}
	if *tamperPct < 0 || *tamperPct > 100 {
		fmt.Fprintln(os.Stderr, "tamper-pct must be within [0, 100]")
		os.Exit(2)
	}

	ctx := context.Background()
	secret := []byte("loadtest-secret-0123456789abcdef")

	fmt.Printf("issuing %d tokens...\n", *tokens)
	startSeed := time.Now()
	issued := make([]string, *tokens)
	tampered := make([]string, *tokens)
	for i := range issued {
		tok, err := jwt.Issue(secret, jwt.Claims{jwt.ClaimSubject: "user-" + strconv.Itoa(i), jwt.ClaimRole: "member"}, 3600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		issued[i] = tok.Token
		tampered[i] = tamper(tok.Token)
	}
	fmt.Printf("issued in %s\n", time.Since(startSeed).Round(time.Millisecond))

	var client redis.UniversalClient
	if *loginOps > 0 {
		var cleanup func()
		client, cleanup = openRedis(*redisAddr)
		defer cleanup()
	}

	engine, err := buildEngine(secret, *users, *prefix, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(ctx) }()
	exporter, err := otelexport.NewExporter(provider.Meter("hsgate-loadtest"), engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "otel exporter: %v\n", err)
		os.Exit(1)
	}
	defer exporter.Close()

	issueStats := runPhase(*ops, *concurrency, 7919, func(_ *rand.Rand, i int) error {
		_, err := jwt.Issue(secret, jwt.Claims{jwt.ClaimSubject: "user-" + strconv.Itoa(i), jwt.ClaimRole: "member"}, 900)
		return err
	})

	verifyStats := runPhase(*ops, *concurrency, 6151, func(r *rand.Rand, _ int) error {
		idx := r.Intn(len(issued))
		tok := issued[idx]
		if r.Intn(100) < *tamperPct {
			tok = tampered[idx]
		}
		_, err := jwt.Verify(secret, tok)
		return err
	})

	validateStats := runPhase(*ops, *concurrency, 4241, func(r *rand.Rand, _ int) error {
		_, err := engine.Validate(ctx, issued[r.Intn(len(issued))])
		return err
	})

	fmt.Println("---- results ----")
	printStats("issue", issueStats)
	printStats("verify", verifyStats)
	printStats("validate", validateStats)

	if *loginOps > 0 {
		loginStats := runPhase(*loginOps, *concurrency, 3571, func(r *rand.Rand, _ int) error {
			_, err := engine.Login(ctx, userName(r.Intn(*users)), loadtestPassword)
			return err
		})
		printStats("login", loginStats)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		fmt.Fprintf(os.Stderr, "collect metrics: %v\n", err)
		os.Exit(1)
	}
	printCounters(rm)
}

func openRedis(addr string) (redis.UniversalClient, func()) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{mr.Addr()},
		})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }
}

func buildEngine(secret []byte, users int, prefix string, client redis.UniversalClient) (*hsgate.Engine, error) {
	cfg := hsgate.DefaultConfig()
	cfg.JWT.Secret = secret
	cfg.Password = hsgate.PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
	cfg.Security.RedisPrefix = prefix
	// Every login succeeds, so the limiter only sees checks and resets.
	cfg.Security.MaxLoginAttempts = 1 << 20
	cfg.Metrics.EnableLatencyHistograms = true
	cfg.Credentials = make(map[string]hsgate.Credential, users)
	for i := 0; i < users; i++ {
		cfg.Credentials[userName(i)] = hsgate.Credential{Password: loadtestPassword, Role: "member"}
	}

	b := hsgate.New().WithConfig(cfg)
	if client != nil {
		b = b.WithRedis(client)
	}
	return b.Build()
}

func userName(i int) string {
	return "user-" + strconv.Itoa(i)
}

// tamper flips one character of the claims segment so the MAC no longer
// matches.
func tamper(token string) string {
	b := []byte(token)
	for i := range b {
		if b[i] == '.' {
			j := i + 1
			if b[j] == 'A' {
				b[j] = 'B'
			} else {
				b[j] = 'A'
			}
			break
		}
	}
	return string(b)
}

func runPhase(ops, concurrency int, seedStride int64, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStride))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(r, i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
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

func printCounters(rm metricdata.ResourceMetrics) {
	fmt.Println("---- engine counters ----")
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			fmt.Printf("%s=%d\n", m.Name, total)
		}
	}
}
