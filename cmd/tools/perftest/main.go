// main.go - Load generator for the visitlog ingestion endpoints
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// PerfConfig holds the configuration for the performance test
type PerfConfig struct {
	BaseURL       string
	Concurrency   int
	Duration      time.Duration
	EventsPerSec  int
	DurationShare float64
	Timeout       time.Duration
}

// PerfStats aggregates results as they arrive from the workers
type PerfStats struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	StatusCodes        map[int]int64
	Endpoints          map[string]int64
	ResponseTimes      []time.Duration
	StartTime          time.Time
	EndTime            time.Time
}

// Result captures the result of a single request
type Result struct {
	Endpoint   string
	Duration   time.Duration
	StatusCode int
	Error      error
}

var paths = []string{"/", "/pricing", "/blog", "/docs", "/about", "/contact", "/login", "/register"}

func main() {
	baseURL := flag.String("url", "http://localhost:1000", "Base URL of the server")
	concurrency := flag.Int("c", 10, "Number of concurrent clients")
	duration := flag.Duration("d", 30*time.Second, "Duration of the test")
	eventsPerSec := flag.Int("rate", 0, "Target requests per second (0 = unlimited)")
	durationShare := flag.Float64("duration-share", 0.3, "Share of requests sent to /api/update-duration")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := &PerfConfig{
		BaseURL:       strings.TrimRight(*baseURL, "/"),
		Concurrency:   *concurrency,
		Duration:      *duration,
		EventsPerSec:  *eventsPerSec,
		DurationShare: *durationShare,
		Timeout:       *timeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	go func() {
		sig := <-sigChan
		fmt.Printf("Received signal %v, shutting down...\n", sig)
		cancel()
	}()

	logger.Info("Starting performance test",
		slog.String("url", cfg.BaseURL),
		slog.Int("concurrency", cfg.Concurrency),
		slog.Duration("duration", cfg.Duration),
		slog.Int("rate", cfg.EventsPerSec))

	stats := &PerfStats{
		StatusCodes: make(map[int]int64),
		Endpoints:   make(map[string]int64),
		StartTime:   time.Now(),
	}
	for result := range runTest(ctx, cfg) {
		stats.add(result)
	}
	stats.EndTime = time.Now()

	printResults(stats)
}

// runTest starts the workers and returns a channel closed once all of them stop
func runTest(ctx context.Context, cfg *PerfConfig) <-chan Result {
	results := make(chan Result, cfg.Concurrency*10)
	var wg sync.WaitGroup

	var interval time.Duration
	if cfg.EventsPerSec > 0 {
		interval = time.Duration(float64(time.Second) * float64(cfg.Concurrency) / float64(cfg.EventsPerSec))
	}

	for i := 0; i < cfg.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w := newWorker(cfg, int64(workerID)+time.Now().UnixNano())

			var ticker *time.Ticker
			if interval > 0 {
				ticker = time.NewTicker(interval)
				defer ticker.Stop()
			}

			for {
				if ticker != nil {
					select {
					case <-ticker.C:
					case <-ctx.Done():
						return
					}
				} else if ctx.Err() != nil {
					return
				}
				results <- w.next(ctx)
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

type worker struct {
	cfg      *PerfConfig
	client   *http.Client
	faker    *gofakeit.Faker
	visitors []string
}

func newWorker(cfg *PerfConfig, seed int64) *worker {
	return &worker{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		faker:  gofakeit.New(seed),
	}
}

// next sends either a page view or, for a visitor it already tracked, a duration update.
func (w *worker) next(ctx context.Context) Result {
	f := w.faker
	if len(w.visitors) > 0 && f.Float64Range(0, 1) < w.cfg.DurationShare {
		visitorID := w.visitors[f.Number(0, len(w.visitors)-1)]
		return w.post(ctx, "/api/update-duration", map[string]any{
			"visitor_id": visitorID,
			"duration":   f.Number(1, 600),
		})
	}

	visitorID := f.UUID()
	if len(w.visitors) < 100 {
		w.visitors = append(w.visitors, visitorID)
	}
	path := f.RandomString(paths)
	return w.post(ctx, "/api/track", map[string]any{
		"visitor_id":    visitorID,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"url":           "https://example.com" + path,
		"path":          path,
		"referrer":      f.URL(),
		"user_agent":    f.UserAgent(),
		"screen_width":  f.Number(320, 2560),
		"screen_height": f.Number(480, 1440),
	})
}

func (w *worker) post(ctx context.Context, endpoint string, body map[string]any) Result {
	data, err := json.Marshal(body)
	if err != nil {
		return Result{Endpoint: endpoint, Error: fmt.Errorf("failed to marshal JSON: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return Result{Endpoint: endpoint, Error: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", w.faker.IPv4Address())

	start := time.Now()
	resp, err := w.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return Result{Endpoint: endpoint, Duration: elapsed, Error: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return Result{Endpoint: endpoint, Duration: elapsed, StatusCode: resp.StatusCode}
}

func (s *PerfStats) add(r Result) {
	// Requests cut off by the end of the run are not counted.
	if errors.Is(r.Error, context.Canceled) || errors.Is(r.Error, context.DeadlineExceeded) {
		return
	}
	s.TotalRequests++
	s.Endpoints[r.Endpoint]++
	if r.Error != nil {
		s.FailedRequests++
		return
	}

	s.StatusCodes[r.StatusCode]++
	s.ResponseTimes = append(s.ResponseTimes, r.Duration)
	if r.StatusCode == http.StatusOK {
		s.SuccessfulRequests++
	} else {
		s.FailedRequests++
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func pct(n, total int64) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

// printResults displays the test results as aligned tables
func printResults(stats *PerfStats) {
	elapsed := stats.EndTime.Sub(stats.StartTime)
	sort.Slice(stats.ResponseTimes, func(i, j int) bool { return stats.ResponseTimes[i] < stats.ResponseTimes[j] })

	fmt.Println("\nPerformance Test Results:")
	fmt.Printf("Test Duration: %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Requests Per Second: %.2f\n", float64(stats.TotalRequests)/elapsed.Seconds())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\n%s\t%s\n", "METRIC", "VALUE")
	fmt.Fprintf(w, "%s\t%s\n", "------", "-----")
	fmt.Fprintf(w, "Total Requests\t%d\n", stats.TotalRequests)
	fmt.Fprintf(w, "Successful Requests\t%d (%.2f%%)\n", stats.SuccessfulRequests, pct(stats.SuccessfulRequests, stats.TotalRequests))
	fmt.Fprintf(w, "Failed Requests\t%d (%.2f%%)\n", stats.FailedRequests, pct(stats.FailedRequests, stats.TotalRequests))
	for _, endpoint := range []string{"/api/track", "/api/update-duration"} {
		fmt.Fprintf(w, "%s\t%d\n", endpoint, stats.Endpoints[endpoint])
	}
	fmt.Fprintf(w, "p50 Latency\t%v\n", percentile(stats.ResponseTimes, 0.50))
	fmt.Fprintf(w, "p90 Latency\t%v\n", percentile(stats.ResponseTimes, 0.90))
	fmt.Fprintf(w, "p99 Latency\t%v\n", percentile(stats.ResponseTimes, 0.99))
	if n := len(stats.ResponseTimes); n > 0 {
		fmt.Fprintf(w, "Max Latency\t%v\n", stats.ResponseTimes[n-1])
	}
	w.Flush()

	if len(stats.StatusCodes) == 0 {
		return
	}
	codes := make([]int, 0, len(stats.StatusCodes))
	for code := range stats.StatusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	fmt.Println("\nStatus Code Distribution:")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", "STATUS CODE", "COUNT", "PERCENTAGE")
	for _, code := range codes {
		count := stats.StatusCodes[code]
		fmt.Fprintf(w, "%d\t%d\t%.2f%%\n", code, count, pct(count, stats.TotalRequests))
	}
	w.Flush()
}
