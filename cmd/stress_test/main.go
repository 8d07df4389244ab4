package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	vegeta "github.com/tsenart/vegeta/v12/lib"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/vote-score/internal/adapter/handler"
)

var (
	optTarget   = flag.String("target", "http://localhost:8080", "base URL of the HTTP API")
	optGRPC     = flag.String("grpc", "", "addr:port of the gRPC API; when set, votes go over gRPC")
	optRate     = flag.Int("rate", 200, "votes per second, per direction (HTTP)")
	optDuration = flag.Duration("duration", 5*time.Second, "attack duration (HTTP)")
	optUps      = flag.Int("ups", 2000, "number of upvotes (gRPC)")
	optDowns    = flag.Int("downs", 800, "number of downvotes (gRPC)")
	optWorkers  = flag.Int("workers", 64, "concurrent callers (gRPC)")
)

type result struct {
	before, after int64
	ups, downs    int64
	failed        int64
	elapsed       time.Duration
	latencies     []string
}

func main() {
	flag.Parse()

	var (
		res *result
		err error
	)
	if *optGRPC != "" {
		res, err = runGRPC(context.Background(), *optGRPC)
	} else {
		res, err = runHTTP(strings.TrimRight(*optTarget, "/"))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "stress test: %v\n", err)
		os.Exit(1)
	}

	if !report(res) {
		os.Exit(1)
	}
}

func runHTTP(base string) (*result, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	before, err := fetchScore(client, base)
	if err != nil {
		return nil, err
	}

	rate := vegeta.Rate{Freq: *optRate, Per: time.Second}
	attack := func(path string, m *vegeta.Metrics, ok *int64) error {
		targeter := vegeta.NewStaticTargeter(vegeta.Target{Method: http.MethodPost, URL: base + path})
		attacker := vegeta.NewAttacker()
		for r := range attacker.Attack(targeter, rate, *optDuration, path) {
			m.Add(r)
			if r.Code == http.StatusOK {
				*ok++
			}
		}
		m.Close()
		return nil
	}

	var upMetrics, downMetrics vegeta.Metrics
	res := &result{before: before}

	start := time.Now()
	var eg errgroup.Group
	eg.Go(func() error { return attack("/upvote", &upMetrics, &res.ups) })
	eg.Go(func() error { return attack("/downvote", &downMetrics, &res.downs) })
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	res.elapsed = time.Since(start)

	res.failed = int64(upMetrics.Requests+downMetrics.Requests) - res.ups - res.downs
	res.latencies = []string{
		fmt.Sprintf("upvote   p50=%v p99=%v", upMetrics.Latencies.P50, upMetrics.Latencies.P99),
		fmt.Sprintf("downvote p50=%v p99=%v", downMetrics.Latencies.P50, downMetrics.Latencies.P99),
	}

	res.after, err = fetchScore(client, base)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func fetchScore(client *http.Client, base string) (int64, error) {
	resp, err := client.Get(base + "/score")
	if err != nil {
		return 0, fmt.Errorf("get score: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("get score: status %d", resp.StatusCode)
	}

	var body handler.ScoreHTTPResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode score: %w", err)
	}
	return body.Score, nil
}

func runGRPC(ctx context.Context, addr string) (*result, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	client := handler.NewScoreClient(conn)

	before, err := client.GetScore(ctx)
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}

	var ups, downs, failed atomic.Int64
	var eg errgroup.Group
	eg.SetLimit(*optWorkers)

	start := time.Now()
	for i := 0; i < *optUps+*optDowns; i++ {
		call, counter := client.Upvote, &ups
		if i < *optDowns {
			call, counter = client.Downvote, &downs
		}
		eg.Go(func() error {
			if _, err := call(ctx); err != nil {
				failed.Add(1)
				return nil
			}
			counter.Add(1)
			return nil
		})
	}
	eg.Wait()
	elapsed := time.Since(start)

	after, err := client.GetScore(ctx)
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}

	return &result{
		before:  before,
		after:   after,
		ups:     ups.Load(),
		downs:   downs.Load(),
		failed:  failed.Load(),
		elapsed: elapsed,
	}, nil
}

func report(r *result) bool {
	expected := r.before + r.ups - r.downs

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Score Before:     %s\n", humanize.Comma(r.before))
	fmt.Printf("Upvotes OK:       %s\n", humanize.Comma(r.ups))
	fmt.Printf("Downvotes OK:     %s\n", humanize.Comma(r.downs))
	fmt.Printf("Failed:           %s\n", humanize.Comma(r.failed))
	fmt.Printf("Duration:         %v\n", r.elapsed)
	for _, l := range r.latencies {
		fmt.Printf("Latency:          %s\n", l)
	}
	fmt.Printf("Score After:      %s\n", humanize.Comma(r.after))
	fmt.Println("==========================================")

	if r.after == expected {
		fmt.Printf("PASS: score moved by exactly %d\n", r.ups-r.downs)
		return true
	}

	fmt.Printf("FAIL: expected score %d, got %d\n", expected, r.after)
	if r.failed > 0 {
		fmt.Println("note: failed requests may still have been applied by the server")
	}
	return false
}
