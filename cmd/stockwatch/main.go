// cmd/stockwatch polls the low-stock endpoint on a cron schedule and rings
// the terminal bell only when the number of low-stock products grows.
//
// Usage: STOCKWATCH_TOKEN=<jwt> go run ./cmd/stockwatch -api http://localhost:8000 -schedule "@every 30s"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"stockledger/internal/dto"
	"stockledger/internal/stockalert"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type watch struct {
	client  *http.Client
	baseURL string
	token   string
	watcher *stockalert.Watcher
	out     io.Writer
}

func (w *watch) fetch(ctx context.Context) (*dto.LowStockResponse, error) {
	url := w.baseURL + "/v1/products/low-stock?last_count=" + strconv.Itoa(w.watcher.Last())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stockwatch: unexpected status %d", resp.StatusCode)
	}
	var body dto.LowStockResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("stockwatch: decode: %w", err)
	}
	return &body, nil
}

// tick polls once and reports whether an alert was printed.
func (w *watch) tick(ctx context.Context) (bool, error) {
	body, err := w.fetch(ctx)
	if err != nil {
		return false, err
	}
	if !w.watcher.Observe(body.Count) {
		return false, nil
	}
	fmt.Fprintf(w.out, "\a%d product(s) below %d units:\n", body.Count, body.Threshold)
	for _, p := range body.Products {
		fmt.Fprintf(w.out, "  %-30s %d\n", p.Name, p.Stock)
	}
	return true, nil
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	api := flag.String("api", "http://localhost:8000", "base URL of the stockledger API")
	schedule := flag.String("schedule", "@every 30s", "cron spec for polling")
	flag.Parse()

	token := os.Getenv("STOCKWATCH_TOKEN")
	if token == "" {
		log.Fatal().Msg("STOCKWATCH_TOKEN must be set")
	}

	w := &watch{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: *api,
		token:   token,
		watcher: &stockalert.Watcher{},
		out:     os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(*schedule, func() {
		if _, err := w.tick(ctx); err != nil {
			log.Warn().Err(err).Msg("low-stock poll failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", *schedule).Msg("invalid schedule")
	}

	if _, err := w.tick(ctx); err != nil {
		log.Warn().Err(err).Msg("low-stock poll failed")
	}
	c.Start()
	log.Info().Str("schedule", *schedule).Msg("stockwatch running")

	<-ctx.Done()
	<-c.Stop().Done()
}
