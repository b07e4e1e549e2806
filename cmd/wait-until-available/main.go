package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gitlab.com/dirk.krummacker/contactbook/internal/logging"
)

// Usage example on the command line:
// > go run ./cmd/wait-until-available -url=http://localhost:8080 -interval=5s -timeout=2m
func main() {
	baseURL := flag.String("url", "http://localhost:8080", "the base URL of the contacts service")
	interval := flag.Duration("interval", 5*time.Second, "the pause between two attempts")
	timeout := flag.Duration("timeout", 2*time.Minute, "give up after this duration")
	flag.Parse()
	logging.Init("development", "info")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := waitUntilHealthy(ctx, http.DefaultClient, *baseURL, *interval); err != nil {
		log.Error().Err(err).Str("url", *baseURL).Msg("service did not become available")
		os.Exit(1)
	}
	log.Info().Str("url", *baseURL).Msg("service is available")
}

// waitUntilHealthy polls the health endpoint until it answers with 200 OK or ctx is done.
func waitUntilHealthy(ctx context.Context, client *http.Client, baseURL string, interval time.Duration) error {
	healthURL := strings.TrimSuffix(baseURL, "/") + "/healthz"
	start := time.Now()
	for {
		status, err := probe(ctx, client, healthURL)
		if err == nil && status == http.StatusOK {
			return nil
		}
		event := log.Info().Dur("waited", time.Since(start))
		if err != nil {
			event.Err(err).Msg("service not reachable yet")
		} else {
			event.Int("status", status).Msg("service not healthy yet")
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up after %s: %w", time.Since(start).Round(time.Second), ctx.Err())
		case <-time.After(interval):
		}
	}
}

func probe(ctx context.Context, client *http.Client, healthURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return 0, err
	}
	res, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	res.Body.Close()
	return res.StatusCode, nil
}
