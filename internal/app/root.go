package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/oshokin/nitai/internal/client"
	"github.com/oshokin/nitai/internal/config"
	"github.com/oshokin/nitai/internal/logger"
	"github.com/oshokin/nitai/internal/resolver"
	"github.com/oshokin/nitai/internal/service/fetch"
	"github.com/oshokin/nitai/internal/utils"
)

// ErrNoURLs indicates that neither arguments nor the input file named a URL.
var ErrNoURLs = errors.New("no URLs to fetch")

// FetchParams describe one invocation of the fetch commands.
type FetchParams struct {
	// Method is the HTTP method sent to every URL.
	Method string
	// URLs are the targets given on the command line.
	URLs []string
	// InputFile names a file with one URL per line.
	InputFile string
	// Data is sent as the raw body of every request.
	Data string
	// Options are shared by every request. Their Body is ignored; use Data instead.
	Options *client.RequestOptions
	// Render controls what happens to the responses.
	Render *fetch.RenderOptions
}

// ExecuteFetchCommand fetches every URL and renders the responses.
// It exits with a non-zero status when any request fails.
func ExecuteFetchCommand(ctx context.Context, cfg *config.Config, params *FetchParams) {
	targets, err := buildTargets(params)
	if err != nil {
		logger.Fatalf(ctx, "Failed to prepare requests: %v", err)
	}

	s := newService(ctx, cfg)

	err = s.Fetch(ctx, targets, params.Render)

	s.PrintSummary(ctx)

	if err != nil {
		logger.Fatalf(ctx, "Fetch failed: %v", err)
	}
}

// newService builds the process-wide resolver and client and the service on top of them.
func newService(ctx context.Context, cfg *config.Config) fetch.Service {
	dnsResolver := resolver.New(cfg.DNSCacheSize, cfg.ParsedDNSCacheTTL)

	c, err := client.NewClient(cfg, dnsResolver)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize client: %v", err)
	}

	return fetch.NewService(cfg, c, os.Stdout, os.Stderr)
}

// buildTargets turns the parameters into one target per unique URL.
// Every target gets its own copy of the options and a fresh body reader.
func buildTargets(params *FetchParams) ([]*fetch.Target, error) {
	urls, err := collectURLs(params.URLs, params.InputFile)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(params.Method))
	if method == "" {
		method = http.MethodGet
	}

	targets := make([]*fetch.Target, 0, len(urls))

	for _, rawURL := range urls {
		var options client.RequestOptions
		if params.Options != nil {
			options = *params.Options
		}

		options.Body = nil
		if params.Data != "" {
			options.Body = strings.NewReader(params.Data)
		}

		targets = append(targets, &fetch.Target{Method: method, URL: rawURL, Options: &options})
	}

	return targets, nil
}

// collectURLs merges command-line URLs with the ones read from inputFile, dropping duplicates.
func collectURLs(args []string, inputFile string) ([]string, error) {
	var (
		seen = make(map[string]struct{})
		urls []string
	)

	add := func(candidates []string) {
		for _, candidate := range candidates {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}

			if _, exists := seen[candidate]; exists {
				continue
			}

			seen[candidate] = struct{}{}
			urls = append(urls, candidate)
		}
	}

	add(args)

	if inputFile != "" {
		lines, err := utils.ReadUniqueLinesFromFile(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}

		add(lines)
	}

	if len(urls) == 0 {
		return nil, ErrNoURLs
	}

	return urls, nil
}
