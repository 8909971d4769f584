package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultSourceURL is the community-maintained table of public DoH servers.
	DefaultSourceURL = "https://github.com/curl/curl/wiki/DNS-over-HTTPS"

	maxResponseBytes = 10 << 20 // 10 MiB safety cap
)

var (
	urlPattern = regexp.MustCompile(`https://[A-Za-z0-9\[\]:._~%-]+(?:/[A-Za-z0-9._~%/=?&+-]*)?`)

	defaultClient = &http.Client{Timeout: 30 * time.Second}
)

// WikiProducer fetches the public DoH server wiki page and extracts endpoint
// URLs from it. Extraction is regex-based over the rendered page: every https
// URL that plausibly names a resolver endpoint (its text mentions dns or doh)
// is kept, in document order.
type WikiProducer struct {
	URL    string
	Client *http.Client
}

func (p *WikiProducer) ProduceURLs(ctx context.Context) ([]string, error) {
	source := p.URL
	if source == "" {
		source = DefaultSourceURL
	}
	client := p.Client
	if client == nil {
		client = defaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, source)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	urls := extractEndpointURLs(string(content))
	if len(urls) == 0 {
		return nil, fmt.Errorf("no endpoint URLs found at %s", source)
	}

	log.Debug("scraped endpoint URLs", "source", source, "count", len(urls))
	return urls, nil
}

// extractEndpointURLs pulls candidate DoH endpoint URLs out of a page body.
// The wiki, like most pages, is full of unrelated links; only URLs whose text
// mentions dns or doh survive. Duplicates keep their first position.
func extractEndpointURLs(body string) []string {
	seen := make(map[string]struct{})
	var urls []string

	for _, match := range urlPattern.FindAllString(body, -1) {
		match = strings.TrimRight(match, "/.")
		lower := strings.ToLower(match)
		if !strings.Contains(lower, "dns") && !strings.Contains(lower, "doh") {
			continue
		}
		if strings.Contains(lower, "github.com") || strings.Contains(lower, "githubusercontent.com") {
			continue
		}
		if _, found := seen[match]; found {
			continue
		}
		seen[match] = struct{}{}
		urls = append(urls, match)
	}

	return urls
}
