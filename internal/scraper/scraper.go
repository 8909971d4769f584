// Package scraper produces the raw list of DoH endpoint URLs the curation
// run starts from. The rest of the pipeline only depends on the Producer
// interface, so resolution and curation are testable without any scraping.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Producer yields an ordered sequence of endpoint URL strings.
type Producer interface {
	ProduceURLs(ctx context.Context) ([]string, error)
}

// CommandProducer runs an external scraper process and reads one URL per
// stdout line. A non-zero exit or an empty result is a fatal producer error;
// the run must not continue on a silent scrape failure.
type CommandProducer struct {
	Command string
	Args    []string
}

func (p *CommandProducer) ProduceURLs(ctx context.Context) ([]string, error) {
	if p.Command == "" {
		return nil, errors.New("scraper command not configured")
	}

	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("scraper command failed: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("scraper command failed: %w", err)
	}

	urls := splitLines(string(out))
	if len(urls) == 0 {
		return nil, errors.New("scraper command produced no URLs")
	}
	return urls, nil
}

func splitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
