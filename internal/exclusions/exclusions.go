// Package exclusions holds the set of tokens that must never appear in a
// published list. The set is built once at startup from CLI values and an
// optional file, and is read-only afterwards.
package exclusions

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"dohlists/internal/domain"
)

type Set struct {
	entries map[string]struct{}
}

// Load builds the exclusion set from inline values and an optional file.
// File entries are one token per line; lines starting with '#' or ';' are
// comments and blank lines are skipped. Entries that normalize to nothing
// are dropped silently. An empty filePath means "no file"; a configured file
// that cannot be read is an error.
func Load(values []string, filePath string) (*Set, error) {
	set := &Set{entries: make(map[string]struct{})}

	for _, value := range values {
		set.add(value)
	}

	if filePath != "" {
		if err := set.loadFile(filePath); err != nil {
			return nil, err
		}
	}

	return set, nil
}

func (s *Set) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open exclusions file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		s.add(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read exclusions file: %w", err)
	}
	return nil
}

func (s *Set) add(raw string) {
	if token := domain.Normalize(raw); token != "" {
		s.entries[token] = struct{}{}
	}
}

// Contains reports whether a normalized token is excluded. Safe on a nil set.
func (s *Set) Contains(token string) bool {
	if s == nil {
		return false
	}
	_, found := s.entries[token]
	return found
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}
