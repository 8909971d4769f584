// Package output reads and writes the plain-text list artifacts. Files carry
// a UTF-8 BOM, hold one token per line and have no trailing newline after the
// last entry.
package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"dohlists/internal/curator"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// WriteBundle persists one artifact family. The all-file is always written.
// The filtered file is skipped when it would be empty or byte-identical to
// the all-file; the exclusions and basedomains files are skipped when empty.
// Callers therefore must not assume every named file exists.
func WriteBundle(dir, family string, bundle curator.Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writeList(filepath.Join(dir, family+".txt"), bundle.All); err != nil {
		return err
	}

	if len(bundle.Filtered) > 0 && !slices.Equal(bundle.Filtered, bundle.All) {
		if err := writeList(filepath.Join(dir, family+"_filtered.txt"), bundle.Filtered); err != nil {
			return err
		}
	}
	if len(bundle.Excluded) > 0 {
		if err := writeList(filepath.Join(dir, family+"_exclusions.txt"), bundle.Excluded); err != nil {
			return err
		}
	}
	if len(bundle.BaseDomains) > 0 {
		if err := writeList(filepath.Join(dir, family+"_basedomains.txt"), bundle.BaseDomains); err != nil {
			return err
		}
	}

	log.Info("wrote list family",
		"family", family,
		"all", len(bundle.All),
		"filtered", len(bundle.Filtered),
		"excluded", len(bundle.Excluded),
		"basedomains", len(bundle.BaseDomains),
	)
	return nil
}

func writeList(path string, items []string) error {
	payload := append(append([]byte{}, bom...), []byte(strings.Join(items, "\n"))...)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// CountEntries returns the number of non-empty lines in a previous run's
// artifact. Missing or unreadable files count as zero, which the change guard
// treats as "no baseline".
func CountEntries(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	data = bytes.TrimPrefix(data, bom)

	count := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count
}

// Purge removes the previous run's .txt artifacts from the output directory.
// A directory that does not exist yet is fine.
func Purge(dir string) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return fmt.Errorf("scan output dir: %w", err)
	}
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
		}
	}
	if len(matches) > 0 {
		log.Debug("purged previous artifacts", "dir", dir, "files", len(matches))
	}
	return nil
}
