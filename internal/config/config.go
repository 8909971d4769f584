// Package config carries the run configuration resolved from flags and
// environment. The struct is built once in main and passed down explicitly;
// nothing in the pipeline reads ambient state.
package config

import (
	"os"
	"strings"
)

type Config struct {
	// OutputDir receives the text artifacts and supplies the previous run's
	// counts for the change guard.
	OutputDir string

	// ResolveIPs enables the DNS expansion step; disabled, only the fqdn
	// family is produced.
	ResolveIPs bool

	// DNSServers are queried in rotation by the resolver engine. Empty means
	// the system resolver.
	DNSServers []string

	Exclusions     []string
	ExclusionsFile string

	// CleanOutput removes prior .txt artifacts before writing, once the
	// change guard has passed.
	CleanOutput bool

	// WarnChangeRatio is the guard tolerance: new/old must stay within
	// [1-ratio, 1+ratio].
	WarnChangeRatio float64
	SkipRatioCheck  bool

	// FilterBaseDomains keeps base domains out of the filtered lists.
	FilterBaseDomains bool

	// ScraperCommand, when set, selects the external scraper subprocess over
	// the built-in wiki producer.
	ScraperCommand string
	SourceURL      string
}

// GetEnv returns the value of an environment variable or the fallback when
// it is unset.
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// SplitList turns a comma-separated flag value into its trimmed, non-empty
// elements.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
