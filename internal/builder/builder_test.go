package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"dohlists/internal/config"
	"dohlists/internal/exclusions"
	"dohlists/internal/output"
	"dohlists/internal/resolver"
)

type fakeProducer struct {
	urls []string
	err  error
}

func (f *fakeProducer) ProduceURLs(context.Context) ([]string, error) {
	return f.urls, f.err
}

type fakeResolver struct {
	answers map[resolver.RecordType]map[string][]string
}

func (f *fakeResolver) Resolve(_ context.Context, hosts []string, qtype resolver.RecordType) []string {
	var all []string
	for _, host := range hosts {
		all = append(all, f.answers[qtype][host]...)
	}
	return all
}

func emptySet(t *testing.T) *exclusions.Set {
	t.Helper()
	set, err := exclusions.Load(nil, "")
	if err != nil {
		t.Fatalf("building empty exclusion set: %v", err)
	}
	return set
}

func baseConfig(dir string) config.Config {
	return config.Config{
		OutputDir:       dir,
		ResolveIPs:      true,
		CleanOutput:     true,
		WarnChangeRatio: 0.2,
	}
}

func readList(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data[3:]) // skip BOM
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	producer := &fakeProducer{urls: []string{
		"https://dns.google/dns-query",
		"https://doh.cleanbrowsing.org/doh/family-filter",
		"https://cloudflare-dns.com/dns-query",
		"https://1.1.1.1/dns-query", // literal, dropped at extraction
	}}
	engine := &fakeResolver{answers: map[resolver.RecordType]map[string][]string{
		resolver.TypeA: {
			"dns.google":            {"8.8.8.8", "8.8.4.4"},
			"cloudflare-dns.com":    {"104.16.249.249"},
			"doh.cleanbrowsing.org": {"185.228.168.10"},
		},
		resolver.TypeAAAA: {
			"dns.google": {"2001:4860:4860::8888"},
		},
	}}

	b := New(baseConfig(dir), producer, engine, emptySet(t))
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := readList(t, filepath.Join(dir, "fqdn.txt")); got != "cloudflare-dns.com\ndns.google\ndoh.cleanbrowsing.org" {
		t.Fatalf("fqdn.txt = %q", got)
	}
	// Two-label names classify as base domains; doh.cleanbrowsing.org does not.
	if got := readList(t, filepath.Join(dir, "fqdn_basedomains.txt")); got != "cloudflare-dns.com\ndns.google" {
		t.Fatalf("fqdn_basedomains.txt = %q", got)
	}
	if got := readList(t, filepath.Join(dir, "ipv4.txt")); got != "8.8.4.4\n8.8.8.8\n104.16.249.249\n185.228.168.10" {
		t.Fatalf("ipv4.txt = %q, want numeric order", got)
	}
	if got := readList(t, filepath.Join(dir, "ipv6.txt")); got != "2001:4860:4860::8888" {
		t.Fatalf("ipv6.txt = %q", got)
	}
}

func TestRunScraperFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	producer := &fakeProducer{err: errors.New("scraper exploded")}

	b := New(baseConfig(dir), producer, &fakeResolver{}, emptySet(t))
	if err := b.Run(context.Background()); err == nil {
		t.Fatal("expected error when the producer fails")
	}

	if _, err := os.Stat(filepath.Join(dir, "fqdn.txt")); !os.IsNotExist(err) {
		t.Fatal("no output may be written after a scraper failure")
	}
}

func TestRunGuardAbortsBeforeTouchingFiles(t *testing.T) {
	dir := t.TempDir()

	// Previous run: many entries. New run: a single hostname, far below the
	// tolerance band.
	if err := os.WriteFile(filepath.Join(dir, "fqdn.txt"), []byte("\xEF\xBB\xBF"+join(manyHosts(50))), 0o644); err != nil {
		t.Fatalf("seed previous run: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(dir, "fqdn.txt"))
	if err != nil {
		t.Fatalf("read seed: %v", err)
	}

	cfg := baseConfig(dir)
	cfg.ResolveIPs = false
	producer := &fakeProducer{urls: []string{"https://dns.google/dns-query"}}

	b := New(cfg, producer, &fakeResolver{}, emptySet(t))
	err = b.Run(context.Background())
	if !errors.Is(err, ErrChangeRatio) {
		t.Fatalf("Run returned %v, want ErrChangeRatio", err)
	}

	after, err := os.ReadFile(filepath.Join(dir, "fqdn.txt"))
	if err != nil {
		t.Fatalf("previous artifact was deleted on an aborted run: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatal("previous artifact was modified on an aborted run")
	}
}

func TestRunSkipRatioCheck(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fqdn.txt"), []byte("\xEF\xBB\xBF"+join(manyHosts(40))), 0o644); err != nil {
		t.Fatalf("seed previous run: %v", err)
	}

	cfg := baseConfig(dir)
	cfg.ResolveIPs = false
	cfg.SkipRatioCheck = true
	producer := &fakeProducer{urls: []string{"https://dns.google/dns-query"}}

	b := New(cfg, producer, &fakeResolver{}, emptySet(t))
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error with ratio check skipped: %v", err)
	}

	if got := readList(t, filepath.Join(dir, "fqdn.txt")); got != "dns.google" {
		t.Fatalf("fqdn.txt = %q, want the new single entry", got)
	}
}

func TestRunNoResolveSkipsAddressFamilies(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(dir)
	cfg.ResolveIPs = false
	producer := &fakeProducer{urls: []string{"https://dns.google/dns-query"}}

	b := New(cfg, producer, &fakeResolver{}, emptySet(t))
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, name := range []string{"ipv4.txt", "ipv6.txt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s should not exist when resolution is disabled", name)
		}
	}
}

func TestRunExclusionFlow(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig(dir)
	cfg.ResolveIPs = false

	excl, err := exclusions.Load([]string{"dns.google"}, "")
	if err != nil {
		t.Fatalf("load exclusions: %v", err)
	}
	producer := &fakeProducer{urls: []string{
		"https://dns.google/dns-query",
		"https://doh.opendns.com/dns-query",
	}}

	b := New(cfg, producer, &fakeResolver{}, excl)
	if err := b.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := readList(t, filepath.Join(dir, "fqdn_exclusions.txt")); got != "dns.google" {
		t.Fatalf("fqdn_exclusions.txt = %q", got)
	}
	if got := readList(t, filepath.Join(dir, "fqdn_filtered.txt")); got != "doh.opendns.com" {
		t.Fatalf("fqdn_filtered.txt = %q", got)
	}
	// CountEntries round-trip feeds the next run's guard.
	if got := output.CountEntries(filepath.Join(dir, "fqdn.txt")); got != 2 {
		t.Fatalf("CountEntries = %d, want 2", got)
	}
}

func join(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += "\n"
		}
		out += item
	}
	return out
}

func manyHosts(n int) []string {
	hosts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		hosts = append(hosts, "host"+string(rune('a'+i%26))+".example.com")
	}
	return hosts
}
