// Package builder sequences one curation run: scrape, extract, resolve,
// guard, curate, persist.
package builder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"dohlists/internal/config"
	"dohlists/internal/curator"
	"dohlists/internal/domain"
	"dohlists/internal/exclusions"
	"dohlists/internal/guard"
	"dohlists/internal/output"
	"dohlists/internal/resolver"
	"dohlists/internal/scraper"
)

// ErrChangeRatio marks a run rejected by the change guard. Nothing has been
// written or deleted when it is returned.
var ErrChangeRatio = errors.New("entry counts changed beyond tolerance")

// AddrResolver is the slice of the resolver engine the builder needs.
type AddrResolver interface {
	Resolve(ctx context.Context, hosts []string, qtype resolver.RecordType) []string
}

type Builder struct {
	cfg      config.Config
	producer scraper.Producer
	engine   AddrResolver
	excl     *exclusions.Set
}

func New(cfg config.Config, producer scraper.Producer, engine AddrResolver, excl *exclusions.Set) *Builder {
	return &Builder{cfg: cfg, producer: producer, engine: engine, excl: excl}
}

// Run executes the whole pipeline. The previous artifacts are only purged or
// overwritten after the change guard has accepted the new counts; an aborted
// run leaves the output directory untouched.
func (b *Builder) Run(ctx context.Context) error {
	dir := b.cfg.OutputDir

	oldFQDN := output.CountEntries(filepath.Join(dir, "fqdn.txt"))
	oldIPv4 := output.CountEntries(filepath.Join(dir, "ipv4.txt"))
	oldIPv6 := output.CountEntries(filepath.Join(dir, "ipv6.txt"))

	urls, err := b.producer.ProduceURLs(ctx)
	if err != nil {
		return fmt.Errorf("produce endpoint urls: %w", err)
	}
	log.Info("scraped endpoint URLs", "count", len(urls))

	fqdns := extractFQDNs(urls)
	baseDomainFQDNs := filterBaseDomains(fqdns)
	log.Info("extracted hostnames", "fqdns", len(fqdns), "basedomains", len(baseDomainFQDNs))

	var (
		ipv4, ipv6     []string
		baseV4, baseV6 map[string]struct{}
	)
	if b.cfg.ResolveIPs {
		log.Info("resolving IPv4 addresses", "hosts", len(fqdns))
		ipv4 = b.engine.Resolve(ctx, fqdns, resolver.TypeA)
		log.Info("resolved IPv4", "count", len(ipv4))

		log.Info("resolving IPv6 addresses", "hosts", len(fqdns))
		ipv6 = b.engine.Resolve(ctx, fqdns, resolver.TypeAAAA)
		log.Info("resolved IPv6", "count", len(ipv6))

		if len(baseDomainFQDNs) > 0 {
			baseV4 = toSet(b.engine.Resolve(ctx, baseDomainFQDNs, resolver.TypeA))
			baseV6 = toSet(b.engine.Resolve(ctx, baseDomainFQDNs, resolver.TypeAAAA))
		}
	}

	if !b.cfg.SkipRatioCheck {
		ok := guard.Check("fqdn", oldFQDN, len(fqdns), b.cfg.WarnChangeRatio)
		// Evaluate every family so all violations get reported at once.
		ok = guard.Check("ipv4", oldIPv4, len(ipv4), b.cfg.WarnChangeRatio) && ok
		ok = guard.Check("ipv6", oldIPv6, len(ipv6), b.cfg.WarnChangeRatio) && ok
		if !ok {
			return ErrChangeRatio
		}
	}

	if b.cfg.CleanOutput {
		if err := output.Purge(dir); err != nil {
			return err
		}
	}

	bundle := curator.Curate(fqdns, b.excl, nil, b.cfg.FilterBaseDomains)
	if err := output.WriteBundle(dir, "fqdn", bundle); err != nil {
		return err
	}

	if b.cfg.ResolveIPs {
		bundle = curator.Curate(ipv4, b.excl, baseV4, b.cfg.FilterBaseDomains)
		if err := output.WriteBundle(dir, "ipv4", bundle); err != nil {
			return err
		}

		bundle = curator.Curate(ipv6, b.excl, baseV6, b.cfg.FilterBaseDomains)
		if err := output.WriteBundle(dir, "ipv6", bundle); err != nil {
			return err
		}
	}

	return nil
}

// extractFQDNs turns endpoint URLs into a sorted, deduplicated hostname
// batch. Address literals are dropped here: they carry no DNS expansion and
// the address families are rebuilt from resolution anyway.
func extractFQDNs(urls []string) []string {
	var fqdns []string
	for _, rawURL := range urls {
		token := domain.Normalize(domain.HostFromURL(rawURL))
		if token == "" || domain.IsIPv4(token) || domain.IsIPv6(token) {
			continue
		}
		fqdns = append(fqdns, token)
	}
	return domain.SortedUnique(fqdns)
}

func filterBaseDomains(fqdns []string) []string {
	var out []string
	for _, fqdn := range fqdns {
		if domain.IsBaseDomain(fqdn) {
			out = append(out, fqdn)
		}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
