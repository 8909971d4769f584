// Package curator partitions a raw batch of tokens into the disjoint output
// lists of one artifact family. Exclusions always win over every other
// classification; base-domain status wins over plain membership.
package curator

import (
	"dohlists/internal/domain"
	"dohlists/internal/exclusions"
)

// Bundle holds the four ordered sequences written for one artifact family.
// All is the sorted union of the other three buckets; the buckets themselves
// are pairwise disjoint.
type Bundle struct {
	All         []string
	Filtered    []string
	Excluded    []string
	BaseDomains []string
}

// Curate normalizes, classifies, deduplicates and orders a batch of raw
// tokens. baseDomainAddrs carries addresses that were resolved specifically
// from base-domain hostnames, so address literals can inherit the base-domain
// classification. When filterBaseDomains is set, base domains are kept out of
// the Filtered sequence; otherwise Filtered is the union of candidates and
// base domains.
func Curate(items []string, excl *exclusions.Set, baseDomainAddrs map[string]struct{}, filterBaseDomains bool) Bundle {
	var baseDomains, excluded, candidates []string

	for _, item := range items {
		token := domain.Normalize(item)
		if token == "" {
			continue
		}

		if excl.Contains(token) {
			excluded = append(excluded, token)
			continue
		}

		isBase := false
		if !domain.IsIPv4(token) && !domain.IsIPv6(token) {
			isBase = domain.IsBaseDomain(token)
		} else if baseDomainAddrs != nil {
			_, isBase = baseDomainAddrs[token]
		}

		if isBase {
			baseDomains = append(baseDomains, token)
		} else {
			candidates = append(candidates, token)
		}
	}

	baseDomains = domain.SortedUnique(baseDomains)
	excluded = domain.SortedUnique(excluded)
	candidates = domain.SortedUnique(candidates)

	all := make([]string, 0, len(baseDomains)+len(excluded)+len(candidates))
	all = append(all, baseDomains...)
	all = append(all, excluded...)
	all = append(all, candidates...)

	filtered := candidates
	if !filterBaseDomains {
		filtered = domain.SortedUnique(append(append([]string{}, candidates...), baseDomains...))
	}

	return Bundle{
		All:         domain.SortedUnique(all),
		Filtered:    filtered,
		Excluded:    excluded,
		BaseDomains: baseDomains,
	}
}
