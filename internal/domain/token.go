package domain

import (
	"net/netip"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// multiLabelTLDs is the fixed set of multi-label public suffixes used by
// IsBaseDomain. This is a deliberate heuristic, not a full public-suffix-list
// lookup; extending it changes which names count as base domains and therefore
// the contents of every published list.
var multiLabelTLDs = map[string]struct{}{
	"co.uk": {}, "co.za": {}, "co.jp": {}, "co.nz": {}, "co.in": {}, "co.kr": {},
	"com.au": {}, "com.br": {}, "com.cn": {}, "com.mx": {}, "com.ar": {},
	"org.uk": {}, "net.au": {}, "gov.uk": {}, "ac.uk": {}, "edu.au": {},
}

// Normalize canonicalizes a raw FQDN or address literal: whitespace trimmed,
// trailing dots removed, lowercased. Non-ASCII hostnames are converted to
// punycode. Returns "" when the input holds no usable token.
func Normalize(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimRight(value, ".")
	if value == "" {
		return ""
	}

	if isASCII(value) {
		return strings.ToLower(value)
	}

	ascii, err := idna.Lookup.ToASCII(value)
	if err != nil {
		// Keep Normalize total: fall back to plain case folding.
		return strings.ToLower(value)
	}
	return strings.ToLower(ascii)
}

// IsIPv4 reports whether token is a valid dotted-quad IPv4 literal.
func IsIPv4(token string) bool {
	addr, err := netip.ParseAddr(token)
	return err == nil && addr.Is4()
}

// IsIPv6 reports whether token is a valid colon-hex IPv6 literal.
// IPv4-mapped forms ("::ffff:1.2.3.4") count as IPv6, matching their
// textual representation.
func IsIPv6(token string) bool {
	addr, err := netip.ParseAddr(token)
	return err == nil && addr.Is6()
}

// IsBaseDomain reports whether a normalized domain name is a registrable root:
// exactly two labels, or exactly three labels whose last two form a known
// multi-label TLD. Single labels ("localhost") and degenerate strings are
// never base domains.
func IsBaseDomain(token string) bool {
	if token == "" || token == "." || !strings.Contains(token, ".") {
		return false
	}

	var labels []string
	for _, label := range strings.Split(token, ".") {
		if label != "" {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return false
	}

	if len(labels) >= 3 {
		suffix := labels[len(labels)-2] + "." + labels[len(labels)-1]
		if _, found := multiLabelTLDs[suffix]; found {
			return len(labels) == 3
		}
	}

	return len(labels) == 2
}

// HostFromURL extracts the raw host from an endpoint URL, dropping scheme,
// path and port. IPv6 literals are expected in bracket notation and are
// returned without the brackets. The result is not normalized.
func HostFromURL(rawURL string) string {
	rest := rawURL
	if i := strings.Index(rest, "://"); i != -1 {
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i != -1 {
		rest = rest[:i]
	}

	if strings.HasPrefix(rest, "[") {
		if i := strings.IndexByte(rest, ']'); i != -1 {
			return rest[1:i]
		}
		return strings.TrimPrefix(rest, "[")
	}

	if i := strings.IndexByte(rest, ':'); i != -1 {
		return rest[:i]
	}
	return rest
}

// SortedUnique deduplicates tokens and sorts them: by numeric address value
// when every member parses as IPv4 (or every member as IPv6), lexicographically
// otherwise. Address lists must never be ordered as strings, or "100.1.1.1"
// sorts before "8.8.8.8".
func SortedUnique(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, found := seen[token]; found {
			continue
		}
		seen[token] = struct{}{}
		unique = append(unique, token)
	}

	if addrs, ok := parseAll(unique); ok {
		sort.Slice(unique, func(i, j int) bool {
			return addrs[unique[i]].Compare(addrs[unique[j]]) < 0
		})
		return unique
	}

	sort.Strings(unique)
	return unique
}

func parseAll(tokens []string) (map[string]netip.Addr, bool) {
	if len(tokens) == 0 {
		return nil, false
	}
	addrs := make(map[string]netip.Addr, len(tokens))
	v4 := 0
	for _, token := range tokens {
		addr, err := netip.ParseAddr(token)
		if err != nil {
			return nil, false
		}
		if addr.Is4() {
			v4++
		}
		addrs[token] = addr
	}
	// Numeric order only applies to a homogeneous family.
	if v4 != 0 && v4 != len(tokens) {
		return nil, false
	}
	return addrs, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
